package sched

import (
	"math/rand"

	"hmcos/internal/graph"
)

// ReversePostOrder returns every Op of g in reverse postorder, i.e. the
// postorder of a DFS over predecessor edges rooted at ops with no
// successors, which lists every Op after all of its predecessors. It
// ignores Sequence/Group structure entirely — a cheap, group-unaware
// baseline to compare the hierarchical schedule's peak against.
func ReversePostOrder(g *graph.Graph) []*graph.Op {
	visited := make(map[*graph.Op]bool, len(g.Ops))
	var post []*graph.Op

	var visit func(op *graph.Op)
	visit = func(op *graph.Op) {
		if visited[op] {
			return
		}
		visited[op] = true
		for _, p := range op.Preds {
			visit(p)
		}
		post = append(post, op)
	}
	for _, op := range g.Ops {
		if len(op.Succs) == 0 {
			visit(op)
		}
	}
	for _, op := range g.Ops {
		visit(op)
	}

	return post
}

// RandomSample draws a random valid topological order of g's ops via
// Kahn's algorithm with a uniform pick among the ready set at each step;
// distinct topological orders are not all equally likely. Useful as a fuzz baseline: every sample it returns must
// pass the same topological-validity and completeness checks as the
// hierarchical schedule.
func RandomSample(g *graph.Graph, rng *rand.Rand) []*graph.Op {
	predCnt := make(map[*graph.Op]int, len(g.Ops))
	for _, op := range g.Ops {
		predCnt[op] = len(op.Preds)
	}

	var ready []*graph.Op
	for _, op := range g.Ops {
		if predCnt[op] == 0 {
			ready = append(ready, op)
		}
	}

	order := make([]*graph.Op, 0, len(g.Ops))
	for len(ready) > 0 {
		i := rng.Intn(len(ready))
		op := ready[i]
		ready[i] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]

		order = append(order, op)
		for _, succ := range op.Succs {
			predCnt[succ]--
			if predCnt[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	return order
}
