package hier

import (
	"sort"

	"hmcos/internal/graph"
)

// succSeqs returns s's distinct Sequence successors (HierOutput
// successors are not branch targets for grouping purposes).
func succSeqs(s *Sequence) []*Sequence {
	var out []*Sequence
	for _, v := range s.succs {
		if seq, ok := v.(*Sequence); ok {
			out = append(out, seq)
		}
	}
	return out
}

// reachableSeqs returns every Sequence reachable from start, start
// inclusive, following only Sequence successors.
func reachableSeqs(start *Sequence) map[*Sequence]bool {
	seen := map[*Sequence]bool{start: true}
	queue := []*Sequence{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range succSeqs(cur) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

// formGroups finds branching regions in the Sequence-level DAG and
// collapses each into a Group.
//
// For every fork (a Sequence with more than one Sequence successor) not
// yet claimed by an earlier Group, it looks for the nearest Sequence
// reached by every one of the fork's branches (the first reconvergence
// point) and forms a Group from the fork, everything between, and that
// reconvergence point. A Group's frontier need not be single-entry/
// single-exit — spec.md only requires "input frontier" / "output
// frontier" bookkeeping — so forks with no clean reconvergence are
// simply left ungrouped rather than forced into a region.
func formGroups(seqs []*Sequence) []*Group {
	idx := make(map[*Sequence]int, len(seqs))
	for i, s := range seqs {
		idx[s] = i
	}

	claimed := make(map[*Sequence]bool, len(seqs))
	var groups []*Group

	for _, f := range seqs {
		if claimed[f] {
			continue
		}
		branches := succSeqs(f)
		if len(branches) < 2 {
			continue
		}

		reachCount := make(map[*Sequence]int)
		for _, b := range branches {
			for s := range reachableSeqs(b) {
				reachCount[s]++
			}
		}

		var joins []*Sequence
		for s, c := range reachCount {
			if c == len(branches) {
				joins = append(joins, s)
			}
		}
		if len(joins) == 0 {
			continue
		}
		sort.Slice(joins, func(i, j int) bool { return idx[joins[i]] < idx[joins[j]] })
		join := joins[0]

		region := []*Sequence{f}
		for s, c := range reachCount {
			if c >= 1 && idx[s] <= idx[join] {
				region = append(region, s)
			}
		}

		overlap := false
		for _, s := range region {
			if claimed[s] {
				overlap = true
				break
			}
		}
		if overlap || len(region) < 2 {
			continue
		}
		sort.Slice(region, func(i, j int) bool { return idx[region[i]] < idx[region[j]] })

		for _, s := range region {
			claimed[s] = true
		}
		groups = append(groups, formGroup(region))
	}

	return groups
}

// formGroup collapses the given Sequences into a single Group, hiding
// their cross-boundary edges behind the Group and snapshotting each
// member's pre-grouping connectivity for later Ungroup.
func formGroup(members []*Sequence) *Group {
	g := &Group{Seqs: members, Consumed: map[*graph.Value]int{}, Produced: map[*graph.Value]int{}}

	for _, s := range members {
		s.prevPreds = append([]Vertex(nil), s.preds...)
		s.prevSuccs = append([]Vertex(nil), s.succs...)
	}

	for _, s := range members {
		var intPreds, extPreds []Vertex
		for _, p := range s.preds {
			if seqp, ok := p.(*Sequence); ok && containsSeq(members, seqp) {
				intPreds = append(intPreds, p)
			} else {
				extPreds = append(extPreds, p)
			}
		}
		if len(extPreds) > 0 {
			g.InFront = append(g.InFront, s)
			for _, p := range extPreds {
				addUniqueVertex(&g.preds, p)
				removeVertex(&baseOf(p).succs, s)
				addUniqueVertex(&baseOf(p).succs, g)
			}
		}
		s.preds = intPreds

		var intSuccs, extSuccs []Vertex
		for _, n := range s.succs {
			if seqn, ok := n.(*Sequence); ok && containsSeq(members, seqn) {
				intSuccs = append(intSuccs, n)
			} else {
				extSuccs = append(extSuccs, n)
			}
		}
		if len(extSuccs) > 0 {
			g.OutFront = append(g.OutFront, s)
			for _, n := range extSuccs {
				addUniqueVertex(&g.succs, n)
				removeVertex(&baseOf(n).preds, s)
				addUniqueVertex(&baseOf(n).preds, g)
			}
		}
		s.succs = intSuccs

		s.Group = g
	}
	g.Exits = g.OutFront

	computeConsumedProduced(g)
	return g
}

func computeConsumedProduced(g *Group) {
	memberOps := make(map[*graph.Op]bool)
	for _, s := range g.Seqs {
		for _, op := range s.Ops {
			memberOps[op] = true
		}
	}
	for _, s := range g.Seqs {
		for _, op := range s.Ops {
			for _, in := range op.Inputs {
				if in.Kind == graph.PARAM {
					continue
				}
				if in.Def == nil || !memberOps[in.Def] {
					g.Consumed[in]++
				}
			}
			for _, out := range op.Outputs {
				if out.Kind == graph.PARAM {
					continue
				}
				ext := 0
				for _, use := range out.Uses {
					if !memberOps[use] {
						ext++
					}
				}
				if ext > 0 {
					g.Produced[out] = ext
				}
			}
		}
	}
}

// ConsumedOrder returns g's externally-consumed values in a stable,
// deterministic order — the canonical order GroupContext uses to build
// its kill vector.
func (g *Group) ConsumedOrder() []*graph.Value {
	vals := make([]*graph.Value, 0, len(g.Consumed))
	for v := range g.Consumed {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].Name < vals[j].Name })
	return vals
}
