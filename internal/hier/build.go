package hier

import "hmcos/internal/graph"

// opTopoOrder returns the ops of g in a deterministic topological order
// (Kahn's algorithm, ties broken by declaration order), used as the
// processing order for sequence joining.
func opTopoOrder(g *graph.Graph) []*graph.Op {
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
		op := ready[0]
		ready = ready[1:]
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

// joinSequences partitions g's ops into maximal chains: an op continues
// its predecessor's chain exactly when it has that one predecessor and
// that predecessor has no other successor.
func joinSequences(g *graph.Graph) ([]*Sequence, map[*graph.Op]*Sequence) {
	opSeq := make(map[*graph.Op]*Sequence, len(g.Ops))
	var seqs []*Sequence

	isChainHead := func(op *graph.Op) bool {
		if len(op.Preds) != 1 {
			return true
		}
		p := op.Preds[0]
		return len(p.Succs) != 1
	}

	for _, op := range opTopoOrder(g) {
		if isChainHead(op) {
			seq := &Sequence{Ops: []*graph.Op{op}}
			seqs = append(seqs, seq)
			opSeq[op] = seq
			continue
		}
		seq := opSeq[op.Preds[0]]
		seq.Ops = append(seq.Ops, op)
		opSeq[op] = seq
	}

	// Wire Sequence-level preds/succs from the op-level edges crossing
	// Sequence boundaries.
	for _, seq := range seqs {
		head := seq.Ops[0]
		for _, p := range head.Preds {
			addUniqueVertex(&seq.preds, opSeq[p])
		}
		tail := seq.Ops[len(seq.Ops)-1]
		for _, s := range tail.Succs {
			addUniqueVertex(&seq.succs, opSeq[s])
		}
	}
	// The reverse edges (succ->pred and pred->succ) were only added on
	// one side above; complete the dual so every edge is visible from
	// both endpoints, matching addSucc's contract elsewhere.
	for _, seq := range seqs {
		for _, p := range seq.preds {
			addUniqueVertex(&baseOf(p).succs, seq)
		}
	}

	return seqs, opSeq
}

// Build constructs the initial hierarchical view of g: Sequences are
// joined first, then branching regions of Sequences are collapsed into
// Groups. The join/group algorithm itself is not prescribed by the
// scheduler's contract, only the resulting shape (HierInput/HierOutput,
// Sequence, Group, their preds/succs, and a Group's frontier/exit/
// consumed/produced bookkeeping) is.
func Build(g *graph.Graph) *HierGraph {
	seqs, opToSeq := joinSequences(g)

	h := &HierGraph{Seqs: seqs, OpToSeq: opToSeq}

	for _, v := range g.Inputs {
		in := &Input{Value: v}
		for _, use := range v.Uses {
			addSuccUnique(in, opToSeq[use])
		}
		h.Inputs = append(h.Inputs, in)
	}
	for _, v := range g.Outputs {
		out := &Output{Value: v}
		if v.Def != nil {
			addSuccUnique(opToSeq[v.Def], out)
		}
		h.Outputs = append(h.Outputs, out)
	}

	h.Groups = formGroups(seqs)

	return h
}

func addSuccUnique(from, to Vertex) {
	addUniqueVertex(&baseOf(from).succs, to)
	addUniqueVertex(&baseOf(to).preds, from)
}
