package hier

// owner resolves a plain Sequence neighbor to whatever currently
// represents it: the Sequence itself if it is still ungrouped, or the
// Group that has since absorbed it. A Sequence's Group back-pointer is
// always live (Ungroup clears it the instant that Group dissolves), so
// this one check is never itself stale.
func owner(v Vertex) Vertex {
	s, ok := v.(*Sequence)
	if !ok || s.Group == nil {
		return v
	}
	return s.Group
}

// ownerPred resolves a stale predecessor reference p, snapshotted in
// child.prevPreds, to whatever currently feeds child. If p is a Group
// that is still active, it is still accurate and is returned as-is. If
// p is a Group that has since been dissolved out of order (formed
// before child's own Group but torn down after it), its own snapshot
// is gone, but its former exit members still carry theirs: find the
// member whose prevSuccs named child directly and resolve through that
// member's live owner instead (spec.md §4.6's "consult its output
// frontier and recursively match on prevSuccs").
func ownerPred(child Vertex, p Vertex) Vertex {
	g, ok := p.(*Group)
	if !ok {
		return owner(p)
	}
	if g.Active() {
		return g
	}
	for _, m := range g.OutFront {
		if containsVertex(m.prevSuccs, child) {
			return owner(m)
		}
	}
	return g
}

// ownerSucc is ownerPred's mirror for a stale successor reference n,
// snapshotted in child.prevSuccs: it consults a dissolved Group's input
// frontier and matches on prevPreds instead.
func ownerSucc(child Vertex, n Vertex) Vertex {
	g, ok := n.(*Group)
	if !ok {
		return owner(n)
	}
	if g.Active() {
		return g
	}
	for _, m := range g.InFront {
		if containsVertex(m.prevPreds, child) {
			return owner(m)
		}
	}
	return g
}

// Ungroup dissolves g, restoring each member's pre-grouping preds/succs
// and clearing the Group's own edges.
func Ungroup(g *Group) {
	// Clear every member's Group pointer before resolving any neighbor:
	// a member's snapshot may reference a sibling member, and that
	// sibling must already read as ungrouped rather than as g, which is
	// dissolving. Doing this in one pass first makes the result
	// independent of the order g.Seqs happens to be in.
	for _, s := range g.Seqs {
		s.Group = nil
	}

	for _, s := range g.Seqs {
		s.preds = make([]Vertex, len(s.prevPreds))
		for i, p := range s.prevPreds {
			s.preds[i] = ownerPred(s, p)
		}
		s.succs = make([]Vertex, len(s.prevSuccs))
		for i, n := range s.prevSuccs {
			s.succs[i] = ownerSucc(s, n)
		}
	}

	for _, p := range g.preds {
		removeVertex(&baseOf(p).succs, g)
	}
	for _, n := range g.succs {
		removeVertex(&baseOf(n).preds, g)
	}
	g.preds = nil
	g.succs = nil

	// Re-establish the dual edge for every restored neighbor: a member
	// whose restored pred/succ is itself ungrouped needs the matching
	// entry added back on that neighbor's side.
	for _, s := range g.Seqs {
		for _, p := range s.preds {
			addUniqueVertex(&baseOf(p).succs, owner(s))
		}
		for _, n := range s.succs {
			addUniqueVertex(&baseOf(n).preds, owner(s))
		}
	}
}

// TryUngroupSucc ungroups every Group directly downstream of seq. It
// snapshots seq.Succs() first since Ungroup rewrites seq.succs as it
// runs. It makes one pass only: ungrouping a dissolved Group's own
// Group successors, if any, is left to a later call of the outer
// refinement loop rather than cascading here.
func TryUngroupSucc(seq *Sequence) bool {
	changed := false
	for _, v := range append([]Vertex(nil), seq.succs...) {
		g, ok := v.(*Group)
		if !ok || !g.Active() {
			continue
		}
		Ungroup(g)
		changed = true
	}
	return changed
}
