package hier

import "hmcos/internal/graph"

// HierGraph is the two-level hierarchical view of a Graph: an ordered
// list of HierInput/HierOutput boundary vertices plus the Sequences and
// Groups that partition the graph's ops, and the opToSeq index tying op
// identity back to the Sequence that contains it.
type HierGraph struct {
	Inputs  []*Input
	Outputs []*Output

	// Seqs lists every Sequence, in the topological order they were
	// formed in, regardless of whether it is currently inside a Group.
	Seqs []*Sequence
	// Groups lists every Group ever formed. Ungroup does not remove a
	// Group from this list — it only severs its edges and clears its
	// members' Group back-reference — so this list is purely historical
	// bookkeeping, not "currently active groups".
	Groups []*Group

	OpToSeq map[*graph.Op]*Sequence
}

// TopVerts returns the current top-level vertices eligible for
// scheduling: every Sequence not currently inside a Group, plus every
// Group that is still Active, i.e. at least one member's Group
// back-reference still points at it (Ungroup never removes a Group's
// Seqs, but it clears those back-references).
func (h *HierGraph) TopVerts() []Vertex {
	var verts []Vertex
	for _, s := range h.Seqs {
		if s.Group == nil {
			verts = append(verts, s)
		}
	}
	for _, g := range h.Groups {
		if g.Active() {
			verts = append(verts, g)
		}
	}
	return verts
}

// Active reports whether a Group still owns its members, i.e. has not
// been dissolved by Ungroup.
func (g *Group) Active() bool {
	for _, s := range g.Seqs {
		if s.Group == g {
			return true
		}
	}
	return false
}
