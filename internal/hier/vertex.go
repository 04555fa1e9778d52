// Package hier builds and manipulates the two-level hierarchical view of
// a dataflow graph: linear runs of ops collapsed into Sequences, and
// branching regions of Sequences collapsed into Groups.
package hier

import "hmcos/internal/graph"

// Kind discriminates the HierVertex variants. A tagged union with a
// kind-tag switch is sufficient here; Go interfaces supply the dispatch.
type Kind int

const (
	KindInput Kind = iota
	KindOutput
	KindSequence
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindOutput:
		return "Output"
	case KindSequence:
		return "Sequence"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// Vertex is any node of the hierarchical graph.
type Vertex interface {
	Kind() Kind
	Preds() []Vertex
	Succs() []Vertex
	// idx is unexported so Vertex cannot be implemented outside this
	// package; callers needing a stable sort/display key use a
	// Sequence's or Group's op names instead (see sched.seqName).
	idx() int
}

// base holds the fields common to every HierVertex variant: owning
// forward edges, weak back edges, and the pre-grouping snapshots that
// Ungroup consults to restore hidden edges.
type base struct {
	index int

	preds []Vertex
	succs []Vertex

	prevPreds []Vertex
	prevSuccs []Vertex
}

func (b *base) Preds() []Vertex { return b.preds }
func (b *base) Succs() []Vertex { return b.succs }
func (b *base) idx() int        { return b.index }

func addSucc(from, to Vertex) {
	fb := baseOf(from)
	fb.succs = append(fb.succs, to)
	tb := baseOf(to)
	tb.preds = append(tb.preds, from)
}

func baseOf(v Vertex) *base {
	switch t := v.(type) {
	case *Input:
		return &t.base
	case *Output:
		return &t.base
	case *Sequence:
		return &t.base
	case *Group:
		return &t.base
	default:
		panic("hier: unknown vertex variant")
	}
}

// Input wraps one graph-input value.
type Input struct {
	base
	Value *graph.Value
}

func (v *Input) Kind() Kind { return KindInput }

// Output wraps one graph-output value.
type Output struct {
	base
	Value *graph.Value
}

func (v *Output) Kind() Kind { return KindOutput }

// Sequence is a maximal chain of ops: every op but the first has exactly
// one predecessor within the chain, and that predecessor has exactly one
// successor. Any valid schedule visits Ops in this fixed order.
type Sequence struct {
	base
	Ops []*graph.Op
	// Group is a weak back-reference to the Group currently containing
	// this Sequence, or nil if ungrouped.
	Group *Group
}

func (v *Sequence) Kind() Kind { return KindSequence }

// Group is a set of Sequences forming a region scheduled as a unit.
type Group struct {
	base
	Seqs []*Sequence

	// InFront are the member Sequences with predecessors outside the
	// Group; OutFront are those with successors outside the Group.
	InFront  []*Sequence
	OutFront []*Sequence
	// Exits is the subset of OutFront (by construction, the same set)
	// from which the reverse-postorder fast path starts.
	Exits []*Sequence

	// Consumed counts, per externally-produced value, how many times
	// members of this Group use it. Produced counts, per value produced
	// inside this Group, how many of its uses are external.
	Consumed map[*graph.Value]int
	Produced map[*graph.Value]int
}

func (v *Group) Kind() Kind { return KindGroup }
