package hier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmcos/internal/graph"
)

func diamondGraph(t *testing.T) *graph.Graph {
	t.Helper()
	in := &graph.Value{Name: "in", Kind: graph.INPUT, Type: graph.ValueType{ByteSize: 1}}
	av := &graph.Value{Name: "a.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	bv := &graph.Value{Name: "b.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	cv := &graph.Value{Name: "c.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	dv := &graph.Value{Name: "d.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}

	opA := &graph.Op{Name: "A", Inputs: []*graph.Value{in}, Outputs: []*graph.Value{av}}
	opB := &graph.Op{Name: "B", Inputs: []*graph.Value{av}, Outputs: []*graph.Value{bv}}
	opC := &graph.Op{Name: "C", Inputs: []*graph.Value{av}, Outputs: []*graph.Value{cv}}
	opD := &graph.Op{Name: "D", Inputs: []*graph.Value{bv, cv}, Outputs: []*graph.Value{dv}}

	av.Def, bv.Def, cv.Def, dv.Def = opA, opB, opC, opD
	in.Uses = []*graph.Op{opA}
	av.Uses = []*graph.Op{opB, opC}
	bv.Uses = []*graph.Op{opD}
	cv.Uses = []*graph.Op{opD}

	g, err := graph.New([]*graph.Op{opA, opB, opC, opD}, []*graph.Value{in}, []*graph.Value{dv})
	require.NoError(t, err)
	return g
}

func TestBuildFormsOneSequencePerOpInDiamond(t *testing.T) {
	g := diamondGraph(t)
	h := Build(g)
	assert.Len(t, h.Seqs, 4)
	for _, s := range h.Seqs {
		assert.Len(t, s.Ops, 1)
	}
}

func TestBuildGroupsTheDiamondsForkAndJoin(t *testing.T) {
	g := diamondGraph(t)
	h := Build(g)

	require.Len(t, h.Groups, 1)
	group := h.Groups[0]
	assert.Len(t, group.Seqs, 4)
	assert.Len(t, group.InFront, 1)
	assert.Len(t, group.OutFront, 1)

	top := h.TopVerts()
	require.Len(t, top, 1)
	assert.Equal(t, KindGroup, top[0].Kind())
}

func TestUngroupRestoresFlatConnectivity(t *testing.T) {
	g := diamondGraph(t)
	h := Build(g)
	group := h.Groups[0]

	Ungroup(group)

	for _, s := range h.Seqs {
		assert.Nil(t, s.Group)
	}
	top := h.TopVerts()
	assert.Len(t, top, 4, "every Sequence should be its own top-level vertex again")

	opA := h.OpToSeq[g.Ops[0]]
	assert.Len(t, opA.Succs(), 2, "A's sequence should see both B and C again")
}

// twoChainedDiamondsGraph builds two diamonds back to back: in -> X ->
// {A, B} -> D -> {Z, N1}, N1 -> {E, F} -> G -> out. Z is a dead-end side
// branch off D, present only so D keeps two Sequence successors and N1
// does not fuse into D's Sequence. Building this graph forms two Groups
// in the same formGroups pass, the second chained directly off the
// first's join.
func twoChainedDiamondsGraph(t *testing.T) *graph.Graph {
	t.Helper()
	in := &graph.Value{Name: "in", Kind: graph.INPUT, Type: graph.ValueType{ByteSize: 1}}
	xv := &graph.Value{Name: "x.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	av := &graph.Value{Name: "a.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	bv := &graph.Value{Name: "b.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	dv := &graph.Value{Name: "d.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	zv := &graph.Value{Name: "z.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	n1v := &graph.Value{Name: "n1.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	ev := &graph.Value{Name: "e.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	fv := &graph.Value{Name: "f.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	gv := &graph.Value{Name: "g.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}

	opX := &graph.Op{Name: "X", Inputs: []*graph.Value{in}, Outputs: []*graph.Value{xv}}
	opA := &graph.Op{Name: "A", Inputs: []*graph.Value{xv}, Outputs: []*graph.Value{av}}
	opB := &graph.Op{Name: "B", Inputs: []*graph.Value{xv}, Outputs: []*graph.Value{bv}}
	opD := &graph.Op{Name: "D", Inputs: []*graph.Value{av, bv}, Outputs: []*graph.Value{dv}}
	opZ := &graph.Op{Name: "Z", Inputs: []*graph.Value{dv}, Outputs: []*graph.Value{zv}}
	opN1 := &graph.Op{Name: "N1", Inputs: []*graph.Value{dv}, Outputs: []*graph.Value{n1v}}
	opE := &graph.Op{Name: "E", Inputs: []*graph.Value{n1v}, Outputs: []*graph.Value{ev}}
	opF := &graph.Op{Name: "F", Inputs: []*graph.Value{n1v}, Outputs: []*graph.Value{fv}}
	opG := &graph.Op{Name: "G", Inputs: []*graph.Value{ev, fv}, Outputs: []*graph.Value{gv}}

	xv.Def, av.Def, bv.Def, dv.Def = opX, opA, opB, opD
	zv.Def, n1v.Def, ev.Def, fv.Def, gv.Def = opZ, opN1, opE, opF, opG
	in.Uses = []*graph.Op{opX}
	xv.Uses = []*graph.Op{opA, opB}
	av.Uses = []*graph.Op{opD}
	bv.Uses = []*graph.Op{opD}
	dv.Uses = []*graph.Op{opZ, opN1}
	n1v.Uses = []*graph.Op{opE, opF}
	ev.Uses = []*graph.Op{opG}
	fv.Uses = []*graph.Op{opG}

	g, err := graph.New([]*graph.Op{opX, opA, opB, opD, opZ, opN1, opE, opF, opG}, []*graph.Value{in}, []*graph.Value{zv, gv})
	require.NoError(t, err)
	return g
}

func TestUngroupResolvesReferenceThroughAnAlreadyDissolvedGroup(t *testing.T) {
	g := twoChainedDiamondsGraph(t)
	h := Build(g)
	require.Len(t, h.Groups, 2)

	group1, group2 := h.Groups[0], h.Groups[1]
	n1 := h.OpToSeq[g.Ops[5]] // N1
	require.Contains(t, group2.Seqs, n1)

	// Dissolving group1 first leaves n1's snapshotted predecessor
	// (group1) inactive well before n1's own Group is ever touched.
	Ungroup(group1)
	require.False(t, group1.Active())
	require.True(t, group2.Active())

	Ungroup(group2)
	require.False(t, group2.Active())

	dSeq := h.OpToSeq[g.Ops[3]] // D
	require.Len(t, n1.Preds(), 1)
	assert.Same(t, dSeq, n1.Preds()[0], "n1 must resolve back to D, not to the dissolved group1")
	assert.Contains(t, dSeq.Succs(), n1, "D must see n1 as a successor again")
}

func TestJoinSequencesCollapsesLinearChain(t *testing.T) {
	in := &graph.Value{Name: "in", Kind: graph.INPUT, Type: graph.ValueType{ByteSize: 1}}
	av := &graph.Value{Name: "a.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	bv := &graph.Value{Name: "b.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}
	cv := &graph.Value{Name: "c.out", Kind: graph.INTERMEDIATE, Type: graph.ValueType{ByteSize: 1}}

	opA := &graph.Op{Name: "A", Inputs: []*graph.Value{in}, Outputs: []*graph.Value{av}}
	opB := &graph.Op{Name: "B", Inputs: []*graph.Value{av}, Outputs: []*graph.Value{bv}}
	opC := &graph.Op{Name: "C", Inputs: []*graph.Value{bv}, Outputs: []*graph.Value{cv}}
	av.Def, bv.Def, cv.Def = opA, opB, opC
	in.Uses = []*graph.Op{opA}
	av.Uses = []*graph.Op{opB}
	bv.Uses = []*graph.Op{opC}

	g, err := graph.New([]*graph.Op{opA, opB, opC}, []*graph.Value{in}, []*graph.Value{cv})
	require.NoError(t, err)

	h := Build(g)
	require.Len(t, h.Seqs, 1)
	assert.Equal(t, []*graph.Op{opA, opB, opC}, h.Seqs[0].Ops)
	assert.Empty(t, h.Groups)
}
