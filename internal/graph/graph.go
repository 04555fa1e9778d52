// Package graph defines the op-level dataflow graph that the scheduler
// consumes: Values (SSA tensor-typed results), Ops (vertices), and the
// Graph itself. Building a Graph from an interchange format is treated
// as an external concern; this package only supplies a minimal JSON
// loader for running the scheduler end to end (see io.go).
package graph

import "fmt"

// ValueKind classifies how a Value came to exist.
type ValueKind int

const (
	// INTERMEDIATE values are produced by an Op inside the graph.
	INTERMEDIATE ValueKind = iota
	// INPUT values are graph inputs, fed in from outside.
	INPUT
	// PARAM values are permanently resident (weights, constants) and
	// are excluded from live-set accounting.
	PARAM
)

func (k ValueKind) String() string {
	switch k {
	case INTERMEDIATE:
		return "INTERMEDIATE"
	case INPUT:
		return "INPUT"
	case PARAM:
		return "PARAM"
	default:
		return "UNKNOWN"
	}
}

// ValueType carries the static type information needed to size a Value.
// Real interchange formats derive this from dtype+shape; here it is
// reduced to the one quantity the scheduler actually needs.
type ValueType struct {
	ByteSize int64
}

// Size returns the byte size of a value of this type.
func (t ValueType) Size() int64 { return t.ByteSize }

// Value is a single SSA-style tensor value: it has exactly one definer
// Op (nil for PARAM/INPUT values) and a list of user Ops.
type Value struct {
	Name string
	Kind ValueKind
	Type ValueType

	// Def is the Op that produces this value, or nil for PARAM/INPUT.
	Def *Op
	// Uses lists, in no particular order, every Op that consumes this
	// value as an input.
	Uses []*Op
}

// Size returns the byte size of the value.
func (v *Value) Size() int64 { return v.Type.Size() }

// Op is a single vertex of the dataflow graph.
type Op struct {
	Name    string
	Type    string
	Inputs  []*Value
	Outputs []*Value

	// Preds and Succs are the dual of the value-edge graph: Preds are
	// the Ops that produce one of this Op's (non-PARAM) inputs; Succs
	// are the Ops that consume one of this Op's outputs.
	Preds []*Op
	Succs []*Op
}

// Graph is a DAG of Ops with distinguished graph-input and graph-output
// values.
type Graph struct {
	Inputs  []*Value
	Outputs []*Value
	Ops     []*Op
}

// New builds a Graph from its ops and boundary values, deriving Preds and
// Succs from the value def/use edges and validating the structural
// invariants from the data model: the op subgraph must be acyclic, and
// every non-PARAM input of every op must be either a graph input or the
// output of some other op in the graph.
func New(ops []*Op, inputs, outputs []*Value) (*Graph, error) {
	g := &Graph{Inputs: inputs, Outputs: outputs, Ops: ops}

	isGraphInput := make(map[*Value]bool, len(inputs))
	for _, v := range inputs {
		isGraphInput[v] = true
	}

	opIndex := make(map[*Op]int, len(ops))
	for i, op := range ops {
		opIndex[op] = i
	}

	for _, op := range ops {
		seenPred := make(map[*Op]bool)
		for _, in := range op.Inputs {
			if in.Kind == PARAM {
				continue
			}
			if in.Def == nil {
				if isGraphInput[in] {
					continue
				}
				return nil, fmt.Errorf("graph: dangling value %q used by op %q has no definer and is not a graph input", in.Name, op.Name)
			}
			if _, ok := opIndex[in.Def]; !ok {
				return nil, fmt.Errorf("graph: value %q consumed by op %q is defined by an op outside the graph", in.Name, op.Name)
			}
			if !seenPred[in.Def] {
				seenPred[in.Def] = true
				op.Preds = append(op.Preds, in.Def)
				in.Def.Succs = append(in.Def.Succs, op)
			}
		}
	}

	if err := checkAcyclic(ops); err != nil {
		return nil, err
	}

	return g, nil
}

// checkAcyclic runs Kahn's algorithm over the op-level predecessor edges
// and fails if any op is left unscheduled, i.e. the graph has a cycle.
func checkAcyclic(ops []*Op) error {
	predCnt := make(map[*Op]int, len(ops))
	for _, op := range ops {
		predCnt[op] = len(op.Preds)
	}

	var ready []*Op
	for _, op := range ops {
		if predCnt[op] == 0 {
			ready = append(ready, op)
		}
	}

	visited := 0
	for len(ready) > 0 {
		op := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		visited++
		for _, succ := range op.Succs {
			predCnt[succ]--
			if predCnt[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if visited != len(ops) {
		return fmt.Errorf("graph: cycle detected among ops (%d of %d ops unreachable from a zero-indegree start)", len(ops)-visited, len(ops))
	}
	return nil
}
