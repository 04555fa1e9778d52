package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// valueJSON and opJSON mirror the teacher's ProblemJSON convention
// (src-sol2/io.go): a flat, name-addressed interchange format, not any
// particular real model format.
type valueJSON struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

type opJSON struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

type graphJSON struct {
	Values  []valueJSON `json:"values"`
	Ops     []opJSON    `json:"ops"`
	Inputs  []string    `json:"inputs"`
	Outputs []string    `json:"outputs"`
}

func parseKind(s string) (ValueKind, error) {
	switch s {
	case "param":
		return PARAM, nil
	case "input":
		return INPUT, nil
	case "intermediate", "":
		return INTERMEDIATE, nil
	default:
		return 0, fmt.Errorf("graph: unknown value kind %q", s)
	}
}

// Load reads a Graph from the minimal JSON interchange format described
// by graphJSON. This stands in for "parse a model file into a graph",
// which is deliberately out of scope in general — only this trivial
// format is understood here.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: reading %s: %w", path, err)
	}

	var gj graphJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return nil, fmt.Errorf("graph: parsing %s: %w", path, err)
	}
	return fromJSON(gj)
}

func fromJSON(gj graphJSON) (*Graph, error) {
	values := make(map[string]*Value, len(gj.Values))
	for _, vj := range gj.Values {
		kind, err := parseKind(vj.Kind)
		if err != nil {
			return nil, err
		}
		values[vj.Name] = &Value{
			Name: vj.Name,
			Kind: kind,
			Type: ValueType{ByteSize: vj.Size},
		}
	}

	lookup := func(name string) (*Value, error) {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("graph: value %q referenced but not declared", name)
		}
		return v, nil
	}

	ops := make([]*Op, 0, len(gj.Ops))
	for _, oj := range gj.Ops {
		op := &Op{Name: oj.Name, Type: oj.Type}
		for _, n := range oj.Inputs {
			v, err := lookup(n)
			if err != nil {
				return nil, err
			}
			op.Inputs = append(op.Inputs, v)
		}
		for _, n := range oj.Outputs {
			v, err := lookup(n)
			if err != nil {
				return nil, err
			}
			if v.Def != nil {
				return nil, fmt.Errorf("graph: value %q has more than one definer (%q and %q)", n, v.Def.Name, op.Name)
			}
			v.Def = op
			op.Outputs = append(op.Outputs, v)
		}
		ops = append(ops, op)
	}

	// Populate Uses from Inputs now that every Op exists.
	for _, op := range ops {
		for _, in := range op.Inputs {
			in.Uses = append(in.Uses, op)
		}
	}

	inputs := make([]*Value, 0, len(gj.Inputs))
	for _, n := range gj.Inputs {
		v, err := lookup(n)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, v)
	}

	outputs := make([]*Value, 0, len(gj.Outputs))
	for _, n := range gj.Outputs {
		v, err := lookup(n)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, v)
	}

	return New(ops, inputs, outputs)
}
