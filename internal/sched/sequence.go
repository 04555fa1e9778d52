package sched

import (
	"hmcos/internal/graph"
	"hmcos/internal/hier"
	"hmcos/internal/memstate"
)

// scheduleSequence runs seq's ops in fixed order, decrementing useCnt as
// values are consumed, crediting an overlap-eligible output against its
// input's storage when the operator trait allows it, and appending one
// memory-state step per op. useCnt is mutated in place; callers that need
// to retry or branch must clone it first.
func scheduleSequence(seq *hier.Sequence, useCnt map[*graph.Value]int, traits *graph.TraitRegistry) ([]*graph.Op, memstate.Vec) {
	ops := make([]*graph.Op, 0, len(seq.Ops))
	seg := memstate.New(0)

	for _, op := range seq.Ops {
		killed := make(map[*graph.Value]bool)
		for _, in := range op.Inputs {
			if in.Kind == graph.PARAM {
				continue
			}
			useCnt[in]--
			if useCnt[in] <= 0 {
				killed[in] = true
			}
		}

		overlapIdx := traits.Overlap(op)
		var overlapInput *graph.Value
		if overlapIdx != graph.OverlapFailed && overlapIdx < len(op.Inputs) {
			cand := op.Inputs[overlapIdx]
			if killed[cand] {
				overlapInput = cand
			}
		}

		var outSize int64
		for _, out := range op.Outputs {
			outSize += out.Size()
		}

		inc := outSize
		if overlapInput != nil {
			inc -= overlapInput.Size()
		}

		var dec int64
		for in := range killed {
			if in == overlapInput {
				continue
			}
			dec += in.Size()
		}

		seg.Append(inc, dec)

		for in := range killed {
			delete(useCnt, in)
		}
		for _, out := range op.Outputs {
			if out.Kind == graph.PARAM {
				continue
			}
			useCnt[out] = len(out.Uses)
		}

		ops = append(ops, op)
	}

	return ops, seg
}
