// Package sched schedules dataflow graphs for minimal peak live-value
// size: a sequence scheduler for linear chains, a group scheduler that
// tries reverse postorder before falling back to a frontier DP, and a
// hierarchical scheduler with an outer ungroup/reschedule refinement
// loop.
package sched

import (
	"fmt"
	"strings"

	"hmcos/internal/graph"
	"hmcos/internal/memstate"
)

// SchedResult is a finished schedule: the ops in execution order and the
// memory-state vector recording the size deltas that order produces.
type SchedResult struct {
	Ops []*graph.Op
	MSV memstate.Vec
}

// String renders a per-op memory-state table, one row per scheduled op.
func (r SchedResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schedule: %d ops, peak=%d\n", len(r.Ops), r.MSV.Peak())
	for i, op := range r.Ops {
		fmt.Fprintf(&b, "  %3d  %-24s transient=%d stable=%d\n",
			i, op.Name, r.MSV.TransientPeakAt(i), r.MSV.StableAfterAt(i))
	}
	return b.String()
}

func cloneOps(ops []*graph.Op) []*graph.Op {
	out := make([]*graph.Op, len(ops))
	copy(out, ops)
	return out
}

func cloneUseCount(uc map[*graph.Value]int) map[*graph.Value]int {
	out := make(map[*graph.Value]int, len(uc))
	for k, v := range uc {
		out[k] = v
	}
	return out
}
