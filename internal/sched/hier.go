package sched

import (
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"hmcos/internal/graph"
	"hmcos/internal/hier"
	"hmcos/internal/lifetime"
	"hmcos/internal/memstate"
)

// HierScheduler runs the frontier DP over a HierGraph's top-level
// vertices (Sequences and Groups) and the outer ungroup/reschedule
// refinement loop described in spec.md §4.5. A GroupContext memo
// persists across outer iterations: a Group re-scheduled under an
// identical context is a cache hit.
type HierScheduler struct {
	Graph  *graph.Graph
	Hier   *hier.HierGraph
	Traits *graph.TraitRegistry

	groupMemo map[GroupContext]SchedResult
}

// NewHierScheduler builds a scheduler over g's already-constructed
// hierarchical view h, using traits to resolve overlap hints.
func NewHierScheduler(g *graph.Graph, h *hier.HierGraph, traits *graph.TraitRegistry) *HierScheduler {
	return &HierScheduler{
		Graph:     g,
		Hier:      h,
		Traits:    traits,
		groupMemo: make(map[GroupContext]SchedResult),
	}
}

func initialUseCount(g *graph.Graph) map[*graph.Value]int {
	uc := make(map[*graph.Value]int)
	for _, v := range g.Inputs {
		if v.Kind == graph.PARAM {
			continue
		}
		uc[v] = len(v.Uses)
	}
	return uc
}

func initialSize(g *graph.Graph) int64 {
	var size int64
	for _, v := range g.Inputs {
		if v.Kind != graph.PARAM {
			size += v.Size()
		}
	}
	return size
}

// hierDPState mirrors dpState but over the mixed Sequence/Group
// top-level vertex set.
type hierDPState struct {
	frontier  []hier.Vertex
	ops       []*graph.Op
	msv       memstate.Vec
	predCount map[hier.Vertex]int
	useCnt    map[*graph.Value]int
}

func vertName(v hier.Vertex) string {
	switch t := v.(type) {
	case *hier.Sequence:
		return "S:" + seqName(t)
	case *hier.Group:
		names := make([]string, len(t.Seqs))
		for i, s := range t.Seqs {
			names[i] = seqName(s)
		}
		sort.Strings(names)
		return "G:" + strings.Join(names, "+")
	default:
		return ""
	}
}

func vertFrontierKey(frontier []hier.Vertex) string {
	sorted := append([]hier.Vertex(nil), frontier...)
	sort.Slice(sorted, func(i, j int) bool { return vertName(sorted[i]) < vertName(sorted[j]) })
	var b strings.Builder
	for _, v := range sorted {
		b.WriteString(vertName(v))
		b.WriteByte(',')
	}
	return b.String()
}

// schedule runs one inner DP pass over the current top-level vertices
// and returns the optimal schedule for the HierGraph's present
// structure (spec.md §4.5 "Inner schedule").
func (hs *HierScheduler) schedule() SchedResult {
	verts := hs.Hier.TopVerts()
	top := make(map[hier.Vertex]bool, len(verts))
	for _, v := range verts {
		top[v] = true
	}

	predCount := make(map[hier.Vertex]int, len(verts))
	var initFrontier []hier.Vertex
	for _, v := range verts {
		n := 0
		for _, p := range v.Preds() {
			if top[p] {
				n++
			}
		}
		predCount[v] = n
		if n == 0 {
			initFrontier = append(initFrontier, v)
		}
	}

	memo := map[string]*hierDPState{
		vertFrontierKey(initFrontier): {
			frontier:  initFrontier,
			msv:       memstate.New(initialSize(hs.Graph)),
			predCount: predCount,
			useCnt:    initialUseCount(hs.Graph),
		},
	}

	for iter := 0; iter < len(verts); iter++ {
		next := make(map[string]*hierDPState)
		for key, st := range memo {
			if len(st.frontier) == 0 {
				next[key] = st
				continue
			}
			for _, v := range st.frontier {
				uc := cloneUseCount(st.useCnt)
				var segOps []*graph.Op
				var seg memstate.Vec

				switch t := v.(type) {
				case *hier.Sequence:
					segOps, seg = scheduleSequence(t, uc, hs.Traits)
				case *hier.Group:
					ctx := buildGroupContext(t, uc)
					result, hit := hs.groupMemo[ctx]
					if !hit {
						result = scheduleGroup(t, uc, st.msv.Latest(), st.msv.Peak(), hs.Traits)
						hs.groupMemo[ctx] = result
					}
					updateGroupUseCount(t, uc)
					segOps, seg = result.Ops, result.MSV
				default:
					panic("sched: unknown top-level vertex kind")
				}

				newOps := append(cloneOps(st.ops), segOps...)
				newMSV := st.msv.Clone()
				newMSV.Extend(seg)

				newPred := make(map[hier.Vertex]int, len(st.predCount))
				for k, c := range st.predCount {
					newPred[k] = c
				}
				var newFrontier []hier.Vertex
				for _, f := range st.frontier {
					if f != v {
						newFrontier = append(newFrontier, f)
					}
				}
				for _, succ := range v.Succs() {
					if !top[succ] {
						continue
					}
					newPred[succ]--
					if newPred[succ] == 0 {
						newFrontier = append(newFrontier, succ)
					}
				}

				newKey := vertFrontierKey(newFrontier)
				cand := &hierDPState{
					frontier:  newFrontier,
					ops:       newOps,
					msv:       newMSV,
					predCount: newPred,
					useCnt:    uc,
				}
				existing, ok := next[newKey]
				if !ok {
					next[newKey] = cand
					continue
				}
				if cand.msv.Peak() < existing.msv.Peak() ||
					(cand.msv.Peak() == existing.msv.Peak() && opListLess(cand.ops, existing.ops)) {
					next[newKey] = cand
				}
			}
		}
		memo = next
	}

	final, ok := memo[vertFrontierKey(nil)]
	if !ok {
		panic("sched: hierarchical DP left a non-empty frontier after scheduling every top-level vertex")
	}
	return SchedResult{Ops: final.ops, MSV: final.msv}
}

func equalValueSets(a, b []*graph.Value) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[*graph.Value]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

// refine ungroups every Group containing a peak value's defining
// Sequence, then greedily ungroups any of that Sequence's direct Group
// successors, reporting whether anything changed.
func (hs *HierScheduler) refine(peakValues []*graph.Value) bool {
	changed := false
	seen := make(map[*hier.Sequence]bool)
	for _, v := range peakValues {
		if v.Def == nil {
			continue
		}
		seq := hs.Hier.OpToSeq[v.Def]
		if seq == nil || seen[seq] {
			continue
		}
		seen[seq] = true

		if seq.Group != nil {
			hier.Ungroup(seq.Group)
			changed = true
		}
		if hier.TryUngroupSucc(seq) {
			changed = true
		}
	}
	return changed
}

// Run executes the outer refinement loop: schedule, measure the peak,
// ungroup the regions responsible for it, and repeat until a fixed
// point (spec.md §4.5). It terminates in at most |Groups|+1 iterations.
func (hs *HierScheduler) Run() SchedResult {
	var lastSched SchedResult
	var lastPeak int64
	var lastPeakValues []*graph.Value
	hasLast := false

	maxIters := len(hs.Hier.Groups) + 1
	for iter := 0; iter < maxIters; iter++ {
		sched := hs.schedule()
		stat := lifetime.Compute(sched.Ops, hs.Graph)
		peak, peakValues := stat.Peak()
		changed := hs.refine(peakValues)

		klog.V(2).Infof("hier schedule iteration %d: peak=%d changed=%v", iter, peak, changed)

		if hasLast && peak == lastPeak && equalValueSets(peakValues, lastPeakValues) && !changed {
			return lastSched
		}
		lastSched, lastPeak, lastPeakValues = sched, peak, peakValues
		hasLast = true
	}
	return lastSched
}
