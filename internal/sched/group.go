package sched

import (
	"sort"
	"strings"

	"hmcos/internal/graph"
	"hmcos/internal/hier"
	"hmcos/internal/memstate"
)

// GroupContext is the memoization key for a Group's schedule across
// outer refinement iterations: the Group's identity plus, for each of
// its externally consumed values in canonical order, whether this
// invocation's remaining use-count after the Group hits zero. Equal
// contexts are guaranteed to produce equal schedules.
type GroupContext struct {
	Group *hier.Group
	Kill  string
}

func buildGroupContext(g *hier.Group, useCnt map[*graph.Value]int) GroupContext {
	vals := g.ConsumedOrder()
	bits := make([]byte, len(vals))
	for i, v := range vals {
		if useCnt[v]-g.Consumed[v] <= 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return GroupContext{Group: g, Kill: string(bits)}
}

// updateGroupUseCount applies a Group's net external effect on useCnt:
// every externally consumed value loses as many uses as the Group's
// members account for (erased once exhausted), and every externally
// produced value gains an entry counting its remaining external uses.
// This is the sole mechanism for deriving useCnt after scheduling a
// Group, on both the RPO and DP paths and on a memoized cache hit — no
// separate "assert the two paths agree" step is needed, since both
// paths consume the same Consumed/Produced multisets by construction.
func updateGroupUseCount(g *hier.Group, useCnt map[*graph.Value]int) {
	for v, n := range g.Consumed {
		useCnt[v] -= n
		if useCnt[v] <= 0 {
			delete(useCnt, v)
		}
	}
	for v, n := range g.Produced {
		useCnt[v] = n
	}
}

// scheduleGroup runs §4.4's fast path first (reverse postorder from the
// Group's exits, accepted if it provably cannot raise the outer peak)
// and falls back to the frontier DP otherwise. useCnt is read but never
// mutated — callers derive the post-Group use-count via
// updateGroupUseCount, independent of which path ran.
func scheduleGroup(g *hier.Group, useCnt map[*graph.Value]int, outerLatest, outerPeak int64, traits *graph.TraitRegistry) SchedResult {
	if rpo, ok := tryRpo(g, useCnt, outerLatest, outerPeak, traits); ok {
		return rpo
	}
	return scheduleGroupDP(g, useCnt, traits)
}

func tryRpo(g *hier.Group, useCnt map[*graph.Value]int, outerLatest, outerPeak int64, traits *graph.TraitRegistry) (SchedResult, bool) {
	order := rpoFromExits(g)

	uc := cloneUseCount(useCnt)
	var ops []*graph.Op
	msv := memstate.New(0)
	for _, s := range order {
		segOps, seg := scheduleSequence(s, uc, traits)
		ops = append(ops, segOps...)
		msv.Extend(seg)
	}

	if outerLatest+msv.Peak() <= outerPeak {
		return SchedResult{Ops: ops, MSV: msv}, true
	}
	return SchedResult{}, false
}

// rpoFromExits returns g's Sequences in reverse postorder, i.e. the
// postorder of a DFS over internal predecessor edges rooted at g's exits,
// which lists every Sequence after all of its predecessors. Sequences
// unreachable backward from any exit (degenerate groupings) are
// appended afterward in their original order so every member still
// appears exactly once.
func rpoFromExits(g *hier.Group) []*hier.Sequence {
	visited := make(map[*hier.Sequence]bool, len(g.Seqs))
	var post []*hier.Sequence

	var visit func(s *hier.Sequence)
	visit = func(s *hier.Sequence) {
		if visited[s] {
			return
		}
		visited[s] = true
		for _, p := range s.Preds() {
			if sp, ok := p.(*hier.Sequence); ok {
				visit(sp)
			}
		}
		post = append(post, s)
	}
	for _, e := range g.Exits {
		visit(e)
	}

	order := post
	for _, s := range g.Seqs {
		if !visited[s] {
			order = append(order, s)
		}
	}
	return order
}

// dpState is one frontier's best-known PartialSchedResult during the
// Group's frontier DP.
type dpState struct {
	frontier  []*hier.Sequence
	ops       []*graph.Op
	msv       memstate.Vec
	predCount map[*hier.Sequence]int
	useCnt    map[*graph.Value]int
}

func frontierKey(frontier []*hier.Sequence) string {
	sorted := append([]*hier.Sequence(nil), frontier...)
	sort.Slice(sorted, func(i, j int) bool { return seqName(sorted[i]) < seqName(sorted[j]) })
	var b strings.Builder
	for _, s := range sorted {
		b.WriteString(seqName(s))
		b.WriteByte(',')
	}
	return b.String()
}

// seqName gives a Sequence a stable sort/display key (its first op's
// name, unique within a graph) without exposing hier's internal vertex
// index outside the package.
func seqName(s *hier.Sequence) string {
	if len(s.Ops) == 0 {
		return ""
	}
	return s.Ops[0].Name
}

// opListLess reports whether a is lexicographically smaller than b by op
// name, the deterministic tie-break spec.md §9 calls for.
func opListLess(a, b []*graph.Op) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Name != b[i].Name {
			return a[i].Name < b[i].Name
		}
	}
	return len(a) < len(b)
}

// scheduleGroupDP enumerates the Group's zero-indegree frontiers,
// memoized by canonical frontier key, retaining only the
// smallest-Peak() result per frontier (ties broken by opListLess).
func scheduleGroupDP(g *hier.Group, useCnt map[*graph.Value]int, traits *graph.TraitRegistry) SchedResult {
	predCount := make(map[*hier.Sequence]int, len(g.Seqs))
	var initFrontier []*hier.Sequence
	for _, s := range g.Seqs {
		n := len(s.Preds())
		predCount[s] = n
		if n == 0 {
			initFrontier = append(initFrontier, s)
		}
	}

	memo := map[string]*dpState{
		frontierKey(initFrontier): {
			frontier:  initFrontier,
			ops:       nil,
			msv:       memstate.New(0),
			predCount: predCount,
			useCnt:    cloneUseCount(useCnt),
		},
	}

	for iter := 0; iter < len(g.Seqs); iter++ {
		next := make(map[string]*dpState)
		for key, st := range memo {
			if len(st.frontier) == 0 {
				next[key] = st
				continue
			}
			for _, v := range st.frontier {
				uc := cloneUseCount(st.useCnt)
				segOps, seg := scheduleSequence(v, uc, traits)

				newOps := append(cloneOps(st.ops), segOps...)
				newMSV := st.msv.Clone()
				newMSV.Extend(seg)

				newPred := make(map[*hier.Sequence]int, len(st.predCount))
				for k, c := range st.predCount {
					newPred[k] = c
				}
				var newFrontier []*hier.Sequence
				for _, f := range st.frontier {
					if f != v {
						newFrontier = append(newFrontier, f)
					}
				}
				for _, succ := range v.Succs() {
					sq, ok := succ.(*hier.Sequence)
					if !ok {
						continue
					}
					newPred[sq]--
					if newPred[sq] == 0 {
						newFrontier = append(newFrontier, sq)
					}
				}

				newKey := frontierKey(newFrontier)
				cand := &dpState{
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

	final, ok := memo[frontierKey(nil)]
	if !ok {
		panic("sched: group DP left a non-empty frontier after scheduling every Sequence")
	}
	return SchedResult{Ops: final.ops, MSV: final.msv}
}
