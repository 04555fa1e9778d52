// Package lifetime computes, for a finished schedule, each value's
// [birth, death) interval in schedule positions and derives the live
// set and its total size at every position — the basis for locating the
// memory peak and the values responsible for it.
package lifetime

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"hmcos/internal/graph"
)

// Infinity marks a value whose death is past the end of the schedule
// because a graph output still needs it.
const Infinity = math.MaxInt32

// Interval is a value's half-open [Birth, Death) liveness window in
// schedule positions. Birth is -1 for graph inputs.
type Interval struct {
	Birth int
	Death int
}

// Stat is the lifetime statistic of a whole schedule: every tracked
// value's interval, plus the derived per-position live size.
type Stat struct {
	sched     []*graph.Op
	intervals map[*graph.Value]Interval
	// sizeAt[i] is the total size of non-PARAM values alive at position i.
	sizeAt []int64
	// aliveAt[i] lists the non-PARAM values alive at position i.
	aliveAt [][]*graph.Value
}

// Compute builds the lifetime statistic for sched, a schedule of g's ops,
// given g's graph-input values.
func Compute(sched []*graph.Op, g *graph.Graph) Stat {
	pos := make(map[*graph.Op]int, len(sched))
	for i, op := range sched {
		pos[op] = i
	}

	intervals := make(map[*graph.Value]Interval)

	isGraphOutput := make(map[*graph.Value]bool, len(g.Outputs))
	for _, out := range g.Outputs {
		isGraphOutput[out] = true
	}

	trackValue := func(v *graph.Value, birth int) {
		if v.Kind == graph.PARAM {
			return
		}
		death := birth + 1
		for _, use := range v.Uses {
			if p, ok := pos[use]; ok && p+1 > death {
				death = p + 1
			}
		}
		if isGraphOutput[v] {
			death = Infinity
		}
		intervals[v] = Interval{Birth: birth, Death: death}
	}

	for _, v := range g.Inputs {
		trackValue(v, -1)
	}
	for i, op := range sched {
		for _, v := range op.Outputs {
			trackValue(v, i)
		}
	}

	n := len(sched)
	sizeAt := make([]int64, n)
	aliveAt := make([][]*graph.Value, n)
	for v, iv := range intervals {
		start := iv.Birth
		if start < 0 {
			start = 0
		}
		end := iv.Death
		if end > n {
			end = n
		}
		for i := start; i < end; i++ {
			sizeAt[i] += v.Size()
			aliveAt[i] = append(aliveAt[i], v)
		}
	}

	return Stat{sched: sched, intervals: intervals, sizeAt: sizeAt, aliveAt: aliveAt}
}

// Interval returns the lifetime interval of v, and whether v was tracked
// (PARAM values are not).
func (s Stat) Interval(v *graph.Value) (Interval, bool) {
	iv, ok := s.intervals[v]
	return iv, ok
}

// SizeAt returns the total live-set size at schedule position i.
func (s Stat) SizeAt(i int) int64 { return s.sizeAt[i] }

// AliveAt returns the values alive at schedule position i.
func (s Stat) AliveAt(i int) []*graph.Value { return s.aliveAt[i] }

// Peak returns the maximum live-set size over all positions, and the set
// of values alive at any position achieving it.
func (s Stat) Peak() (int64, []*graph.Value) {
	var peak int64
	for _, sz := range s.sizeAt {
		if sz > peak {
			peak = sz
		}
	}
	seen := make(map[*graph.Value]bool)
	var values []*graph.Value
	for i, sz := range s.sizeAt {
		if sz != peak {
			continue
		}
		for _, v := range s.aliveAt[i] {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })
	return peak, values
}

// Summary returns the mean and variance of the live-set size across
// schedule positions, a coarse diagnostic of how "peaky" a schedule is
// beyond its single peak value.
func (s Stat) Summary() (mean, variance float64) {
	if len(s.sizeAt) == 0 {
		return 0, 0
	}
	sizes := make([]float64, len(s.sizeAt))
	for i, sz := range s.sizeAt {
		sizes[i] = float64(sz)
	}
	return stat.MeanVariance(sizes, nil)
}

// EstimatePeak computes the peak live-set size of sched directly, without
// retaining the full per-position breakdown. It must agree with
// memstate.Vec's Peak() for the same schedule (tested as an invariant).
func EstimatePeak(sched []*graph.Op, g *graph.Graph) int64 {
	peak, _ := Compute(sched, g).Peak()
	return peak
}
