// Package memstate implements the memory-state vector: a running record
// of working-set size after each scheduled op.
package memstate

// step is one scheduled op's contribution: the transient peak reached
// while its outputs briefly coexist with its about-to-die inputs, and
// the stable size once the dead inputs are reclaimed.
type step struct {
	transientPeak int64
	stableAfter   int64
}

// Vec is the memory-state vector. The zero value is a vector whose
// initial stable size is 0; use New to start from a nonzero size.
type Vec struct {
	initial int64
	steps   []step
}

// New returns a memory-state vector whose stable size starts at
// initialSize (the sum of graph-input sizes for the top-level vector, 0
// for intermediate ones).
func New(initialSize int64) Vec {
	return Vec{initial: initialSize}
}

// Append pushes one more scheduled step: the new transient peak is the
// previous stable size plus inc, and the new stable size is that peak
// minus dec.
func (v *Vec) Append(inc, dec int64) {
	prev := v.Latest()
	peak := prev + inc
	v.steps = append(v.steps, step{transientPeak: peak, stableAfter: peak - dec})
}

// Extend appends another vector's steps after rebasing them onto this
// vector's current stable size. Concatenation commutes with peaks:
// a.Extend(b) afterwards satisfies a.Peak() == max(oldPeak, oldLatest + b's own peak-above-its-initial-zero).
func (v *Vec) Extend(other Vec) {
	base := v.Latest()
	for _, s := range other.steps {
		v.steps = append(v.steps, step{
			transientPeak: base + (s.transientPeak - other.initial),
			stableAfter:   base + (s.stableAfter - other.initial),
		})
	}
}

// Swap exchanges the contents of v and other in place.
func (v *Vec) Swap(other *Vec) {
	*v, *other = *other, *v
}

// Clone returns an independent copy of v.
func (v Vec) Clone() Vec {
	steps := make([]step, len(v.steps))
	copy(steps, v.steps)
	return Vec{initial: v.initial, steps: steps}
}

// Latest returns the last stable size, or the initial size if no steps
// have been appended.
func (v Vec) Latest() int64 {
	if len(v.steps) == 0 {
		return v.initial
	}
	return v.steps[len(v.steps)-1].stableAfter
}

// Peak returns the maximum transient peak seen, or the initial size if no
// steps have been appended.
func (v Vec) Peak() int64 {
	peak := v.initial
	for _, s := range v.steps {
		if s.transientPeak > peak {
			peak = s.transientPeak
		}
	}
	return peak
}

// Len returns the number of scheduled steps recorded.
func (v Vec) Len() int { return len(v.steps) }

// TransientPeakAt returns the transient peak recorded at step i.
func (v Vec) TransientPeakAt(i int) int64 { return v.steps[i].transientPeak }

// StableAfterAt returns the stable size recorded after step i.
func (v Vec) StableAfterAt(i int) int64 { return v.steps[i].stableAfter }
