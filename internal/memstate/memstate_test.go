package memstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsAtInitial(t *testing.T) {
	v := New(10)
	assert.EqualValues(t, 10, v.Latest())
	assert.EqualValues(t, 10, v.Peak())
	assert.Equal(t, 0, v.Len())
}

func TestAppendTracksTransientAndStable(t *testing.T) {
	v := New(5)
	v.Append(3, 1) // transient = 5+3=8, stable = 8-1=7
	require.Equal(t, 1, v.Len())
	assert.EqualValues(t, 8, v.TransientPeakAt(0))
	assert.EqualValues(t, 7, v.StableAfterAt(0))
	assert.EqualValues(t, 7, v.Latest())
	assert.EqualValues(t, 8, v.Peak())
}

func TestExtendCommutesWithPeak(t *testing.T) {
	a := New(0)
	a.Append(2, 0) // transient 2, stable 2
	a.Append(0, 1) // transient 2, stable 1

	b := New(0)
	b.Append(5, 2) // transient 5, stable 3
	b.Append(1, 0) // transient 4, stable 4

	aLatest, aPeak := a.Latest(), a.Peak()
	bPeak := b.Peak()

	a.Extend(b)

	assert.EqualValues(t, aLatest+4, a.Latest())
	assert.EqualValues(t, max64(aPeak, aLatest+bPeak), a.Peak())
}

func TestSwapExchangesContents(t *testing.T) {
	a := New(1)
	a.Append(4, 0)
	b := New(9)

	a.Swap(&b)

	assert.EqualValues(t, 9, a.Latest())
	assert.EqualValues(t, 5, b.Latest())
}

func TestCloneIsIndependent(t *testing.T) {
	a := New(0)
	a.Append(3, 0)
	b := a.Clone()
	b.Append(10, 0)

	assert.EqualValues(t, 3, a.Latest())
	assert.EqualValues(t, 13, b.Latest())
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
