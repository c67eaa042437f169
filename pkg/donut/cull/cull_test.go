package cull

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/donut/pkg/donut"
)

func slicesOf(values ...float64) []donut.Slice {
	out := make([]donut.Slice, len(values))
	for i, v := range values {
		out[i] = donut.Slice{ID: donut.Identity(rune('a' + i)), Value: v}
	}
	return out
}

func TestThreshold(t *testing.T) {
	got := Threshold(donut.Viewport{Width: 10, Height: 10}, 100)
	assert.InDelta(t, 9.549, got, 1e-3)

	// the shorter side wins
	assert.Equal(t, got, Threshold(donut.Viewport{Width: 10, Height: 400}, 100))

	assert.Equal(t, 0.0, Threshold(donut.Viewport{}, 100))
	assert.Equal(t, 0.0, Threshold(donut.Viewport{Width: -4, Height: 10}, 100))
	assert.Equal(t, 0.0, Threshold(donut.Viewport{Width: 10, Height: 10}, 0))
}

func TestFilter(t *testing.T) {
	in := slicesOf(100, 9.5, 9.6, 0, 50)

	res := Filter(in, donut.Viewport{Width: 10, Height: 10}, 100)
	assert.True(t, res.Culled)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, []donut.Identity{"a", "c", "e"}, donut.Identities(res.Slices))
	assert.Len(t, in, 5, "input untouched")

	w, ok := res.Warning()
	assert.True(t, ok)
	assert.Equal(t, donut.WarningCulled, w.Code)
}

func TestFilterNothingCulled(t *testing.T) {
	res := Filter(slicesOf(10, 20), donut.Viewport{Width: 800, Height: 600}, 20)
	assert.False(t, res.Culled)
	assert.Len(t, res.Slices, 2)

	_, ok := res.Warning()
	assert.False(t, ok)
}

func TestFilterZeroViewportKeepsEverything(t *testing.T) {
	res := Filter(slicesOf(0, 1), donut.Viewport{}, 1)
	assert.False(t, res.Culled)
	assert.Len(t, res.Slices, 2)
}

func TestFilterMonotonicInRadius(t *testing.T) {
	in := slicesOf(100, 50, 20, 10, 5, 2, 1, 0.5, 0.1)
	prev := len(in) + 1
	for size := 2.0; size <= 2048; size *= 1.5 {
		res := Filter(in, donut.Viewport{Width: size, Height: size}, 100)
		assert.LessOrEqual(t, res.Dropped, prev, "size %v", size)
		prev = res.Dropped
	}
}
