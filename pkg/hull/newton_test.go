package hull

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootSearchConverges(t *testing.T) {
	s := newRootSearch(30)
	require.Equal(t, searchConverging, s.observe(1, 1e-9))
	require.Equal(t, searchConverging, s.observe(0.1, 1e-9))
	require.Equal(t, searchConverged, s.observe(1e-10, 1e-9))
	// Terminal states stick.
	require.Equal(t, searchConverged, s.observe(5, 1e-9))
	require.Equal(t, searchConverged, s.clip(1))
}

func TestRootSearchAbandonsWhenStalled(t *testing.T) {
	s := newRootSearch(30)
	s.observe(1, 1e-9)
	// The first two steps may grow the residual.
	require.Equal(t, searchConverging, s.observe(2, 1e-9))
	require.Equal(t, searchConverging, s.observe(1.5, 1e-9))
	require.Equal(t, searchAbandoned, s.observe(1.5, 1e-9))
	require.True(t, s.state.done())
}

func TestRootSearchClipping(t *testing.T) {
	tests := []struct {
		name string
		dirs []int
		want searchState
	}{
		{"clipped once", []int{1}, searchClippedOnce},
		{"same end twice", []int{-1, -1}, searchAbandoned},
		{"alternating ends", []int{-1, 1}, searchClippedOnce},
		{"free step resets", []int{1, 0, 1}, searchClippedOnce},
		{"free steps", []int{0, 0}, searchConverging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newRootSearch(30)
			var got searchState
			for _, d := range tt.dirs {
				got = s.clip(d)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRootSearchIterationBudget(t *testing.T) {
	s := newRootSearch(5)
	r := 1.0
	var st searchState
	for i := 0; i < 10 && !st.done(); i++ {
		r /= 2
		st = s.observe(r, 1e-9)
	}
	require.Equal(t, searchAbandoned, st)
	require.Equal(t, 6, s.iter)
}

func TestRootSearchSettle(t *testing.T) {
	s := newRootSearch(30)
	s.observe(1, 1e-9)
	require.Equal(t, searchConverged, s.settle())
	require.Equal(t, "converged", s.state.String())
}
