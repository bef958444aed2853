package hull

// searchState is the state of one Newton root search.
type searchState int

const (
	searchConverging searchState = iota
	searchClippedOnce
	searchAbandoned
	searchConverged
)

// String implements fmt.Stringer.
func (s searchState) String() string {
	switch s {
	case searchConverging:
		return "converging"
	case searchClippedOnce:
		return "clipped-once"
	case searchAbandoned:
		return "abandoned"
	case searchConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// done reports whether the search has stopped.
func (s searchState) done() bool {
	return s == searchAbandoned || s == searchConverged
}

// rootSearch tracks a Newton iteration. It converges once the residual
// drops to the tolerance, and is abandoned when the residual stops
// shrinking after the first two steps, when the step is clipped to the
// same interval end twice in a row, or when the iteration budget runs out.
type rootSearch struct {
	state   searchState
	maxIter int
	iter    int
	clipDir int
	last    float64
}

func newRootSearch(maxIter int) *rootSearch {
	return &rootSearch{maxIter: maxIter}
}

// observe records the residual at the current iterate.
func (s *rootSearch) observe(residual, tol float64) searchState {
	if s.state.done() {
		return s.state
	}
	s.iter++
	switch {
	case residual <= tol:
		s.state = searchConverged
	case s.iter > 2 && residual >= s.last:
		s.state = searchAbandoned
	case s.iter > s.maxIter:
		s.state = searchAbandoned
	}
	s.last = residual
	return s.state
}

// clip records whether the last step was clipped to the low (-1) or high
// (+1) end of the interval, or not clipped (0).
func (s *rootSearch) clip(dir int) searchState {
	if s.state.done() {
		return s.state
	}
	switch {
	case dir == 0:
		s.state = searchConverging
	case s.state == searchClippedOnce && s.clipDir == dir:
		s.state = searchAbandoned
	default:
		s.state = searchClippedOnce
		s.clipDir = dir
	}
	return s.state
}

// settle marks the search converged because the step became negligible.
func (s *rootSearch) settle() searchState {
	if !s.state.done() {
		s.state = searchConverged
	}
	return s.state
}
