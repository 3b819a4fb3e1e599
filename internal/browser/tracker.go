package browser

// State of a pagination strategy.
type State int

const (
	Loading State = iota
	Stable
	Exhausted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Stable:
		return "stable"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Tracker decides when a pagination strategy has run out of content.
// It moves to Exhausted after stableRounds consecutive observations without
// new content, or after maxAttempts observations in total. Exhausted is terminal.
type Tracker struct {
	state        State
	stableRounds int
	maxAttempts  int
	unchanged    int
	attempts     int
}

// NewTracker returns a tracker in the Loading state. A maxAttempts of zero
// means no attempt limit.
func NewTracker(stableRounds, maxAttempts int) *Tracker {
	if stableRounds < 1 {
		stableRounds = 1
	}
	return &Tracker{stableRounds: stableRounds, maxAttempts: maxAttempts}
}

// Observe records one attempt and whether it produced new content.
func (t *Tracker) Observe(grew bool) State {
	if t.state == Exhausted {
		return t.state
	}

	t.attempts++
	if grew {
		t.unchanged = 0
		t.state = Loading
	} else {
		t.unchanged++
		t.state = Stable
		if t.unchanged >= t.stableRounds {
			t.state = Exhausted
		}
	}

	if t.maxAttempts > 0 && t.attempts >= t.maxAttempts {
		t.state = Exhausted
	}
	return t.state
}

// Exhaust ends pagination, e.g. when the control disappeared.
func (t *Tracker) Exhaust() {
	t.state = Exhausted
}

func (t *Tracker) State() State  { return t.state }
func (t *Tracker) Done() bool    { return t.state == Exhausted }
func (t *Tracker) Attempts() int { return t.attempts }
