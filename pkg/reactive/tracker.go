package reactive

import "log/slog"

// Tracker holds the stack of running computations for one logical thread.
// Reads performed while a computation is on top of the stack become
// dependency edges of that computation.
//
// A Tracker replaces ambient per-goroutine state: every reactive value and
// computation is bound to the Tracker it was created with.
type Tracker struct {
	// stack holds the active computations, innermost last. A nil entry marks
	// an untracked scope.
	stack []*Computation

	logger   *slog.Logger
	observer Observer
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used for debug output.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithObserver sets the observer notified about runs, invalidations and
// dispatch passes.
func WithObserver(o Observer) TrackerOption {
	return func(t *Tracker) {
		t.observer = o
	}
}

// NewTracker creates a Tracker with an empty activation stack.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}
	return t
}

// Logger returns the tracker's logger.
func (t *Tracker) Logger() *slog.Logger {
	return t.logger
}

// Current returns the computation that reads are attributed to, or nil.
func (t *Tracker) Current() *Computation {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// Depth returns the number of active scopes, tracked or not.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// WithActive runs fn with c as the current computation and restores the
// previous one afterwards, including when fn panics. A nil c runs fn
// untracked. Calls nest.
func (t *Tracker) WithActive(c *Computation, fn func()) {
	t.stack = append(t.stack, c)
	depth := len(t.stack)
	defer func() {
		t.stack[depth-1] = nil
		t.stack = t.stack[:depth-1]
	}()
	fn()
}

// Untracked runs fn without attributing reads to any computation.
//
// Example:
//
//	tracker.Untracked(func() {
//	    // Does not make the running computation depend on list
//	    n := list.Length()
//	})
func (t *Tracker) Untracked(fn func()) {
	t.WithActive(nil, fn)
}

// RegisterRead records that the current computation, if any, read v.
// Without an active computation this is a no-op. Repeated reads of the same
// value during one run create a single edge.
func (t *Tracker) RegisterRead(v ReactiveValue) {
	if v == nil {
		return
	}
	if c := t.Current(); c != nil {
		c.addDependency(v)
	}
}
