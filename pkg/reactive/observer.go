package reactive

// Observer receives notifications about reactive activity on a Tracker.
// Observers are called synchronously on the tracker's goroutine and must not
// mutate reactive state.
type Observer interface {
	// ComputationStarted is called before a computation body runs.
	ComputationStarted(c *Computation)

	// ComputationFinished is called after the body returns or panics.
	ComputationFinished(c *Computation, panicked bool)

	// Invalidated is called on each clean-to-dirty transition.
	Invalidated(c *Computation)

	// DispatchStarted is called when a router begins firing an event to a
	// snapshot of the given number of listeners.
	DispatchStarted(router string, listeners int)

	// DispatchFinished is called when the pass ends. dispatched counts the
	// listeners that returned normally.
	DispatchFinished(router string, dispatched int, panicked bool)
}

type nopObserver struct{}

func (nopObserver) ComputationStarted(*Computation)        {}
func (nopObserver) ComputationFinished(*Computation, bool) {}
func (nopObserver) Invalidated(*Computation)               {}
func (nopObserver) DispatchStarted(string, int)            {}
func (nopObserver) DispatchFinished(string, int, bool)     {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

// Observers combines observers, skipping nil entries.
func Observers(obs ...Observer) Observer {
	m := make(MultiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nopObserver{}
	case 1:
		return m[0]
	}
	return m
}

func (m MultiObserver) ComputationStarted(c *Computation) {
	for _, o := range m {
		o.ComputationStarted(c)
	}
}

func (m MultiObserver) ComputationFinished(c *Computation, panicked bool) {
	for _, o := range m {
		o.ComputationFinished(c, panicked)
	}
}

func (m MultiObserver) Invalidated(c *Computation) {
	for _, o := range m {
		o.Invalidated(c)
	}
}

func (m MultiObserver) DispatchStarted(router string, listeners int) {
	for _, o := range m {
		o.DispatchStarted(router, listeners)
	}
}

func (m MultiObserver) DispatchFinished(router string, dispatched int, panicked bool) {
	for _, o := range m {
		o.DispatchFinished(router, dispatched, panicked)
	}
}
