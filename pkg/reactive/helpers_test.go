package reactive

// testEvent is a minimal ChangeEvent for router tests.
type testEvent struct {
	source  ReactiveValue
	payload string
}

func (e *testEvent) Source() ReactiveValue {
	return e.source
}

// testListener is the typed listener shape used by test routers.
type testListener func(*testEvent)

func newTestRouter(t *Tracker) *EventRouter[testListener, *testEvent] {
	return NewEventRouter(t,
		func(l ChangeListener) testListener {
			return func(e *testEvent) { l(e) }
		},
		func(l testListener, e *testEvent) { l(e) },
		WithRouterName("test"),
	)
}

// fire fires a payload-only event on r.
func fire(r *EventRouter[testListener, *testEvent], payload string) {
	r.FireEvent(&testEvent{source: r, payload: payload})
}

// recordingObserver counts observer callbacks.
type recordingObserver struct {
	started       int
	finished      int
	panickedRuns  int
	invalidated   int
	dispatches    int
	dispatched    int
	panickedFires int
	routers       []string
}

func (o *recordingObserver) ComputationStarted(*Computation) {
	o.started++
}

func (o *recordingObserver) ComputationFinished(_ *Computation, panicked bool) {
	o.finished++
	if panicked {
		o.panickedRuns++
	}
}

func (o *recordingObserver) Invalidated(*Computation) {
	o.invalidated++
}

func (o *recordingObserver) DispatchStarted(router string, _ int) {
	o.dispatches++
	o.routers = append(o.routers, router)
}

func (o *recordingObserver) DispatchFinished(_ string, dispatched int, panicked bool) {
	o.dispatched += dispatched
	if panicked {
		o.panickedFires++
	}
}
