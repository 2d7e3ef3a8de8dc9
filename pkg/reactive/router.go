package reactive

import "slices"

// EventRouter dispatches events of type E to listeners of type L and, in the
// same firing, invalidates every computation that depends on it.
//
// The router knows nothing about concrete listener shapes. It is given two
// functions at construction: wrap adapts a plain ChangeListener into an L,
// and dispatch delivers an event to one L. Dependency edges are ordinary
// listeners added through AddReactiveListener, so both audiences share one
// dispatch path.
//
// The router is itself a ReactiveValue: computations that call RegisterRead
// while running get an edge to it.
type EventRouter[L any, E ChangeEvent] struct {
	id      uint64
	name    string
	tracker *Tracker

	wrap     func(ChangeListener) L
	dispatch func(L, E)

	// registrations is the live listener set in registration order.
	// FireEvent iterates a copy, so it may be mutated during dispatch.
	registrations []*registration[L]
}

// registration is one added listener. reactive is true for listeners added
// through AddReactiveListener; they are notified after typed listeners.
type registration[L any] struct {
	listener L
	reactive bool
}

// RouterOption configures an EventRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	name string
}

// WithRouterName sets the name used in logs, metrics and traces.
// Default: "router".
func WithRouterName(name string) RouterOption {
	return func(o *routerOptions) {
		o.name = name
	}
}

// NewEventRouter creates a router bound to tracker. wrap and dispatch must
// not be nil.
func NewEventRouter[L any, E ChangeEvent](
	tracker *Tracker,
	wrap func(ChangeListener) L,
	dispatch func(L, E),
	opts ...RouterOption,
) *EventRouter[L, E] {
	if tracker == nil {
		panic("reactive: NewEventRouter requires a tracker")
	}
	if wrap == nil || dispatch == nil {
		panic("reactive: NewEventRouter requires wrap and dispatch functions")
	}

	o := routerOptions{name: "router"}
	for _, opt := range opts {
		opt(&o)
	}

	return &EventRouter[L, E]{
		id:       nextID(),
		name:     o.name,
		tracker:  tracker,
		wrap:     wrap,
		dispatch: dispatch,
	}
}

// ID returns the unique identifier for this router.
func (r *EventRouter[L, E]) ID() uint64 {
	return r.id
}

// Name returns the router name.
func (r *EventRouter[L, E]) Name() string {
	return r.name
}

// Tracker returns the tracker the router reports reads to.
func (r *EventRouter[L, E]) Tracker() *Tracker {
	return r.tracker
}

// ListenerCount returns the number of live registrations, including
// dependency edges.
func (r *EventRouter[L, E]) ListenerCount() int {
	return len(r.registrations)
}

// AddListener appends l to the listener set. The returned Remover detaches
// exactly this registration; adding the same listener twice yields two
// registrations.
func (r *EventRouter[L, E]) AddListener(l L) Remover {
	return r.add(l, false)
}

// AddReactiveListener adapts l with the router's wrap function and adds it.
// Reactive listeners are notified after all typed listeners of the same
// firing.
func (r *EventRouter[L, E]) AddReactiveListener(l ChangeListener) Remover {
	return r.add(r.wrap(l), true)
}

// AddReactiveChangeListener implements ReactiveValue.
func (r *EventRouter[L, E]) AddReactiveChangeListener(l ChangeListener) Remover {
	return r.AddReactiveListener(l)
}

// RegisterRead records a dependency of the current computation, if any, on
// this router.
func (r *EventRouter[L, E]) RegisterRead() {
	r.tracker.RegisterRead(r)
}

// FireEvent delivers e to every listener registered when the call begins:
// typed listeners first, then reactive listeners, each group in registration
// order. Listeners added or removed during the pass only see the change from
// the next FireEvent.
//
// A panicking listener aborts the rest of the pass and the panic propagates
// to the caller. The listener set is left intact.
func (r *EventRouter[L, E]) FireEvent(e E) {
	snapshot := slices.Clone(r.registrations)

	obs := r.tracker.observer
	obs.DispatchStarted(r.name, len(snapshot))

	dispatched := 0
	completed := false
	defer func() {
		if !completed {
			r.tracker.logger.Error("reactive: listener panicked during dispatch",
				"router", r.name, "id", r.id,
				"dispatched", dispatched, "listeners", len(snapshot))
		}
		obs.DispatchFinished(r.name, dispatched, !completed)
	}()

	for _, reg := range snapshot {
		if !reg.reactive {
			r.dispatch(reg.listener, e)
			dispatched++
		}
	}
	for _, reg := range snapshot {
		if reg.reactive {
			r.dispatch(reg.listener, e)
			dispatched++
		}
	}
	completed = true
}

func (r *EventRouter[L, E]) add(l L, reactive bool) Remover {
	reg := &registration[L]{listener: l, reactive: reactive}
	r.registrations = append(r.registrations, reg)
	return newRemover(func() {
		r.remove(reg)
	})
}

func (r *EventRouter[L, E]) remove(reg *registration[L]) {
	if i := slices.Index(r.registrations, reg); i >= 0 {
		r.registrations = slices.Delete(r.registrations, i, i+1)
	}
}

// Ensure EventRouter implements ReactiveValue
var _ ReactiveValue = (*EventRouter[ChangeListener, ChangeEvent])(nil)
