package reactive

import "slices"

// State describes where a Computation is in its lifecycle.
type State uint8

const (
	// StateDirty means the computation has no live edges and is waiting for
	// its owner to run it. New computations start dirty.
	StateDirty State = iota

	// StateRunning means the body is executing and edges are being collected.
	StateRunning

	// StateClean means the edges reflect the last completed run.
	StateClean

	// StateDisposed means the computation was torn down by its owner.
	StateDisposed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateRunning:
		return "running"
	case StateClean:
		return "clean"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Computation is a re-runnable unit of derived logic. Each run rebuilds its
// dependency edges from the reactive values it reads. When any of those
// values changes the computation becomes dirty; deciding when to run it
// again is up to its owner, usually from an OnInvalidate hook.
type Computation struct {
	id      uint64
	name    string
	tracker *Tracker

	// edges maps each value read during the current run to the remover of
	// the change listener that invalidates this computation.
	edges map[ReactiveValue]Remover

	// hooks are owner callbacks fired on each clean-to-dirty transition.
	hooks []*invalidateHook

	dirty    bool
	running  bool
	disposed bool
	runs     int
}

type invalidateHook struct {
	fn func()
}

// NewComputation creates a dirty computation bound to t.
// The name is only used in logs, metrics and traces.
func (t *Tracker) NewComputation(name string) *Computation {
	return &Computation{
		id:      nextID(),
		name:    name,
		tracker: t,
		dirty:   true,
	}
}

// ID returns the unique identifier for this computation.
func (c *Computation) ID() uint64 {
	return c.id
}

// Name returns the name given at creation.
func (c *Computation) Name() string {
	return c.name
}

// Runs returns how many times the body has been started.
func (c *Computation) Runs() int {
	return c.runs
}

// State returns the current lifecycle state.
func (c *Computation) State() State {
	switch {
	case c.disposed:
		return StateDisposed
	case c.dirty:
		return StateDirty
	case c.running:
		return StateRunning
	default:
		return StateClean
	}
}

// IsDirty reports whether the computation needs to be run.
func (c *Computation) IsDirty() bool {
	return c.State() == StateDirty
}

// DependencyCount returns the number of live edges.
func (c *Computation) DependencyCount() int {
	return len(c.edges)
}

// Run tears down the current edges and runs fn as the active computation,
// collecting a fresh edge set. The computation is clean afterwards unless
// one of its dependencies changed while fn was running.
//
// If fn panics the computation is left dirty with no edges and the panic
// propagates. Run is a no-op on a disposed computation and when called from
// inside its own body.
func (c *Computation) Run(fn func()) {
	if c.disposed {
		return
	}
	if c.running {
		c.tracker.logger.Warn("reactive: computation re-entered its own run",
			"computation", c.name, "id", c.id)
		return
	}

	c.clearEdges()
	c.running = true
	c.dirty = false
	c.runs++
	c.tracker.observer.ComputationStarted(c)

	completed := false
	defer func() {
		c.running = false
		if !completed && !c.disposed {
			c.dirty = true
			c.clearEdges()
		}
		c.tracker.observer.ComputationFinished(c, !completed)
	}()

	c.tracker.WithActive(c, fn)
	completed = true

	c.tracker.logger.Debug("reactive: computation ran",
		"computation", c.name, "id", c.id, "deps", len(c.edges), "dirty", c.dirty)
}

// Invalidate marks the computation dirty and drops all of its edges.
// Repeated calls before the next run collapse into one transition, so the
// OnInvalidate hooks fire once. It is safe to call from inside a dispatch
// pass, including one triggered by another computation's run.
func (c *Computation) Invalidate() {
	if c.disposed || c.dirty {
		return
	}
	c.dirty = true
	c.clearEdges()

	c.tracker.observer.Invalidated(c)
	c.tracker.logger.Debug("reactive: computation invalidated",
		"computation", c.name, "id", c.id)

	for _, h := range slices.Clone(c.hooks) {
		h.fn()
	}
}

// OnInvalidate registers fn to run each time the computation goes from
// clean (or running) to dirty. Owners use it to schedule a re-run.
func (c *Computation) OnInvalidate(fn func()) Remover {
	h := &invalidateHook{fn: fn}
	c.hooks = append(c.hooks, h)
	return newRemover(func() {
		if i := slices.Index(c.hooks, h); i >= 0 {
			c.hooks = slices.Delete(c.hooks, i, i+1)
		}
	})
}

// Dispose drops all edges and hooks. Later calls to Run and Invalidate do
// nothing.
func (c *Computation) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.clearEdges()
	c.hooks = nil
}

// addDependency records an edge to v for the current run.
func (c *Computation) addDependency(v ReactiveValue) {
	if !c.running || c.dirty || c.disposed {
		return
	}
	if _, ok := c.edges[v]; ok {
		return
	}
	if c.edges == nil {
		c.edges = make(map[ReactiveValue]Remover)
	}
	// A dispatch pass may still deliver an edge removed by a later run.
	run := c.runs
	c.edges[v] = v.AddReactiveChangeListener(func(ChangeEvent) {
		if c.runs != run {
			return
		}
		c.Invalidate()
	})
}

// clearEdges detaches every change listener this computation registered.
func (c *Computation) clearEdges() {
	if len(c.edges) == 0 {
		return
	}
	edges := c.edges
	c.edges = nil
	for _, remove := range edges {
		remove()
	}
}
