// Package reactive provides the dependency-tracking and event-routing core
// used by state tree namespaces.
//
// Reading a reactive value while a Computation is running records a
// dependency edge from that computation to the value. When the value later
// changes, every computation holding an edge to it is invalidated and its
// edges are dropped. Re-running the computation rebuilds the edge set from
// scratch.
//
// # Core Types
//
// Tracker holds the active computation stack for one logical thread:
//
//	tracker := reactive.NewTracker()
//	c := tracker.NewComputation("title")
//	c.OnInvalidate(func() { schedule(c) })
//	c.Run(func() {
//	    n := list.Length() // records an edge to list
//	    render(n)
//	})
//
// EventRouter multiplexes typed listeners and dependency invalidation
// through a single dispatch path:
//
//	router := reactive.NewEventRouter(tracker,
//	    func(l reactive.ChangeListener) SpliceListener {
//	        return func(e *SpliceEvent) { l(e) }
//	    },
//	    func(l SpliceListener, e *SpliceEvent) { l(e) },
//	)
//
// # Threading
//
// Nothing in this package is safe for concurrent use. A Tracker and every
// value and computation created against it must be confined to one
// goroutine at a time; callers that need to reach a tree from several
// goroutines funnel the work onto one loop.
package reactive
