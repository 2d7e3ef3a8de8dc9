package reactive

// ReactiveValue is anything a Computation can depend on.
//
// Implementations are compared by identity when edges are deduplicated, so
// they must be pointer types (or otherwise comparable).
type ReactiveValue interface {
	// AddReactiveChangeListener registers l to be called whenever the value
	// changes. The returned Remover detaches it.
	AddReactiveChangeListener(l ChangeListener) Remover
}

// ChangeEvent is the minimal shape of an event fired by a reactive value.
type ChangeEvent interface {
	// Source returns the value that changed.
	Source() ReactiveValue
}

// ChangeListener is notified that a reactive value changed.
type ChangeListener func(ChangeEvent)

// Remover detaches a previously added listener.
// Calling it more than once is a no-op.
type Remover func()

// newRemover wraps fn so it runs at most once.
func newRemover(fn func()) Remover {
	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		fn()
	}
}
