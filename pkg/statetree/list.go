package statetree

import (
	"encoding/json"
	"slices"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// ListNamespace is a namespace that structures data as an ordered list.
//
// The list is a reactive value with regard to its structure. Reads that
// depend on the structure (Length, Range, IndexFunc) make the running
// Computation depend on the list; Get does not. Dependents are invalidated
// by Splice, never by Set.
type ListNamespace[T any] struct {
	namespaceBase

	values []T
	router *reactive.EventRouter[SpliceListener[T], *SpliceEvent[T]]
}

// NewListNamespace creates a list namespace bound to node's tracker.
// Most callers should use ListOf, which also registers it on the node.
func NewListNamespace[T any](id int, node *Node) *ListNamespace[T] {
	if node == nil {
		panic("statetree: NewListNamespace requires a node")
	}

	l := &ListNamespace[T]{
		namespaceBase: namespaceBase{id: id, node: node},
	}
	l.router = reactive.NewEventRouter(node.tree.tracker,
		func(listener reactive.ChangeListener) SpliceListener[T] {
			return func(e *SpliceEvent[T]) { listener(e) }
		},
		func(listener SpliceListener[T], e *SpliceEvent[T]) {
			listener(e)
		},
		reactive.WithRouterName("list"),
	)
	return l
}

// Kind implements Namespace.
func (l *ListNamespace[T]) Kind() string {
	return "list"
}

// Length returns the number of items and makes the running computation
// depend on the list structure.
func (l *ListNamespace[T]) Length() int {
	l.router.RegisterRead()
	return len(l.values)
}

// Get returns the item at index. It does not create a dependency.
func (l *ListNamespace[T]) Get(index int) (T, error) {
	if index < 0 || index >= len(l.values) {
		var zero T
		return zero, &IndexError{Op: "get", Index: index, Length: len(l.values)}
	}
	return l.values[index], nil
}

// Set replaces the item at index in place. No SpliceEvent is fired and no
// dependent is invalidated.
func (l *ListNamespace[T]) Set(index int, value T) error {
	if index < 0 || index >= len(l.values) {
		return &IndexError{Op: "set", Index: index, Length: len(l.values)}
	}
	l.values[index] = value
	return nil
}

// Splice removes up to remove items starting at index, inserts added at
// index and fires one SpliceEvent. It returns the removed items.
//
// index must be within [0, Length]. A remove count that runs past the end
// is truncated; a negative one counts as zero. The event is fired even when
// nothing was removed or added. If a listener panics the mutation has
// already been applied.
func (l *ListNamespace[T]) Splice(index, remove int, added ...T) ([]T, error) {
	n := len(l.values)
	if index < 0 || index > n {
		return nil, &IndexError{Op: "splice", Index: index, Length: n}
	}
	remove = max(0, min(remove, n-index))

	removed := append([]T{}, l.values[index:index+remove]...)
	add := append([]T{}, added...)
	l.values = slices.Replace(l.values, index, index+remove, add...)

	l.router.FireEvent(&SpliceEvent[T]{
		source:  l,
		Index:   index,
		Removed: removed,
		Added:   add,
	})
	return removed, nil
}

// Add inserts items at index.
func (l *ListNamespace[T]) Add(index int, items ...T) error {
	_, err := l.Splice(index, 0, items...)
	return err
}

// Append adds items at the end of the list.
func (l *ListNamespace[T]) Append(items ...T) {
	// index == len is always valid
	_, _ = l.Splice(len(l.values), 0, items...)
}

// Remove removes up to count items starting at index.
func (l *ListNamespace[T]) Remove(index, count int) ([]T, error) {
	return l.Splice(index, count)
}

// Range calls fn for each item in order until fn returns false. It makes the
// running computation depend on the list structure.
func (l *ListNamespace[T]) Range(fn func(index int, item T) bool) {
	l.router.RegisterRead()
	for i, v := range l.values {
		if !fn(i, v) {
			return
		}
	}
}

// IndexFunc returns the index of the first item satisfying match, or -1.
// It makes the running computation depend on the list structure.
func (l *ListNamespace[T]) IndexFunc(match func(T) bool) int {
	l.router.RegisterRead()
	return slices.IndexFunc(l.values, match)
}

// Snapshot returns a copy of the items. It does not create a dependency and
// does not alias the list.
func (l *ListNamespace[T]) Snapshot() []T {
	return slices.Clone(l.values)
}

// DebugJSON exports the items as a JSON array. It does not create a
// dependency.
func (l *ListNamespace[T]) DebugJSON() json.RawMessage {
	return debugValues(l.values)
}

// AddSpliceListener adds a listener notified whenever the list structure
// changes.
func (l *ListNamespace[T]) AddSpliceListener(listener SpliceListener[T]) reactive.Remover {
	return l.router.AddListener(listener)
}

// AddReactiveChangeListener implements reactive.ReactiveValue.
func (l *ListNamespace[T]) AddReactiveChangeListener(listener reactive.ChangeListener) reactive.Remover {
	return l.router.AddReactiveListener(listener)
}

// AddDebugListener adds a splice listener that receives each event in its
// debug JSON form.
func (l *ListNamespace[T]) AddDebugListener(fn func(json.RawMessage)) reactive.Remover {
	return l.router.AddListener(func(e *SpliceEvent[T]) {
		fn(e.DebugJSON())
	})
}

// ListenerCount returns the number of live listeners, dependency edges
// included.
func (l *ListNamespace[T]) ListenerCount() int {
	return l.router.ListenerCount()
}

// debugValues exports items as a JSON array.
func debugValues[T any](items []T) json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, v := range items {
		out[i] = debugValue(v)
	}
	return mustMarshal(out)
}

// Ensure ListNamespace implements Namespace and reactive.ReactiveValue
var (
	_ Namespace              = (*ListNamespace[any])(nil)
	_ reactive.ReactiveValue = (*ListNamespace[any])(nil)
)
