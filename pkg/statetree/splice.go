package statetree

import (
	"encoding/json"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// SpliceListener is notified when a list's structure changes.
type SpliceListener[T any] func(*SpliceEvent[T])

// SpliceEvent describes one structural change of a ListNamespace: Removed
// items were taken out at Index and Added items were inserted there.
// Listeners must treat the event as read-only.
type SpliceEvent[T any] struct {
	source *ListNamespace[T]

	Index   int
	Removed []T
	Added   []T
}

// Source implements reactive.ChangeEvent.
func (e *SpliceEvent[T]) Source() reactive.ReactiveValue {
	return e.source
}

// List returns the list that changed.
func (e *SpliceEvent[T]) List() *ListNamespace[T] {
	return e.source
}

// DebugJSON exports the event for tooling.
func (e *SpliceEvent[T]) DebugJSON() json.RawMessage {
	return mustMarshal(struct {
		Node      int             `json:"node"`
		Namespace int             `json:"namespace"`
		Index     int             `json:"index"`
		Removed   json.RawMessage `json:"removed"`
		Added     json.RawMessage `json:"added"`
	}{
		Node:      e.source.nodeID(),
		Namespace: e.source.id,
		Index:     e.Index,
		Removed:   debugValues(e.Removed),
		Added:     debugValues(e.Added),
	})
}
