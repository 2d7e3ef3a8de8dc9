package statetree

import (
	"encoding/json"
	"fmt"
)

// Namespace is a container attached to a node under an integer id.
type Namespace interface {
	// ID returns the namespace id, unique within its node.
	ID() int

	// Node returns the owning node.
	Node() *Node

	// Kind names the namespace kind, e.g. "list".
	Kind() string

	// DebugJSON exports the current contents for tooling. It must not
	// register reads.
	DebugJSON() json.RawMessage
}

// namespaceBase carries identity shared by all namespace kinds.
type namespaceBase struct {
	id   int
	node *Node
}

func (b *namespaceBase) ID() int {
	return b.id
}

func (b *namespaceBase) Node() *Node {
	return b.node
}

// nodeID returns the owning node id, or 0 for a detached namespace.
func (b *namespaceBase) nodeID() int {
	if b.node == nil {
		return 0
	}
	return b.node.id
}

// debugValue converts a namespace value to its debug representation.
// Nodes are exported by reference, everything else through encoding/json,
// falling back to fmt formatting for values that cannot be marshalled.
func debugValue(v any) json.RawMessage {
	switch v := v.(type) {
	case nil:
		return json.RawMessage("null")
	case *Node:
		if v == nil {
			return json.RawMessage("null")
		}
		return mustMarshal(map[string]int{"node": v.id})
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("null")
		}
		return v
	}

	data, err := json.Marshal(v)
	if err != nil {
		return mustMarshal(fmt.Sprint(v))
	}
	return data
}

// mustMarshal marshals values that are known to be encodable.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("statetree: debug export: %v", err))
	}
	return data
}
