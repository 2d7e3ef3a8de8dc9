package statetree

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// Tree allocates nodes and binds their namespaces to one Tracker.
type Tree struct {
	tracker *reactive.Tracker
	nodes   map[int]*Node
	nextID  int
}

// NewTree creates an empty tree. If tracker is nil a new one is created.
func NewTree(tracker *reactive.Tracker) *Tree {
	if tracker == nil {
		tracker = reactive.NewTracker()
	}
	return &Tree{
		tracker: tracker,
		nodes:   make(map[int]*Node),
	}
}

// Tracker returns the tracker shared by every namespace in the tree.
func (t *Tree) Tracker() *reactive.Tracker {
	return t.tracker
}

// NewNode creates and registers a node. Node ids start at 1.
func (t *Tree) NewNode() *Node {
	t.nextID++
	n := &Node{
		id:         t.nextID,
		tree:       t,
		namespaces: make(map[int]Namespace),
	}
	t.nodes[n.id] = n
	return n
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by id.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return a.id - b.id })
	return nodes
}

// DebugJSON exports every node and namespace. It does not register reads.
func (t *Tree) DebugJSON() json.RawMessage {
	nodes := t.Nodes()
	out := make([]json.RawMessage, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.DebugJSON())
	}
	return mustMarshal(map[string]any{"nodes": out})
}

// Node is a state tree node. Namespaces keep a back-reference to their node
// for identity and debug output only.
type Node struct {
	id         int
	tree       *Tree
	namespaces map[int]Namespace
}

// ID returns the node id.
func (n *Node) ID() int {
	return n.id
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree {
	return n.tree
}

// Namespace returns the namespace registered under id.
func (n *Node) Namespace(id int) (Namespace, bool) {
	ns, ok := n.namespaces[id]
	return ns, ok
}

// Namespaces returns all namespaces ordered by id.
func (n *Node) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(n.namespaces))
	for _, ns := range n.namespaces {
		out = append(out, ns)
	}
	slices.SortFunc(out, func(a, b Namespace) int { return a.ID() - b.ID() })
	return out
}

// List returns the untyped list namespace with the given id, creating it on
// first use.
func (n *Node) List(id int) *ListNamespace[any] {
	return ListOf[any](n, id)
}

// DebugJSON exports the node id and its namespaces.
func (n *Node) DebugJSON() json.RawMessage {
	type nsJSON struct {
		ID     int             `json:"id"`
		Kind   string          `json:"kind"`
		Values json.RawMessage `json:"values"`
	}

	namespaces := n.Namespaces()
	out := make([]nsJSON, 0, len(namespaces))
	for _, ns := range namespaces {
		out = append(out, nsJSON{ID: ns.ID(), Kind: ns.Kind(), Values: ns.DebugJSON()})
	}
	return mustMarshal(map[string]any{"id": n.id, "namespaces": out})
}

// ListOf returns the list namespace with the given id and element type,
// creating it on first use. It panics if id is already taken by a namespace
// of another kind or element type; use LookupList to get an error instead.
func ListOf[T any](n *Node, id int) *ListNamespace[T] {
	list, err := LookupList[T](n, id)
	if err != nil {
		panic(err)
	}
	if list == nil {
		list = NewListNamespace[T](id, n)
		n.namespaces[id] = list
	}
	return list
}

// LookupList returns the list namespace registered under id, or nil if the
// id is free.
func LookupList[T any](n *Node, id int) (*ListNamespace[T], error) {
	ns, ok := n.namespaces[id]
	if !ok {
		return nil, nil
	}
	list, ok := ns.(*ListNamespace[T])
	if !ok {
		return nil, fmt.Errorf("%w: node %d namespace %d is %T", ErrNamespaceKind, n.id, id, ns)
	}
	return list, nil
}
