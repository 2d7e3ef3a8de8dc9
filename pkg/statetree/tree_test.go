package statetree

import (
	"errors"
	"testing"

	"github.com/vango-dev/statetree/pkg/reactive"
)

func TestTreeNodes(t *testing.T) {
	tracker := reactive.NewTracker()
	tree := NewTree(tracker)

	if tree.Tracker() != tracker {
		t.Error("Tracker() should return the tracker passed to NewTree")
	}
	if NewTree(nil).Tracker() == nil {
		t.Error("NewTree(nil) should create a tracker")
	}

	a := tree.NewNode()
	b := tree.NewNode()
	if a.ID() != 1 || b.ID() != 2 {
		t.Errorf("node ids = %d, %d; want 1, 2", a.ID(), b.ID())
	}
	if a.Tree() != tree {
		t.Error("Node.Tree() should return the owning tree")
	}

	if got, ok := tree.Node(2); !ok || got != b {
		t.Error("Node(2) should return the second node")
	}
	if _, ok := tree.Node(3); ok {
		t.Error("Node(3) should not exist")
	}

	nodes := tree.Nodes()
	if len(nodes) != 2 || nodes[0] != a || nodes[1] != b {
		t.Errorf("Nodes() = %v, want [a b] in id order", nodes)
	}
}

func TestListOfReturnsSameNamespace(t *testing.T) {
	tree := NewTree(nil)
	node := tree.NewNode()

	first := ListOf[string](node, 7)
	second := ListOf[string](node, 7)
	if first != second {
		t.Fatal("ListOf should return the existing namespace")
	}
	if first.ID() != 7 || first.Node() != node || first.Kind() != "list" {
		t.Errorf("namespace identity = (%d, %p, %s)", first.ID(), first.Node(), first.Kind())
	}

	ns, ok := node.Namespace(7)
	if !ok || ns != Namespace(first) {
		t.Error("Namespace(7) should return the list")
	}
}

func TestListOfKindMismatch(t *testing.T) {
	tree := NewTree(nil)
	node := tree.NewNode()
	ListOf[string](node, 1)

	if _, err := LookupList[int](node, 1); !errors.Is(err, ErrNamespaceKind) {
		t.Errorf("LookupList[int] error = %v, want ErrNamespaceKind", err)
	}
	if list, err := LookupList[int](node, 2); list != nil || err != nil {
		t.Errorf("LookupList on free id = %v, %v; want nil, nil", list, err)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNamespaceKind) {
			t.Errorf("ListOf[int] panic = %v, want ErrNamespaceKind", r)
		}
	}()
	ListOf[int](node, 1)
}

func TestTreeDebugJSON(t *testing.T) {
	tree := NewTree(nil)
	parent := tree.NewNode()
	child := tree.NewNode()

	children := parent.List(2)
	children.Append(child)
	parent.List(0).Append("title")
	ListOf[int](child, 0).Append(1, 2)

	want := `{"nodes":[` +
		`{"id":1,"namespaces":[{"id":0,"kind":"list","values":["title"]},{"id":2,"kind":"list","values":[{"node":2}]}]},` +
		`{"id":2,"namespaces":[{"id":0,"kind":"list","values":[1,2]}]}` +
		`]}`
	if got := string(tree.DebugJSON()); got != want {
		t.Errorf("DebugJSON() =\n%s\nwant\n%s", got, want)
	}
}

func TestDebugJSONRegistersNoRead(t *testing.T) {
	tree := NewTree(nil)
	list := tree.NewNode().List(0)
	list.Append("a")

	c := tree.Tracker().NewComputation("export")
	c.Run(func() { tree.DebugJSON() })

	if c.DependencyCount() != 0 {
		t.Errorf("DependencyCount() = %d, want 0", c.DependencyCount())
	}
}

func TestIndexErrorMessage(t *testing.T) {
	tests := []struct {
		err  *IndexError
		want string
	}{
		{&IndexError{Op: "get", Index: 3, Length: 3}, "statetree: get index 3 out of range [0, 3)"},
		{&IndexError{Op: "splice", Index: 4, Length: 3}, "statetree: splice index 4 out of range [0, 3]"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
