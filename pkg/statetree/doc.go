// Package statetree provides reactive namespaces attached to state tree
// nodes.
//
// A Tree allocates Nodes; each Node owns namespaces addressed by an integer
// id. ListNamespace is the ordered collection kind. It is a reactive value
// with regard to its structure: Length, Range and IndexFunc make the running
// computation depend on the list, while Get does not. The computation is
// invalidated when items are added, removed or replaced through Splice. Set
// replaces an item in place without notifying anyone, since items are
// expected to be immutable or reactive values of their own.
//
// # Usage
//
//	tree := statetree.NewTree(reactive.NewTracker())
//	node := tree.NewNode()
//	list := statetree.ListOf[string](node, 0)
//
//	list.AddSpliceListener(func(e *statetree.SpliceEvent[string]) {
//	    fmt.Println(e.Index, e.Removed, e.Added)
//	})
//	list.Splice(0, 0, "a", "b")
//
// # Scripts
//
// A Script is a recorded list of splice and set steps, loaded from YAML or
// JSON. Record captures the splices applied to a list and Apply replays
// them, which reproduces the list's debug snapshot.
package statetree
