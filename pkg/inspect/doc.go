// Package inspect serves a read-only debug view of a state tree over HTTP.
//
// The tree is single-threaded, so the server funnels every access through a
// Loop:
//
//	loop := inspect.NewLoop()
//	defer loop.Close()
//
//	srv := inspect.NewServer(loop, tree, inspect.WithGatherer(reg))
//	err := srv.ListenAndServe(ctx, ":7070")
//
// Code that mutates the tree while the server runs must do so inside
// loop.Do as well. Splice streams deliver a hello frame with a snapshot of
// the namespace, followed by one frame per splice.
package inspect
