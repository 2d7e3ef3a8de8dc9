package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/statetree/pkg/statetree"
)

// DefaultStreamBuffer is the number of frames queued per stream client.
const DefaultStreamBuffer = 64

// Server is a read-only HTTP view of a state tree.
//
// Routes:
//
//	GET /tree                                   all nodes and namespaces
//	GET /nodes/{node}                           one node
//	GET /nodes/{node}/namespaces/{ns}           one namespace
//	GET /nodes/{node}/namespaces/{ns}/splices   websocket splice stream
//	GET /metrics                                Prometheus, with WithGatherer
//
// Every tree access runs on the Loop.
type Server struct {
	loop         *Loop
	tree         *statetree.Tree
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	streamBuffer int
	streams      *streamHub
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreamBuffer sets the per-client frame queue size.
func WithStreamBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.streamBuffer = n
		}
	}
}

// NewServer creates an inspector for tree. The tree must only be touched
// through loop for as long as the server is in use.
func NewServer(loop *Loop, tree *statetree.Tree, opts ...Option) *Server {
	s := &Server{
		loop:         loop,
		tree:         tree,
		logger:       slog.Default(),
		streamBuffer: DefaultStreamBuffer,
		streams:      newStreamHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/tree", s.handleTree)
	r.Get("/nodes/{node}", s.handleNode)
	r.Get("/nodes/{node}/namespaces/{ns}", s.handleNamespace)
	r.Get("/nodes/{node}/namespaces/{ns}/splices", s.handleSplices)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Streams returns the number of open splice streams.
func (s *Server) Streams() int {
	return s.streams.count()
}

// Close closes all open splice streams.
func (s *Server) Close() {
	s.streams.close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspect: listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := s.loop.Do(r.Context(), func() { body = s.tree.DebugJSON() }); err != nil {
		s.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := pathInt(w, r, "node")
	if !ok {
		return
	}

	var body json.RawMessage
	err := s.loop.Do(r.Context(), func() {
		if n, found := s.tree.Node(nodeID); found {
			body = n.DebugJSON()
		}
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	if body == nil {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := pathInt(w, r, "node")
	if !ok {
		return
	}
	nsID, ok := pathInt(w, r, "ns")
	if !ok {
		return
	}

	var (
		body   json.RawMessage
		status = http.StatusOK
		msg    string
	)
	err := s.loop.Do(r.Context(), func() {
		ns, code, m := s.lookup(nodeID, nsID)
		if ns == nil {
			status, msg = code, m
			return
		}
		body, _ = json.Marshal(map[string]any{
			"node":      nodeID,
			"namespace": nsID,
			"kind":      ns.Kind(),
			"values":    ns.DebugJSON(),
		})
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// handleSplices registers the stream listener and takes the snapshot in one
// loop turn, so no splice falls between the hello frame and the first
// splice frame.
func (s *Server) handleSplices(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := pathInt(w, r, "node")
	if !ok {
		return
	}
	nsID, ok := pathInt(w, r, "ns")
	if !ok {
		return
	}

	sub := newSubscription(s.streamBuffer)
	var (
		hello  Frame
		status = http.StatusOK
		msg    string
	)
	err := s.loop.Do(r.Context(), func() {
		ns, code, m := s.lookup(nodeID, nsID)
		if ns == nil {
			status, msg = code, m
			return
		}
		streamer, ok := ns.(debugStreamer)
		if !ok {
			status, msg = http.StatusBadRequest, "namespace kind "+ns.Kind()+" does not stream changes"
			return
		}
		hello = Frame{
			Type:      FrameHello,
			Stream:    sub.id,
			Node:      nodeID,
			Namespace: nsID,
			Snapshot:  ns.DebugJSON(),
		}
		sub.remove = streamer.AddDebugListener(func(event json.RawMessage) {
			sub.deliver(event, s.logger)
		})
	})
	if err != nil {
		// The task may have run after ctx ended and registered the listener.
		s.detach(sub)
		s.loopError(w, err)
		return
	}
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}

	conn, err := s.streams.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("inspect: websocket upgrade failed", "stream", sub.id, "error", err)
		s.detach(sub)
		return
	}
	s.streams.add(conn, sub.id)
	s.logger.Info("inspect: stream opened",
		"stream", sub.id, "node", nodeID, "namespace", nsID)

	done := make(chan struct{})
	data, _ := json.Marshal(hello)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		close(done)
		conn.Close()
	} else {
		go func() {
			defer close(done)
			pump(conn, sub.send)
		}()
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.detach(sub)
	<-done
	s.streams.remove(conn)
	conn.Close()
	s.logger.Info("inspect: stream closed", "stream", sub.id, "dropped", sub.dropped)
}

// detach removes the stream listener on the loop, then closes the queue.
// sub.remove is only touched on the loop. After Do returns the listener can
// no longer run, so closing is safe.
func (s *Server) detach(sub *subscription) {
	err := s.loop.Do(context.Background(), func() {
		if sub.remove != nil {
			sub.remove()
			sub.remove = nil
		}
	})
	if err != nil && !errors.Is(err, ErrLoopClosed) {
		s.logger.Error("inspect: failed to remove stream listener", "stream", sub.id, "error", err)
	}
	close(sub.send)
}

// lookup resolves a namespace. Must run on the loop.
func (s *Server) lookup(nodeID, nsID int) (statetree.Namespace, int, string) {
	n, ok := s.tree.Node(nodeID)
	if !ok {
		return nil, http.StatusNotFound, "node not found"
	}
	ns, ok := n.Namespace(nsID)
	if !ok {
		return nil, http.StatusNotFound, "namespace not found"
	}
	return ns, http.StatusOK, ""
}

func (s *Server) loopError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrLoopClosed) {
		writeError(w, http.StatusServiceUnavailable, "inspector is shutting down")
		return
	}
	s.logger.Error("inspect: request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" id")
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	writeJSON(w, status, body)
}
