package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// Default tracer name for statetree spans.
const defaultTracerName = "statetree"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "statetree").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Parent is the context top-level spans are started from.
	// Default: context.Background().
	Parent context.Context
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithParentContext sets the context top-level spans are children of.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Parent = ctx
	}
}

// Tracing is a reactive.Observer that records a span per computation run and
// per dispatch pass. Spans nest the way runs and passes nest on the
// tracker, so a computation re-run from an invalidation hook appears under
// the dispatch that invalidated it.
//
// Like the tracker it observes, Tracing is not safe for concurrent use.
type Tracing struct {
	tracer trace.Tracer
	parent context.Context

	// frames holds the open span contexts, innermost last.
	frames []context.Context
}

// NewTracing creates the tracing observer.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in main() before creating trackers:
//
//	otel.SetTracerProvider(tp)
//	tracker := reactive.NewTracker(reactive.WithObserver(observe.NewTracing()))
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Parent == nil {
		config.Parent = context.Background()
	}

	return &Tracing{
		tracer: config.TracerProvider.Tracer(config.TracerName),
		parent: config.Parent,
	}
}

// Context returns the context of the innermost open span, or the parent
// context when none is open.
func (t *Tracing) Context() context.Context {
	if n := len(t.frames); n > 0 {
		return t.frames[n-1]
	}
	return t.parent
}

// ComputationStarted implements reactive.Observer.
func (t *Tracing) ComputationStarted(c *reactive.Computation) {
	t.start(fmt.Sprintf("statetree.computation %s", c.Name()),
		attribute.Int64("statetree.computation_id", int64(c.ID())),
		attribute.String("statetree.computation", c.Name()),
		attribute.Int("statetree.run", c.Runs()),
	)
}

// ComputationFinished implements reactive.Observer.
func (t *Tracing) ComputationFinished(c *reactive.Computation, panicked bool) {
	t.end(panicked, "computation panicked",
		attribute.Int("statetree.dependencies", c.DependencyCount()),
		attribute.String("statetree.state", c.State().String()),
	)
}

// Invalidated implements reactive.Observer.
func (t *Tracing) Invalidated(c *reactive.Computation) {
	span := trace.SpanFromContext(t.Context())
	span.AddEvent("statetree.invalidate", trace.WithAttributes(
		attribute.Int64("statetree.computation_id", int64(c.ID())),
		attribute.String("statetree.computation", c.Name()),
	))
}

// DispatchStarted implements reactive.Observer.
func (t *Tracing) DispatchStarted(router string, listeners int) {
	t.start(fmt.Sprintf("statetree.dispatch %s", router),
		attribute.String("statetree.router", router),
		attribute.Int("statetree.listeners", listeners),
	)
}

// DispatchFinished implements reactive.Observer.
func (t *Tracing) DispatchFinished(_ string, dispatched int, panicked bool) {
	t.end(panicked, "listener panicked",
		attribute.Int("statetree.dispatched", dispatched),
	)
}

func (t *Tracing) start(name string, attrs ...attribute.KeyValue) {
	ctx, _ := t.tracer.Start(t.Context(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.frames = append(t.frames, ctx)
}

func (t *Tracing) end(panicked bool, msg string, attrs ...attribute.KeyValue) {
	n := len(t.frames)
	if n == 0 {
		return
	}
	span := trace.SpanFromContext(t.frames[n-1])
	t.frames[n-1] = nil
	t.frames = t.frames[:n-1]

	span.SetAttributes(attrs...)
	if panicked {
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Ensure Tracing implements reactive.Observer
var _ reactive.Observer = (*Tracing)(nil)
