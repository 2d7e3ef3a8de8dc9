// Package observe provides reactive.Observer implementations that export
// tracker activity to Prometheus and OpenTelemetry.
//
// Both observers can be combined on one tracker:
//
//	tracker := reactive.NewTracker(reactive.WithObserver(reactive.Observers(
//	    observe.NewMetrics(observe.WithRegistry(reg)),
//	    observe.NewTracing(observe.WithTracerName("my-app")),
//	)))
package observe
