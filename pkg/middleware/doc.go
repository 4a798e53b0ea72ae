// Package middleware provides store middleware for observability: zerolog
// dispatch logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Middleware wraps the store's dispatch chain and never alters actions or
// state; reducers stay free of logging and metrics decisions.
//
// Example:
//
//	st := store.New(store.WithMiddleware(
//	    middleware.Logger(log),
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	    middleware.OpenTelemetry(),
//	))
package middleware
