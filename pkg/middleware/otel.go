package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/store"
)

// Default tracer name for dispatch spans.
const defaultTracerName = "autoapi"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "autoapi").
	TracerName string

	// Filter determines which actions to trace.
	// Return true to trace the action, false to skip.
	// If nil, all actions are traced.
	Filter func(a action.Action) bool

	// AttributeExtractor extracts custom attributes from the action.
	// Called for each traced action.
	AttributeExtractor func(a action.Action) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithActionFilter sets a filter function for actions.
func WithActionFilter(filter func(a action.Action) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(a action.Action) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every dispatched action.
//
// Each dispatch becomes a span named after the action type, carrying the
// namespace, operation, mode, and phase as attributes. FAIL actions set the
// span status to error with the carried error message.
//
// The tracer uses the global OpenTelemetry tracer provider; configure it in
// main() before creating the store.
func OpenTelemetry(opts ...OTelOption) store.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	tracer := otel.Tracer(config.TracerName)

	return func(next store.Dispatch) store.Dispatch {
		return func(a action.Action) {
			if config.Filter != nil && !config.Filter(a) {
				next(a)
				return
			}

			attrs := []attribute.KeyValue{
				attribute.String("autoapi.namespace", a.Namespace),
				attribute.String("autoapi.op", a.Op.String()),
				attribute.String("autoapi.mode", a.Mode.String()),
				attribute.String("autoapi.phase", a.Phase.String()),
				attribute.Int("autoapi.records", len(a.Data)),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(a)...)
			}

			_, span := tracer.Start(context.Background(), a.Type(),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if a.Phase == action.Fail && a.Err != nil {
				span.RecordError(a.Err)
				span.SetStatus(codes.Error, a.Err.Error())
			}

			next(a)
		}
	}
}
