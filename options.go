package autoapi

import (
	"github.com/rs/zerolog"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/idgen"
	"github.com/arfordweb/redux-auto-api/pkg/reducer"
	"github.com/arfordweb/redux-auto-api/pkg/transport"
)

// FailureHandler is invoked after every FAIL dispatch for its operation,
// so consumers can trigger side effects (error toasts, retry prompts)
// without coupling them into reducers.
type FailureHandler func(err error, requestData any)

// RequestTranslator turns the state-shaped records of an operation into the
// wire payload handed to the transport. The default passes the records
// through unchanged.
type RequestTranslator func(records []collection.Resource) any

// ResponseTranslator turns a transport response back into state-shaped
// records. requested holds the records the operation was called with (nil
// for GET). The default merges each response record over the requested
// record at the same position, so server-assigned fields land on the
// optimistic record; for GET it returns the response records as-is.
type ResponseTranslator func(resp transport.Response, requested []collection.Resource) []collection.Resource

// ResponseSplitter partitions translated response records into succeeded
// and failed subsets, enabling partial outcomes for POST and PATCH. failErr
// is attached to the FAIL dispatch when failed is non-empty. The default
// treats every record as succeeded.
type ResponseSplitter func(resp transport.Response, translated []collection.Resource) (ok, failed []collection.Resource, failErr error)

// OpConfig is the resolved configuration for one operation.
type OpConfig struct {
	// Optimistic applies the local update before the server confirms it.
	// Default true for POST, PATCH, and DELETE; GET is always pessimistic.
	Optimistic bool

	// OnFailure is called after each FAIL dispatch. Default no-op.
	OnFailure FailureHandler

	TranslateRequest  RequestTranslator
	TranslateResponse ResponseTranslator

	// Split is only consulted for POST and PATCH.
	Split ResponseSplitter
}

// Config is the resolved client configuration.
type Config struct {
	Namespace string
	Endpoint  string
	Transport transport.Transport

	// IDKey is the resource field holding the identifier. Default "id".
	IDKey string

	// Separator joins the namespace and operation suffix in action type
	// strings. Default "/".
	Separator string

	// Logger receives dispatch diagnostics such as rollback warnings.
	// Default zerolog.Nop().
	Logger zerolog.Logger

	// IDGen produces placeholder ids for optimistic POSTs. Default UUIDs.
	IDGen idgen.Generator

	// BaseReducer is chained after the registry's own transition and sees
	// every action. Default identity.
	BaseReducer reducer.Func

	// InitialState overlays the zeroed default when the state is first
	// seeded.
	InitialState *collection.State

	Get    OpConfig
	Post   OpConfig
	Patch  OpConfig
	Delete OpConfig
}

// Option configures a Client. Options resolve in fixed precedence
// regardless of argument order: hard defaults, then global options, then
// operation-specific options.
type Option struct {
	perOp bool
	apply func(*Config)
}

func global(apply func(*Config)) Option { return Option{apply: apply} }
func perOp(apply func(*Config)) Option  { return Option{perOp: true, apply: apply} }

// WithIDKey sets the resource field holding the identifier.
func WithIDKey(idKey string) Option {
	return global(func(c *Config) { c.IDKey = idKey })
}

// WithSeparator sets the namespace separator used in action type strings.
func WithSeparator(sep string) Option {
	return global(func(c *Config) { c.Separator = sep })
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return global(func(c *Config) { c.Logger = log })
}

// WithIDGenerator sets the placeholder id generator, e.g.
// idgen.Sequential("tmp-") for deterministic tests.
func WithIDGenerator(g idgen.Generator) Option {
	return global(func(c *Config) { c.IDGen = g })
}

// WithBaseReducer chains a caller-supplied reducer after every transition.
func WithBaseReducer(fn reducer.Func) Option {
	return global(func(c *Config) { c.BaseReducer = fn })
}

// WithInitialState overlays the given state when the collection state is
// first seeded.
func WithInitialState(s collection.State) Option {
	return global(func(c *Config) { c.InitialState = &s })
}

// WithOptimistic switches optimistic mode for POST, PATCH, and DELETE at
// once.
func WithOptimistic(on bool) Option {
	return global(func(c *Config) {
		c.Post.Optimistic = on
		c.Patch.Optimistic = on
		c.Delete.Optimistic = on
	})
}

// WithFailureHandler sets the failure callback for all four operations.
func WithFailureHandler(fn FailureHandler) Option {
	return global(func(c *Config) {
		c.Get.OnFailure = fn
		c.Post.OnFailure = fn
		c.Patch.OnFailure = fn
		c.Delete.OnFailure = fn
	})
}

// WithRequestTranslator sets the request translator for all operations.
func WithRequestTranslator(fn RequestTranslator) Option {
	return global(func(c *Config) {
		c.Get.TranslateRequest = fn
		c.Post.TranslateRequest = fn
		c.Patch.TranslateRequest = fn
		c.Delete.TranslateRequest = fn
	})
}

// WithResponseTranslator sets the response translator for all operations.
func WithResponseTranslator(fn ResponseTranslator) Option {
	return global(func(c *Config) {
		c.Get.TranslateResponse = fn
		c.Post.TranslateResponse = fn
		c.Patch.TranslateResponse = fn
		c.Delete.TranslateResponse = fn
	})
}

// WithResponseSplitter sets the partial-outcome splitter for POST and PATCH.
func WithResponseSplitter(fn ResponseSplitter) Option {
	return global(func(c *Config) {
		c.Post.Split = fn
		c.Patch.Split = fn
	})
}

// WithPostOptimistic switches optimistic mode for POST only.
func WithPostOptimistic(on bool) Option {
	return perOp(func(c *Config) { c.Post.Optimistic = on })
}

// WithPatchOptimistic switches optimistic mode for PATCH only.
func WithPatchOptimistic(on bool) Option {
	return perOp(func(c *Config) { c.Patch.Optimistic = on })
}

// WithDeleteOptimistic switches optimistic mode for DELETE only.
func WithDeleteOptimistic(on bool) Option {
	return perOp(func(c *Config) { c.Delete.Optimistic = on })
}

// WithGetFailureHandler sets the failure callback for GET only.
func WithGetFailureHandler(fn FailureHandler) Option {
	return perOp(func(c *Config) { c.Get.OnFailure = fn })
}

// WithPostFailureHandler sets the failure callback for POST only.
func WithPostFailureHandler(fn FailureHandler) Option {
	return perOp(func(c *Config) { c.Post.OnFailure = fn })
}

// WithPatchFailureHandler sets the failure callback for PATCH only.
func WithPatchFailureHandler(fn FailureHandler) Option {
	return perOp(func(c *Config) { c.Patch.OnFailure = fn })
}

// WithDeleteFailureHandler sets the failure callback for DELETE only.
func WithDeleteFailureHandler(fn FailureHandler) Option {
	return perOp(func(c *Config) { c.Delete.OnFailure = fn })
}

// WithOpConfig applies arbitrary overrides to one operation's resolved
// configuration, for per-operation translators and splitters that have no
// dedicated option.
func WithOpConfig(op action.Op, fn func(*OpConfig)) Option {
	return perOp(func(c *Config) {
		switch op {
		case action.Get:
			fn(&c.Get)
		case action.Post:
			fn(&c.Post)
		case action.Patch:
			fn(&c.Patch)
		case action.Delete:
			fn(&c.Delete)
		}
	})
}

// defaultConfig returns the hard defaults for one client.
func defaultConfig(namespace, endpoint string, t transport.Transport) Config {
	op := OpConfig{
		Optimistic:        true,
		OnFailure:         func(error, any) {},
		TranslateRequest:  defaultRequestTranslator,
		TranslateResponse: defaultResponseTranslator,
		Split:             defaultSplitter,
	}
	get := op
	get.Optimistic = false

	return Config{
		Namespace: namespace,
		Endpoint:  endpoint,
		Transport: t,
		IDKey:     "id",
		Separator: action.DefaultSeparator,
		Logger:    zerolog.Nop(),
		IDGen:     idgen.UUID(),
		Get:       get,
		Post:      op,
		Patch:     op,
		Delete:    op,
	}
}

// resolve applies options in fixed precedence: global first, per-op second.
func resolve(cfg *Config, opts []Option) {
	for _, o := range opts {
		if !o.perOp {
			o.apply(cfg)
		}
	}
	for _, o := range opts {
		if o.perOp {
			o.apply(cfg)
		}
	}
}

func defaultRequestTranslator(records []collection.Resource) any {
	return records
}

func defaultResponseTranslator(resp transport.Response, requested []collection.Resource) []collection.Resource {
	if requested == nil {
		return resp.Data
	}
	out := make([]collection.Resource, len(requested))
	for i, req := range requested {
		if i < len(resp.Data) {
			out[i] = req.Merge(resp.Data[i])
		} else {
			out[i] = req
		}
	}
	return out
}

func defaultSplitter(_ transport.Response, translated []collection.Resource) ([]collection.Resource, []collection.Resource, error) {
	return translated, nil, nil
}
