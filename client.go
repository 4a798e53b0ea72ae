package autoapi

import (
	"context"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/reducer"
	"github.com/arfordweb/redux-auto-api/pkg/store"
	"github.com/arfordweb/redux-auto-api/pkg/transport"
)

// Client bundles the dispatchable CRUD operations for one namespace. Its
// reducer registry is wired into the store by New; the methods run the
// three-phase dispatch protocol against the configured transport.
type Client struct {
	cfg      Config
	st       *store.Store
	registry *reducer.Registry
}

// New validates the configuration, registers the namespace's composed
// reducer with the store, and returns the Client. A nil store or transport,
// an empty namespace, or a transport.Funcs with a missing function is a
// *ConfigError — configuration failures surface here, never at dispatch
// time.
func New(st *store.Store, namespace, endpoint string, t transport.Transport, opts ...Option) (*Client, error) {
	if st == nil {
		return nil, &ConfigError{Field: "Store", Reason: "must not be nil"}
	}
	if namespace == "" {
		return nil, &ConfigError{Field: "Namespace", Reason: "must not be empty"}
	}
	if t == nil {
		return nil, &ConfigError{Field: "Transport", Reason: "must not be nil"}
	}
	switch funcs := t.(type) {
	case transport.Funcs:
		if err := validateFuncs(funcs); err != nil {
			return nil, err
		}
	case *transport.Funcs:
		if funcs == nil {
			return nil, &ConfigError{Field: "Transport", Reason: "must not be nil"}
		}
		if err := validateFuncs(*funcs); err != nil {
			return nil, err
		}
	}

	cfg := defaultConfig(namespace, endpoint, t)
	resolve(&cfg, opts)

	var patchGroup, deleteGroup reducer.Group
	if cfg.Patch.Optimistic {
		patchGroup = reducer.OptimisticPatch(cfg.IDKey, cfg.Logger)
	} else {
		patchGroup = reducer.PessimisticPatch(cfg.IDKey)
	}
	if cfg.Delete.Optimistic {
		deleteGroup = reducer.OptimisticDelete(cfg.IDKey, cfg.Logger)
	} else {
		deleteGroup = reducer.PessimisticDelete(cfg.IDKey)
	}

	var regOpts []reducer.RegistryOption
	if cfg.BaseReducer != nil {
		regOpts = append(regOpts, reducer.WithBase(cfg.BaseReducer))
	}
	if cfg.InitialState != nil {
		regOpts = append(regOpts, reducer.WithInitialState(*cfg.InitialState))
	}

	reg := reducer.NewRegistry(namespace, regOpts...).Add(
		reducer.Get(cfg.IDKey),
		reducer.Post(cfg.IDKey, mode(cfg.Post)),
		patchGroup,
		deleteGroup,
	)
	st.Register(reg)

	return &Client{cfg: cfg, st: st, registry: reg}, nil
}

func validateFuncs(f transport.Funcs) error {
	if f.GetFunc == nil {
		return &ConfigError{Field: "Transport.GetFunc", Reason: "must not be nil"}
	}
	if f.PostFunc == nil {
		return &ConfigError{Field: "Transport.PostFunc", Reason: "must not be nil"}
	}
	if f.PatchFunc == nil {
		return &ConfigError{Field: "Transport.PatchFunc", Reason: "must not be nil"}
	}
	if f.DeleteFunc == nil {
		return &ConfigError{Field: "Transport.DeleteFunc", Reason: "must not be nil"}
	}
	return nil
}

// Config returns the resolved configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Registry returns the namespace's reducer registry.
func (c *Client) Registry() *reducer.Registry {
	return c.registry
}

// State returns the namespace's current collection state.
func (c *Client) State() collection.State {
	return c.st.State(c.cfg.Namespace)
}

// Get fetches the collection. START clears the local data; SUCCESS replaces
// it wholesale from the response. A GET is all-or-nothing.
//
// The method blocks until the transport resolves; run it on its own
// goroutine for fire-and-forget semantics. The returned error is the
// transport error already carried by the FAIL dispatch, for callers that
// block and check.
func (c *Client) Get(ctx context.Context, params transport.Params) error {
	op := c.cfg.Get

	start := c.newAction(action.Get, action.Pessimistic, action.Start)
	start.Params = params
	c.st.Dispatch(start)

	resp, err := c.cfg.Transport.Get(ctx, c.cfg.Endpoint, params)
	if err != nil {
		fail := c.newAction(action.Get, action.Pessimistic, action.Fail)
		fail.Params = params
		fail.Err = err
		c.st.Dispatch(fail)
		op.OnFailure(err, params)
		return err
	}

	success := c.newAction(action.Get, action.Pessimistic, action.Success)
	success.Params = params
	success.Data = op.TranslateResponse(resp, nil)
	success.ResponseData = resp.Raw
	c.st.Dispatch(success)
	return nil
}

// Post creates resources. In optimistic mode (the default) records lacking
// an id are assigned a placeholder from the configured generator before the
// transport call, so the default response translator can overlay
// server-assigned fields positionally. Nothing is inserted locally until
// SUCCESS. The configured splitter may partition the response into a
// succeeded and a failed subset; both terminal phases are dispatched when
// both subsets are non-empty.
func (c *Client) Post(ctx context.Context, records []collection.Resource) error {
	op := c.cfg.Post
	m := mode(op)

	prepared := make([]collection.Resource, len(records))
	for i, r := range records {
		if op.Optimistic {
			if _, ok := r.ID(c.cfg.IDKey); !ok {
				r = r.Merge(collection.Resource{c.cfg.IDKey: c.cfg.IDGen.NextID()})
			}
		}
		prepared[i] = r
	}
	payload := op.TranslateRequest(prepared)

	start := c.newAction(action.Post, m, action.Start)
	start.Data = prepared
	start.RequestData = payload
	c.st.Dispatch(start)

	resp, err := c.cfg.Transport.Post(ctx, c.cfg.Endpoint, payload)
	if err != nil {
		c.dispatchFail(action.Post, m, prepared, payload, err, false)
		op.OnFailure(err, payload)
		return err
	}

	return c.resolve(action.Post, m, op, prepared, payload, resp)
}

// Patch applies partial updates. In optimistic mode (the default) START
// merges each patch into the local resource and snapshots the prior value;
// FAIL restores the snapshots. Partial outcomes work as for Post.
//
// Issuing a second patch for an id whose first patch is still in flight is
// not serialized by the library; the later snapshot overwrites the earlier
// one.
func (c *Client) Patch(ctx context.Context, patches []collection.Resource) error {
	op := c.cfg.Patch
	m := mode(op)
	payload := op.TranslateRequest(patches)

	start := c.newAction(action.Patch, m, action.Start)
	start.Data = patches
	start.RequestData = payload
	c.st.Dispatch(start)

	resp, err := c.cfg.Transport.Patch(ctx, c.cfg.Endpoint, payload)
	if err != nil {
		c.dispatchFail(action.Patch, m, patches, payload, err, false)
		op.OnFailure(err, payload)
		return err
	}

	return c.resolve(action.Patch, m, op, patches, payload, resp)
}

// Delete removes resources. In optimistic mode (the default) START removes
// them locally and stashes the prior values; FAIL restores them. The id
// list in the collection's Order is never pruned.
func (c *Client) Delete(ctx context.Context, records []collection.Resource) error {
	op := c.cfg.Delete
	m := mode(op)
	payload := op.TranslateRequest(records)

	start := c.newAction(action.Delete, m, action.Start)
	start.Data = records
	start.RequestData = payload
	c.st.Dispatch(start)

	resp, err := c.cfg.Transport.Delete(ctx, c.cfg.Endpoint, payload)
	if err != nil {
		c.dispatchFail(action.Delete, m, records, payload, err, false)
		op.OnFailure(err, payload)
		return err
	}

	success := c.newAction(action.Delete, m, action.Success)
	success.Data = op.TranslateResponse(resp, records)
	success.RequestData = payload
	success.ResponseData = resp.Raw
	c.st.Dispatch(success)
	return nil
}

// resolve translates and splits a POST/PATCH response, dispatching the
// terminal phase for each non-empty subset. SUCCESS is always dispatched
// when nothing failed, so the in-flight counter resolves even for an empty
// response.
func (c *Client) resolve(op action.Op, m action.Mode, cfg OpConfig, requested []collection.Resource, payload any, resp transport.Response) error {
	translated := cfg.TranslateResponse(resp, requested)
	ok, failed, failErr := cfg.Split(resp, translated)
	if len(failed) > 0 && failErr == nil {
		failErr = ErrPartialFailure
	}

	if len(failed) == 0 {
		success := c.newAction(op, m, action.Success)
		success.Data = ok
		success.RequestData = payload
		success.ResponseData = resp.Raw
		c.st.Dispatch(success)
		return nil
	}

	partial := false
	if len(ok) > 0 {
		success := c.newAction(op, m, action.Success)
		success.Data = ok
		success.RequestData = payload
		success.ResponseData = resp.Raw
		c.st.Dispatch(success)
		partial = true
	}

	c.dispatchFail(op, m, failed, payload, failErr, partial)
	cfg.OnFailure(failErr, payload)
	return failErr
}

func (c *Client) dispatchFail(op action.Op, m action.Mode, data []collection.Resource, payload any, err error, partial bool) {
	fail := c.newAction(op, m, action.Fail)
	fail.Data = data
	fail.RequestData = payload
	fail.Err = err
	fail.Partial = partial
	c.st.Dispatch(fail)
}

func (c *Client) newAction(op action.Op, m action.Mode, phase action.Phase) action.Action {
	return action.Action{
		Namespace: c.cfg.Namespace,
		Separator: c.cfg.Separator,
		Op:        op,
		Mode:      m,
		Phase:     phase,
	}
}

func mode(op OpConfig) action.Mode {
	if op.Optimistic {
		return action.Optimistic
	}
	return action.Pessimistic
}
