package autoapi

import (
	"context"
	"errors"
	"testing"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/idgen"
	"github.com/arfordweb/redux-auto-api/pkg/store"
	"github.com/arfordweb/redux-auto-api/pkg/transport"
)

// recorder captures every action passing through the store.
type recorder struct {
	actions []action.Action
}

func (r *recorder) middleware(next store.Dispatch) store.Dispatch {
	return func(a action.Action) {
		r.actions = append(r.actions, a)
		next(a)
	}
}

func (r *recorder) phases() []action.Phase {
	out := make([]action.Phase, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Phase
	}
	return out
}

func okTransport(data ...collection.Resource) transport.Funcs {
	fn := func(context.Context, string, any) (transport.Response, error) {
		return transport.Response{Data: data}, nil
	}
	return transport.Funcs{GetFunc: fn, PostFunc: fn, PatchFunc: fn, DeleteFunc: fn}
}

func echoTransport() transport.Funcs {
	fn := func(_ context.Context, _ string, payload any) (transport.Response, error) {
		records, _ := payload.([]collection.Resource)
		return transport.Response{Data: records}, nil
	}
	return transport.Funcs{GetFunc: fn, PostFunc: fn, PatchFunc: fn, DeleteFunc: fn}
}

func failingTransport(err error) transport.Funcs {
	fn := func(context.Context, string, any) (transport.Response, error) {
		return transport.Response{}, err
	}
	return transport.Funcs{GetFunc: fn, PostFunc: fn, PatchFunc: fn, DeleteFunc: fn}
}

func newClient(t *testing.T, tr transport.Transport, opts ...Option) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	st := store.New(store.WithMiddleware(rec.middleware))
	client, err := New(st, "todos", "todos", tr, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, rec
}

func TestNewValidation(t *testing.T) {
	st := store.New()
	tr := okTransport()

	var cfgErr *ConfigError
	if _, err := New(nil, "todos", "todos", tr); !errors.As(err, &cfgErr) {
		t.Errorf("nil store: expected *ConfigError, got %v", err)
	}
	if _, err := New(st, "", "todos", tr); !errors.As(err, &cfgErr) {
		t.Errorf("empty namespace: expected *ConfigError, got %v", err)
	}
	if _, err := New(st, "todos", "todos", nil); !errors.As(err, &cfgErr) {
		t.Errorf("nil transport: expected *ConfigError, got %v", err)
	}

	partialFuncs := okTransport()
	partialFuncs.PatchFunc = nil
	if _, err := New(st, "todos", "todos", partialFuncs); !errors.As(err, &cfgErr) {
		t.Errorf("nil transport func: expected *ConfigError, got %v", err)
	} else if cfgErr.Field != "Transport.PatchFunc" {
		t.Errorf("ConfigError.Field = %q, want Transport.PatchFunc", cfgErr.Field)
	}

	// A *transport.Funcs satisfies Transport through value receivers, so a
	// nil member must be caught at construction either way it is passed.
	if _, err := New(st, "todos", "todos", &partialFuncs); !errors.As(err, &cfgErr) {
		t.Errorf("nil func behind pointer: expected *ConfigError, got %v", err)
	} else if cfgErr.Field != "Transport.PatchFunc" {
		t.Errorf("ConfigError.Field = %q, want Transport.PatchFunc", cfgErr.Field)
	}
	if _, err := New(st, "todos", "todos", (*transport.Funcs)(nil)); !errors.As(err, &cfgErr) {
		t.Errorf("typed nil transport: expected *ConfigError, got %v", err)
	}
}

func TestInitialStateVisibleBeforeFirstDispatch(t *testing.T) {
	client, _ := newClient(t, okTransport(),
		WithInitialState(seededState("1", collection.Resource{"id": "1", "title": "preloaded"})),
	)

	s := client.State()
	if r, ok := s.ByID("1"); !ok || r["title"] != "preloaded" {
		t.Errorf("initial state must be readable right after New, got %+v", s)
	}
}

func TestGetReplacesState(t *testing.T) {
	client, rec := newClient(t, okTransport(
		collection.Resource{"id": "1", "title": "first"},
		collection.Resource{"id": "2", "title": "second"},
	))

	if err := client.Get(context.Background(), transport.Params{"archived": "false"}); err != nil {
		t.Fatalf("Get: %v", err)
	}

	got := rec.phases()
	want := []action.Phase{action.Start, action.Success}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("phases = %v, want %v", got, want)
	}
	if rec.actions[0].Params["archived"] != "false" {
		t.Error("START must carry the request params")
	}

	s := client.State()
	if s.Len() != 2 || !s.GetSucceeded || s.NumGetsInProgress != 0 {
		t.Errorf("state after GET = %+v", s)
	}
	if s.Order[0] != "1" || s.Order[1] != "2" {
		t.Errorf("Order = %v", s.Order)
	}
}

func TestGetFailure(t *testing.T) {
	boom := errors.New("connection refused")
	var handled error
	client, rec := newClient(t, failingTransport(boom),
		WithGetFailureHandler(func(err error, _ any) { handled = err }),
	)

	if err := client.Get(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("Get error = %v, want %v", err, boom)
	}
	if !errors.Is(handled, boom) {
		t.Error("failure handler must receive the transport error")
	}
	if rec.actions[1].Phase != action.Fail || !errors.Is(rec.actions[1].Err, boom) {
		t.Errorf("FAIL dispatch = %+v", rec.actions[1])
	}

	s := client.State()
	if !s.GetFailed || s.NumGetsInProgress != 0 {
		t.Errorf("state after failed GET = %+v", s)
	}
}

func TestPostAssignsPlaceholderIDs(t *testing.T) {
	client, rec := newClient(t, echoTransport(),
		WithIDGenerator(idgen.Sequential("tmp-")),
	)

	err := client.Post(context.Background(), []collection.Resource{
		{"title": "new todo"},
		{"id": "kept", "title": "has id"},
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	start := rec.actions[0]
	if start.Mode != action.Optimistic {
		t.Errorf("Mode = %v, want Optimistic", start.Mode)
	}
	if start.Data[0]["id"] != "tmp-1" {
		t.Errorf("placeholder id = %v, want tmp-1", start.Data[0]["id"])
	}
	if start.Data[1]["id"] != "kept" {
		t.Error("records carrying an id must keep it")
	}

	s := client.State()
	if s.Len() != 2 || s.NumPosting != 0 {
		t.Errorf("state after POST = %+v", s)
	}
	if _, ok := s.ByID("tmp-1"); !ok {
		t.Error("created record not in state")
	}
}

func TestPostPessimisticSkipsPlaceholders(t *testing.T) {
	client, rec := newClient(t, echoTransport(), WithPostOptimistic(false))

	if err := client.Post(context.Background(), []collection.Resource{{"title": "x", "id": "1"}}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if rec.actions[0].Mode != action.Pessimistic {
		t.Errorf("Mode = %v, want Pessimistic", rec.actions[0].Mode)
	}
}

func TestPostServerAssignedFieldsOverlay(t *testing.T) {
	tr := transport.Funcs{
		GetFunc: func(context.Context, string, any) (transport.Response, error) {
			return transport.Response{}, nil
		},
		PostFunc: func(_ context.Context, _ string, payload any) (transport.Response, error) {
			records := payload.([]collection.Resource)
			out := make([]collection.Resource, len(records))
			for i, r := range records {
				out[i] = r.Merge(collection.Resource{"id": "srv-9", "created_at": "2026-08-30"})
			}
			return transport.Response{Data: out}, nil
		},
		PatchFunc:  func(context.Context, string, any) (transport.Response, error) { return transport.Response{}, nil },
		DeleteFunc: func(context.Context, string, any) (transport.Response, error) { return transport.Response{}, nil },
	}
	client, _ := newClient(t, tr, WithIDGenerator(idgen.Sequential("tmp-")))

	if err := client.Post(context.Background(), []collection.Resource{{"title": "x"}}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	s := client.State()
	r, ok := s.ByID("srv-9")
	if !ok {
		t.Fatalf("server id not in state: %+v", s)
	}
	if r["title"] != "x" || r["created_at"] != "2026-08-30" {
		t.Errorf("merged record = %v", r)
	}
	if _, stale := s.ByID("tmp-1"); stale {
		t.Error("placeholder id must not survive once the server id lands")
	}
}

func TestPatchRollbackOnFailure(t *testing.T) {
	boom := errors.New("rejected")
	client, rec := newClient(t, failingTransport(boom),
		WithInitialState(seededState("1", collection.Resource{"id": "1", "qty": 5})),
	)

	err := client.Patch(context.Background(), []collection.Resource{{"id": "1", "qty": 9}})
	if !errors.Is(err, boom) {
		t.Fatalf("Patch error = %v, want %v", err, boom)
	}

	got := rec.phases()
	if len(got) != 2 || got[0] != action.Start || got[1] != action.Fail {
		t.Fatalf("phases = %v", got)
	}

	s := client.State()
	r, _ := s.ByID("1")
	if r["qty"] != 5 {
		t.Errorf("qty = %v, want the pre-patch value 5", r["qty"])
	}
	if len(s.PrePatchResources) != 0 {
		t.Error("snapshots must be discarded after rollback")
	}
}

func TestDeleteRollbackOnFailure(t *testing.T) {
	boom := errors.New("rejected")
	client, _ := newClient(t, failingTransport(boom),
		WithInitialState(seededState("1", collection.Resource{"id": "1", "title": "keep me"})),
	)

	if err := client.Delete(context.Background(), []collection.Resource{{"id": "1"}}); !errors.Is(err, boom) {
		t.Fatalf("Delete error = %v, want %v", err, boom)
	}

	s := client.State()
	r, ok := s.ByID("1")
	if !ok || r["title"] != "keep me" {
		t.Errorf("record must be restored after failed delete: %+v", s)
	}
}

func TestDeleteSuccessRemovesRecord(t *testing.T) {
	client, _ := newClient(t, echoTransport(),
		WithInitialState(seededState("1", collection.Resource{"id": "1"})),
	)

	if err := client.Delete(context.Background(), []collection.Resource{{"id": "1"}}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	s := client.State()
	if _, ok := s.ByID("1"); ok {
		t.Error("record must stay deleted after SUCCESS")
	}
	if len(s.PreDeleteResources) != 0 {
		t.Error("snapshot must be discarded after SUCCESS")
	}
}

func TestPartialOutcome(t *testing.T) {
	split := func(_ transport.Response, translated []collection.Resource) ([]collection.Resource, []collection.Resource, error) {
		var ok, failed []collection.Resource
		for _, r := range translated {
			if r["reject"] == true {
				failed = append(failed, r)
			} else {
				ok = append(ok, r)
			}
		}
		return ok, failed, nil
	}

	var handled error
	client, rec := newClient(t, echoTransport(),
		WithResponseSplitter(split),
		WithFailureHandler(func(err error, _ any) { handled = err }),
	)

	err := client.Post(context.Background(), []collection.Resource{
		{"id": "1"},
		{"id": "2", "reject": true},
	})
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("Post error = %v, want ErrPartialFailure", err)
	}
	if !errors.Is(handled, ErrPartialFailure) {
		t.Error("failure handler must fire on a partial outcome")
	}

	got := rec.phases()
	want := []action.Phase{action.Start, action.Success, action.Fail}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("phases = %v, want %v", got, want)
	}
	if rec.actions[1].Partial {
		t.Error("the first terminal dispatch resolves the in-flight counter")
	}
	if !rec.actions[2].Partial {
		t.Error("the second terminal dispatch must be flagged partial")
	}

	s := client.State()
	if s.NumPosting != 0 {
		t.Errorf("NumPosting = %d after partial outcome, want 0", s.NumPosting)
	}
	if _, ok := s.ByID("1"); !ok {
		t.Error("succeeded record must be inserted")
	}
	if _, ok := s.ByID("2"); ok {
		t.Error("failed record must not be inserted")
	}
}

func TestAllFailedSplitDispatchesOnlyFail(t *testing.T) {
	split := func(_ transport.Response, translated []collection.Resource) ([]collection.Resource, []collection.Resource, error) {
		return nil, translated, errors.New("every record rejected")
	}
	client, rec := newClient(t, echoTransport(), WithResponseSplitter(split))

	err := client.Post(context.Background(), []collection.Resource{{"id": "1"}})
	if err == nil {
		t.Fatal("expected the splitter error")
	}

	got := rec.phases()
	if len(got) != 2 || got[1] != action.Fail {
		t.Fatalf("phases = %v", got)
	}
	if rec.actions[1].Partial {
		t.Error("a fully failed outcome is not partial")
	}
	if client.State().NumPosting != 0 {
		t.Error("in-flight counter must resolve")
	}
}

func TestEmptyResponseStillResolvesCounter(t *testing.T) {
	client, rec := newClient(t, okTransport())

	if err := client.Post(context.Background(), []collection.Resource{{"id": "1"}}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got := rec.phases(); len(got) != 2 || got[1] != action.Success {
		t.Fatalf("phases = %v", got)
	}
	if client.State().NumPosting != 0 {
		t.Error("in-flight counter must resolve on an empty response")
	}
}

func TestRequestTranslatorShapesPayload(t *testing.T) {
	var sent any
	tr := transport.Funcs{
		GetFunc: func(context.Context, string, any) (transport.Response, error) {
			return transport.Response{}, nil
		},
		PostFunc: func(_ context.Context, _ string, payload any) (transport.Response, error) {
			sent = payload
			return transport.Response{}, nil
		},
		PatchFunc:  func(context.Context, string, any) (transport.Response, error) { return transport.Response{}, nil },
		DeleteFunc: func(context.Context, string, any) (transport.Response, error) { return transport.Response{}, nil },
	}

	client, _ := newClient(t, tr,
		WithOpConfig(action.Post, func(op *OpConfig) {
			op.TranslateRequest = func(records []collection.Resource) any {
				return map[string]any{"todos": records}
			}
		}),
	)

	if err := client.Post(context.Background(), []collection.Resource{{"id": "1"}}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	envelope, ok := sent.(map[string]any)
	if !ok || envelope["todos"] == nil {
		t.Errorf("payload = %v, want the enveloped shape", sent)
	}
}

func seededState(id string, r collection.Resource) collection.State {
	s := collection.NewState()
	s.Data[id] = r
	s.Order = []string{id}
	return s
}
