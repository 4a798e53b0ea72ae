package store

import (
	"sync"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/reducer"
)

// Dispatch applies one action to the store.
type Dispatch func(action.Action)

// Middleware wraps the dispatch chain. Middleware installed first runs
// outermost.
type Middleware func(next Dispatch) Dispatch

// Listener observes state changes. It receives the action's namespace, the
// state after reduction, and the action itself.
type Listener func(namespace string, s collection.State, a action.Action)

// Store holds one collection state per registered namespace.
type Store struct {
	mu         sync.Mutex
	states     map[string]collection.State
	registries map[string]*reducer.Registry

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int

	dispatch Dispatch
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	middleware []Middleware
}

// WithMiddleware installs middleware around dispatch, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *storeConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := &Store{
		states:     map[string]collection.State{},
		registries: map[string]*reducer.Registry{},
		listeners:  map[int]Listener{},
	}

	d := Dispatch(st.reduce)
	for i := len(cfg.middleware) - 1; i >= 0; i-- {
		d = cfg.middleware[i](d)
	}
	st.dispatch = d

	return st
}

// Register installs a registry for its namespace and seeds the namespace
// state, so an initial-state override is visible before the first dispatch.
// Registering a namespace twice replaces the previous registry but keeps
// the accumulated state.
func (st *Store) Register(r *reducer.Registry) {
	st.mu.Lock()
	st.registries[r.Namespace()] = r
	if _, ok := st.states[r.Namespace()]; !ok {
		st.states[r.Namespace()] = r.Seed()
	}
	st.mu.Unlock()
}

// Dispatch runs the action through the middleware chain and the matching
// registry, then notifies listeners with the resulting state.
func (st *Store) Dispatch(a action.Action) {
	st.dispatch(a)
}

// State returns the current state for a namespace. An unregistered or
// never-dispatched namespace yields the zeroed default.
func (st *Store) State(namespace string) collection.State {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.states[namespace]
	if !ok {
		return collection.NewState()
	}
	return s
}

// Subscribe adds a listener and returns a function removing it.
func (st *Store) Subscribe(fn Listener) (unsubscribe func()) {
	st.listenerMu.Lock()
	id := st.nextListener
	st.nextListener++
	st.listeners[id] = fn
	st.listenerMu.Unlock()

	return func() {
		st.listenerMu.Lock()
		delete(st.listeners, id)
		st.listenerMu.Unlock()
	}
}

// reduce is the innermost dispatch: route to the namespace's registry,
// swap the state, notify listeners.
func (st *Store) reduce(a action.Action) {
	st.mu.Lock()
	r, ok := st.registries[a.Namespace]
	if !ok {
		st.mu.Unlock()
		return
	}
	next := r.Reduce(st.states[a.Namespace], a)
	st.states[a.Namespace] = next
	st.mu.Unlock()

	st.listenerMu.Lock()
	fns := make([]Listener, 0, len(st.listeners))
	for _, fn := range st.listeners {
		fns = append(fns, fn)
	}
	st.listenerMu.Unlock()

	for _, fn := range fns {
		fn(a.Namespace, next, a)
	}
}
