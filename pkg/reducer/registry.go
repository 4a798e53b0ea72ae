package reducer

import (
	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

// Registry composes the transitions for one namespace into a single
// reducer. Dispatch matching uses the action's (op, mode, phase) tag;
// actions addressed to other namespaces, and tags with no registered
// transition, pass the state through unchanged.
type Registry struct {
	namespace string
	entries   Group
	base      Func
	initial   *collection.State
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBase chains a caller-supplied reducer after the registry's own
// transition. It sees every action, matched or not.
func WithBase(fn Func) RegistryOption {
	return func(r *Registry) {
		r.base = fn
	}
}

// WithInitialState overlays the given state over the zeroed default when
// the registry seeds a previously uninitialized state.
func WithInitialState(s collection.State) RegistryOption {
	return func(r *Registry) {
		r.initial = &s
	}
}

// NewRegistry creates an empty registry for a namespace.
func NewRegistry(namespace string, opts ...RegistryOption) *Registry {
	r := &Registry{
		namespace: namespace,
		entries:   Group{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Namespace returns the namespace this registry serves.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Add flattens the given groups into the registry. Later groups win on
// key conflicts. Returns the registry for chaining.
func (r *Registry) Add(groups ...Group) *Registry {
	for _, g := range groups {
		for k, fn := range g {
			r.entries[k] = fn
		}
	}
	return r
}

// Reduce applies the action to the state. An uninitialized state is seeded
// with Seed before the transition runs.
func (r *Registry) Reduce(s collection.State, a action.Action) collection.State {
	if !s.Initialized() {
		s = r.Seed()
	}
	if a.Namespace == r.namespace {
		if fn, ok := r.entries[a.Key()]; ok {
			s = fn(s, a)
		}
	}
	if r.base != nil {
		s = r.base(s, a)
	}
	return s
}

// Seed returns the registry's starting state: the zeroed default, deep-copied
// from the optional initial override so later transitions cannot alias it.
// The store calls this when the registry is installed, so the seeded state is
// visible before the first dispatch.
func (r *Registry) Seed() collection.State {
	s := collection.NewState()
	if r.initial == nil {
		return s
	}
	o := *r.initial
	if o.Data != nil {
		s.Data = o.CopyData()
	}
	if o.Order != nil {
		s.Order = o.CopyOrder()
	}
	if o.PrePatchResources != nil {
		s.PrePatchResources = o.CopyPrePatch()
	}
	if o.PreDeleteResources != nil {
		s.PreDeleteResources = o.CopyPreDelete()
	}
	s.NumGetsInProgress = o.NumGetsInProgress
	s.NumPosting = o.NumPosting
	s.GetSucceeded = o.GetSucceeded
	s.GetFailed = o.GetFailed
	return s
}
