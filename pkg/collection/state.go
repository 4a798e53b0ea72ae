package collection

// State is one namespace's collection slice.
//
// Order may reference ids that are no longer present in Data (for example
// after a delete); consumers iterate through All, which skips dangling ids.
// An id present in PrePatchResources or PreDeleteResources denotes a mutation
// currently in flight for that id. Issuing a second concurrent mutation for
// the same id is a documented caller precondition, not something the library
// enforces.
type State struct {
	// Data maps resource id to resource, keyed by the configured id field.
	Data map[string]Resource

	// Order lists resource ids in fetch/insertion order.
	Order []string

	// NumGetsInProgress and NumPosting count concurrent in-flight calls.
	NumGetsInProgress int
	NumPosting        int

	// GetSucceeded and GetFailed reflect the most recent GET outcome.
	GetSucceeded bool
	GetFailed    bool

	// PreDeleteResources holds each resource as it existed immediately
	// before an in-flight delete, for restore on failure.
	PreDeleteResources map[string]Resource

	// PrePatchResources holds each resource as it existed immediately
	// before an in-flight patch, for restore on failure.
	PrePatchResources map[string]Resource
}

// NewState returns the zeroed default state with empty, non-nil maps.
func NewState() State {
	return State{
		Data:               map[string]Resource{},
		Order:              []string{},
		PreDeleteResources: map[string]Resource{},
		PrePatchResources:  map[string]Resource{},
	}
}

// Initialized reports whether the state has been seeded. The composed
// reducer uses this to distinguish "no prior state" from an empty collection.
func (s State) Initialized() bool {
	return s.Data != nil
}

// All returns the resources in Order, skipping dangling ids.
func (s State) All() []Resource {
	out := make([]Resource, 0, len(s.Order))
	for _, id := range s.Order {
		if r, ok := s.Data[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ByID looks up a single resource.
func (s State) ByID(id string) (Resource, bool) {
	r, ok := s.Data[id]
	return r, ok
}

// Len returns the number of resources currently in Data.
func (s State) Len() int {
	return len(s.Data)
}

// CopyData returns a fresh copy of Data for copy-on-write transitions.
func (s State) CopyData() map[string]Resource {
	out := make(map[string]Resource, len(s.Data))
	for k, v := range s.Data {
		out[k] = v
	}
	return out
}

// CopyOrder returns a fresh copy of Order.
func (s State) CopyOrder() []string {
	out := make([]string, len(s.Order))
	copy(out, s.Order)
	return out
}

// CopyPrePatch returns a fresh copy of PrePatchResources.
func (s State) CopyPrePatch() map[string]Resource {
	out := make(map[string]Resource, len(s.PrePatchResources))
	for k, v := range s.PrePatchResources {
		out[k] = v
	}
	return out
}

// CopyPreDelete returns a fresh copy of PreDeleteResources.
func (s State) CopyPreDelete() map[string]Resource {
	out := make(map[string]Resource, len(s.PreDeleteResources))
	for k, v := range s.PreDeleteResources {
		out[k] = v
	}
	return out
}
