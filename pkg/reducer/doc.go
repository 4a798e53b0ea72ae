// Package reducer implements the state transitions for a resource
// collection and the registry that composes them into one reducer per
// namespace.
//
// PATCH and DELETE have optimistic variants that apply the mutation locally
// on START, snapshot the prior value, and either discard the snapshot
// (SUCCESS) or restore from it (FAIL). GET and POST are pessimistic:
// in-flight counters on START, data replacement or merge on SUCCESS.
//
// Every transition is a pure function of (State, Action); changed maps and
// slices are fresh copies, never mutated in place.
//
// Usage:
//
//	reg := reducer.NewRegistry("todos").Add(
//	    reducer.Get("id"),
//	    reducer.Post("id", action.Optimistic),
//	    reducer.OptimisticPatch("id", log),
//	    reducer.OptimisticDelete("id", log),
//	)
//	next := reg.Reduce(prev, act)
package reducer
