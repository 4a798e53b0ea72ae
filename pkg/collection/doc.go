// Package collection defines the state model for one namespace's resource
// collection: the id-keyed resource map, the ordered id list, in-flight
// counters, and the pre-mutation snapshots that make optimistic rollback
// possible.
//
// State is a value type. Every transition in pkg/reducer produces a new State
// with fresh copies of any map or slice that changed, so a caller holding a
// previous State always sees a consistent snapshot.
//
// Usage:
//
//	s := collection.NewState()
//	for _, r := range s.All() {
//	    fmt.Println(r["name"])
//	}
package collection
