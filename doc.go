// Package autoapi generates dispatchable CRUD operations and a composed
// reducer for a remote resource collection, with optional optimistic local
// updates and rollback on failure.
//
// Given a namespace, an endpoint, and a Transport, New wires a reducer
// registry into a store and returns a Client whose Get/Post/Patch/Delete
// methods run the three-phase dispatch protocol: START synchronously, then
// the transport call, then exactly one of SUCCESS or FAIL (or both, for a
// partially failed POST/PATCH).
//
// Basic usage:
//
//	st := store.New()
//	todos, err := autoapi.New(st, "todos", "https://api.example.com/todos",
//	    transport.NewHTTP(),
//	    autoapi.WithIDKey("id"),
//	    autoapi.WithPatchFailureHandler(func(err error, req any) {
//	        toast.Error("saving failed, changes reverted")
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = todos.Get(ctx, nil)
//	for _, todo := range todos.State().All() {
//	    fmt.Println(todo["title"])
//	}
//
// PATCH and DELETE default to optimistic mode: the local collection is
// updated before the server confirms, with the pre-mutation value kept as a
// snapshot. On failure the snapshot is restored, so consumers render the
// tentative value during the call and the original value after a rollback.
// The library never serializes concurrent mutations for the same resource
// id; avoiding overlap is the caller's responsibility.
package autoapi
