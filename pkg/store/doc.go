// Package store provides the host store the composed reducers plug into:
// a central holder of per-namespace collection states with serialized
// dispatch, subscriptions, and a middleware chain.
//
// Dispatches are serialized by a mutex, so reducers always see a consistent
// sequence even when operations complete on different goroutines. States are
// values produced copy-on-write, so a State returned from Store.State is a
// stable snapshot.
//
// Usage:
//
//	st := store.New(store.WithMiddleware(middleware.Logger(log)))
//	st.Register(client.Registry())
//	unsub := st.Subscribe(func(ns string, s collection.State, a action.Action) {
//	    render(s)
//	})
//	defer unsub()
package store
