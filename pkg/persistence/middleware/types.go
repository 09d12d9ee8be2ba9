// Package middleware provides composable wrappers around a session state
// store: at-rest encryption and PII scrubbing for student conversations.
package middleware

import "github.com/parleylabs/parley/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares outside-in: Chain(store, A, B) loads through A
// then B then the store.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
