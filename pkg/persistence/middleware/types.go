// Package middleware wraps a ports.ConfigStore with storage-side behavior: encryption
// at rest and redaction of secret settings.
package middleware

import "github.com/aretw0/ultracard/pkg/ports"

// Middleware allows wrapping a ConfigStore to add behavior.
type Middleware func(ports.ConfigStore) ports.ConfigStore

// Chain applies mws to store; the first middleware sees calls first.
func Chain(store ports.ConfigStore, mws ...Middleware) ports.ConfigStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
