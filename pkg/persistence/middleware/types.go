// Package middleware wraps a ports.ConversationStore with behavior that
// applies to every snapshot on its way in or out of storage.
package middleware

import "github.com/Lenny-the-burger/hlg/pkg/ports"

// Middleware allows wrapping a ConversationStore to add behavior.
type Middleware func(ports.ConversationStore) ports.ConversationStore

// Chain wraps next with mws. The first middleware is the outermost one, so
// it sees a Save first and a Load last.
func Chain(next ports.ConversationStore, mws ...Middleware) ports.ConversationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			next = mws[i](next)
		}
	}
	return next
}
