package api

import (
	"github.com/elinsky/execution-service/internal/auth"
	"github.com/elinsky/execution-service/internal/sse"
	"github.com/elinsky/execution-service/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	store  *store.Store
	tokens *auth.TokenIssuer
	broker *sse.Broker // optional; nil disables change events
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, tokens *auth.TokenIssuer, broker *sse.Broker) *Handler {
	return &Handler{store: st, tokens: tokens, broker: broker}
}

// publish broadcasts an entity change to SSE subscribers.
func (h *Handler) publish(kind, op, key string) {
	if h.broker != nil {
		h.broker.PublishChange(kind, op, key)
	}
}
