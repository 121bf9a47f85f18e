package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ProtocolService defines what the protocol handler needs from the service
// layer.
type ProtocolService interface {
	Initialize(ctx context.Context, admin string) (domain.Protocol, error)
	Get(ctx context.Context) (domain.Protocol, error)
}

// ProtocolHandler serves the protocol singleton endpoints.
type ProtocolHandler struct {
	protocol ProtocolService
	logger   *slog.Logger
}

// NewProtocolHandler creates a ProtocolHandler.
func NewProtocolHandler(protocol ProtocolService, logger *slog.Logger) *ProtocolHandler {
	return &ProtocolHandler{protocol: protocol, logger: logger}
}

// Initialize creates the protocol record with the caller as admin.
// POST /api/protocol/initialize
func (h *ProtocolHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	p, err := h.protocol.Initialize(r.Context(), caller)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get returns the protocol record.
// GET /api/protocol
func (h *ProtocolHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.protocol.Get(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
