package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ReputationService defines what the reputation handler needs from the
// service layer.
type ReputationService interface {
	Get(ctx context.Context, agent string) (domain.Reputation, error)
	Leaderboard(ctx context.Context, opts domain.ListOpts) ([]domain.Reputation, error)
}

// ReputationHandler serves reputation and leaderboard endpoints.
type ReputationHandler struct {
	reputation ReputationService
	logger     *slog.Logger
}

// NewReputationHandler creates a ReputationHandler.
func NewReputationHandler(reputation ReputationService, logger *slog.Logger) *ReputationHandler {
	return &ReputationHandler{reputation: reputation, logger: logger}
}

// GetReputation returns one agent's reputation record.
// GET /api/reputation/{agent}
func (h *ReputationHandler) GetReputation(w http.ResponseWriter, r *http.Request) {
	agent := r.PathValue("agent")
	if agent == "" {
		writeError(w, http.StatusBadRequest, "missing agent")
		return
	}

	rep, err := h.reputation.Get(r.Context(), agent)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Leaderboard returns agents ordered by accuracy, then total wagered.
// GET /api/leaderboard
func (h *ReputationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	reps, err := h.reputation.Leaderboard(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": reps})
}
