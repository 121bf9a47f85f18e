package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oraclebets/oraclebets/internal/service"
)

// ActivityService defines what the activity handler needs from the service
// layer.
type ActivityService interface {
	Recent(ctx context.Context, lastID string, count int, eventType string) ([]service.ActivityEntry, error)
}

// ActivityHandler serves the durable event feed.
type ActivityHandler struct {
	activity ActivityService
	logger   *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activity ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

// ListActivity returns recent events. The after parameter is a stream id
// from a previous page; omit it to read from the start of the retained
// window. A type parameter keeps only events of that type.
// GET /api/activity?after=<id>&limit=50&type=market_resolved
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	after := r.URL.Query().Get("after")
	eventType := r.URL.Query().Get("type")

	entries, err := h.activity.Recent(r.Context(), after, opts.Limit, eventType)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}
