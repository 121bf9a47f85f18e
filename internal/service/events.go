package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// Redis channel and stream names shared by publishers and subscribers.
const (
	// EventsChannel carries live event fan-out to websocket clients.
	EventsChannel = "events"
	// ActivityStream is the durable, trimmed activity feed.
	ActivityStream = "activity"
)

// lockTTL bounds how long one operation may hold a market's lock.
const lockTTL = 10 * time.Second

// publishEvent broadcasts an event to live subscribers and appends it to the
// durable activity stream. Failures are logged, never propagated: the state
// change has already committed and must not be rolled back by a bus hiccup.
func publishEvent(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.WarnContext(ctx, "service: marshal event failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := bus.Publish(ctx, EventsChannel, payload); err != nil {
		logger.WarnContext(ctx, "service: publish event failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
	if err := bus.StreamAppend(ctx, ActivityStream, string(ev.Type), payload); err != nil {
		logger.WarnContext(ctx, "service: append activity failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
}
