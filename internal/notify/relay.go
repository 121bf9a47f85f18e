package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// Relay subscribes to the live event channel and forwards each decoded event
// to the Notifier. Delivery failures are logged and skipped; the relay only
// stops when its context is cancelled or the subscription drops.
type Relay struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewRelay creates a Relay reading from bus and delivering through notifier.
func NewRelay(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *Relay {
	return &Relay{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_relay")),
	}
}

// Run consumes events from channel until ctx is cancelled.
func (r *Relay) Run(ctx context.Context, channel string) error {
	ch, err := r.bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", channel, err)
	}

	r.logger.InfoContext(ctx, "relay started", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				r.logger.WarnContext(ctx, "undecodable event payload",
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := r.notifier.Notify(ctx, ev); err != nil {
				r.logger.WarnContext(ctx, "notification delivery failed",
					slog.String("type", string(ev.Type)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
