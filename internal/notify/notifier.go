// Package notify delivers settlement lifecycle alerts to external channels.
// Events are dispatched to all registered senders (Telegram, Discord) and can
// be filtered by event type so operators receive only the alerts they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches lifecycle events to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards events whose type is in
// the allowed set. An empty set allows every type.
type Notifier struct {
	senders []Sender
	events  map[domain.EventType]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded; if events
// is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.EventType]bool, len(events))
	for _, e := range events {
		allowed[domain.EventType(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify formats ev and sends it to all senders, subject to the event type
// filter.
func (n *Notifier) Notify(ctx context.Context, ev domain.Event) error {
	if len(n.events) > 0 && !n.events[ev.Type] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("type", string(ev.Type)),
		)
		return nil
	}

	title, message := formatEvent(ev)
	return n.dispatch(ctx, title, message)
}

// formatEvent renders an event as a short title plus a detail line.
func formatEvent(ev domain.Event) (title, message string) {
	switch ev.Type {
	case domain.EventMarketCreated:
		title = fmt.Sprintf("Market #%d created", ev.MarketID)
		message = fmt.Sprintf("created by %s", ev.Actor)
	case domain.EventBetPlaced:
		title = fmt.Sprintf("Bet placed on market #%d", ev.MarketID)
		message = fmt.Sprintf("%s wagered %d", ev.Actor, ev.Amount)
	case domain.EventMarketClosed:
		title = fmt.Sprintf("Market #%d closed", ev.MarketID)
		message = "betting window is over"
	case domain.EventMarketResolved:
		title = fmt.Sprintf("Market #%d resolved", ev.MarketID)
		outcome := "NO"
		if ev.Outcome != nil && *ev.Outcome {
			outcome = "YES"
		}
		message = fmt.Sprintf("outcome %s", outcome)
	case domain.EventMarketCancelled:
		title = fmt.Sprintf("Market #%d cancelled", ev.MarketID)
		message = fmt.Sprintf("cancelled by %s", ev.Actor)
	case domain.EventMarketExpired:
		title = fmt.Sprintf("Market #%d expired", ev.MarketID)
		message = "resolution window passed without settlement"
	case domain.EventClaimed:
		title = fmt.Sprintf("Winnings claimed on market #%d", ev.MarketID)
		message = fmt.Sprintf("%s received %d", ev.Actor, ev.Amount)
	case domain.EventReclaimed:
		title = fmt.Sprintf("Bet reclaimed on market #%d", ev.MarketID)
		message = fmt.Sprintf("%s refunded %d", ev.Actor, ev.Amount)
	default:
		title = string(ev.Type)
		message = fmt.Sprintf("market #%d", ev.MarketID)
	}
	return title, message
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
