package domain

import (
	"context"
	"time"
)

// EventType identifies a settlement lifecycle event.
type EventType string

const (
	EventMarketCreated   EventType = "market_created"
	EventBetPlaced       EventType = "bet_placed"
	EventMarketClosed    EventType = "market_closed"
	EventMarketResolved  EventType = "market_resolved"
	EventMarketCancelled EventType = "market_cancelled"
	EventMarketExpired   EventType = "market_expired"
	EventClaimed         EventType = "winnings_claimed"
	EventReclaimed       EventType = "bet_reclaimed"
)

// Event is the envelope broadcast to subscribers after a successful
// operation. Amount carries the wagered or paid-out value where applicable.
type Event struct {
	Type     EventType `json:"type"`
	MarketID uint64    `json:"market_id"`
	Actor    string    `json:"actor,omitempty"`
	Amount   uint64    `json:"amount,omitempty"`
	Outcome  *bool     `json:"outcome,omitempty"`
	At       time.Time `json:"at"`
}

// StreamMessage is a single entry read back from the durable activity feed.
// Type carries the event type stored alongside the payload, so readers can
// filter without decoding every entry.
type StreamMessage struct {
	ID      string
	Type    string
	Payload []byte
}

// SignalBus provides pub/sub fan-out for live subscribers and a durable
// stream for the activity feed.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, eventType string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
