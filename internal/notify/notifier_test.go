package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclebets/oraclebets/internal/domain"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (s *recordingSender) Send(_ context.Context, title, _ string) error {
	s.titles = append(s.titles, title)
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifyFiltersEventTypes(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{"market_resolved"}, testLogger())

	err := n.Notify(context.Background(), domain.Event{Type: domain.EventBetPlaced, MarketID: 1})
	require.NoError(t, err)
	assert.Empty(t, sender.titles)

	err = n.Notify(context.Background(), domain.Event{Type: domain.EventMarketResolved, MarketID: 1})
	require.NoError(t, err)
	assert.Len(t, sender.titles, 1)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), domain.Event{Type: domain.EventBetPlaced, MarketID: 1}))
	assert.Len(t, sender.titles, 1)
}

func TestNotifyCollectsSenderErrors(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), domain.Event{Type: domain.EventMarketResolved, MarketID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	// The failing sender must not block the healthy one.
	assert.Len(t, good.titles, 1)
}

func TestFormatEvent(t *testing.T) {
	yes := true
	tests := []struct {
		name      string
		ev        domain.Event
		wantTitle string
		wantMsg   string
	}{
		{
			name:      "resolved yes",
			ev:        domain.Event{Type: domain.EventMarketResolved, MarketID: 3, Outcome: &yes},
			wantTitle: "Market #3 resolved",
			wantMsg:   "outcome YES",
		},
		{
			name:      "claimed",
			ev:        domain.Event{Type: domain.EventClaimed, MarketID: 3, Actor: "bob", Amount: 800},
			wantTitle: "Winnings claimed on market #3",
			wantMsg:   "bob received 800",
		},
		{
			name:      "cancelled",
			ev:        domain.Event{Type: domain.EventMarketCancelled, MarketID: 9, Actor: "alice"},
			wantTitle: "Market #9 cancelled",
			wantMsg:   "cancelled by alice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, msg := formatEvent(tt.ev)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

type staticBus struct {
	ch chan []byte
}

func (b *staticBus) Publish(context.Context, string, []byte) error { return nil }

func (b *staticBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, nil
}

func (b *staticBus) StreamAppend(context.Context, string, string, []byte) error { return nil }

func (b *staticBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func TestRelayForwardsEvents(t *testing.T) {
	bus := &staticBus{ch: make(chan []byte, 2)}
	sender := &recordingSender{name: "test"}
	relay := NewRelay(bus, NewNotifier([]Sender{sender}, nil, testLogger()), testLogger())

	payload, err := json.Marshal(domain.Event{Type: domain.EventMarketExpired, MarketID: 5})
	require.NoError(t, err)
	bus.ch <- []byte("not json")
	bus.ch <- payload
	close(bus.ch)

	err = relay.Run(context.Background(), "events")
	require.NoError(t, err)
	require.Len(t, sender.titles, 1)
	assert.Equal(t, "Market #5 expired", sender.titles[0])
}
