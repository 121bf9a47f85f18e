package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ActivityEntry is one decoded item of the durable activity feed.
type ActivityEntry struct {
	ID    string       `json:"id"`
	Event domain.Event `json:"event"`
}

// ActivityService reads the durable activity stream backing the event feed.
type ActivityService struct {
	bus domain.SignalBus
}

// NewActivityService creates an ActivityService.
func NewActivityService(bus domain.SignalBus) *ActivityService {
	return &ActivityService{bus: bus}
}

// Recent returns up to count entries recorded after lastID. Use "0" as lastID
// to read from the start of the retained window. A non-empty eventType keeps
// only entries of that type, matched against the type field stored with each
// stream entry. Entries whose payload no longer decodes are skipped.
func (s *ActivityService) Recent(ctx context.Context, lastID string, count int, eventType string) ([]ActivityEntry, error) {
	if lastID == "" {
		lastID = "0"
	}
	msgs, err := s.bus.StreamRead(ctx, ActivityStream, lastID, count)
	if err != nil {
		return nil, fmt.Errorf("activity_service: read: %w", err)
	}

	entries := make([]ActivityEntry, 0, len(msgs))
	for _, msg := range msgs {
		if eventType != "" && msg.Type != eventType {
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			continue
		}
		entries = append(entries, ActivityEntry{ID: msg.ID, Event: ev})
	}
	return entries, nil
}
