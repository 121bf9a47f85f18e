package service

import (
	"context"
	"fmt"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ReputationService exposes read access to participant reputation.
type ReputationService struct {
	stores domain.Stores
}

// NewReputationService creates a ReputationService.
func NewReputationService(stores domain.Stores) *ReputationService {
	return &ReputationService{stores: stores}
}

// Get returns the reputation record for an agent.
func (s *ReputationService) Get(ctx context.Context, agent string) (domain.Reputation, error) {
	r, err := s.stores.Reputation.Get(ctx, agent)
	if err != nil {
		return domain.Reputation{}, fmt.Errorf("reputation_service: get %s: %w", agent, err)
	}
	return r, nil
}

// Leaderboard returns reputations ordered by accuracy, then total wagered.
func (s *ReputationService) Leaderboard(ctx context.Context, opts domain.ListOpts) ([]domain.Reputation, error) {
	reps, err := s.stores.Reputation.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("reputation_service: leaderboard: %w", err)
	}
	return reps, nil
}
