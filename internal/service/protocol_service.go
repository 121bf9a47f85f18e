package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ProtocolService manages the deployment-wide singleton record.
type ProtocolService struct {
	stores domain.Stores
	tx     domain.TxRunner
	logger *slog.Logger
	now    func() time.Time
}

// NewProtocolService creates a ProtocolService.
func NewProtocolService(stores domain.Stores, tx domain.TxRunner, logger *slog.Logger) *ProtocolService {
	return &ProtocolService{
		stores: stores,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

// Initialize creates the protocol record with the given admin. It runs
// exactly once per deployment; a second call fails with
// domain.ErrAlreadyExists.
func (s *ProtocolService) Initialize(ctx context.Context, admin string) (domain.Protocol, error) {
	p := domain.Protocol{
		Admin:         admin,
		MarketCount:   0,
		TotalVolume:   0,
		InitializedAt: s.now().UTC(),
	}

	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		return st.Protocol.Create(ctx, p)
	})
	if err != nil {
		return domain.Protocol{}, fmt.Errorf("protocol_service: initialize: %w", err)
	}

	s.logger.InfoContext(ctx, "protocol_service: initialized",
		slog.String("admin", admin),
	)
	return p, nil
}

// Get returns the protocol record.
func (s *ProtocolService) Get(ctx context.Context) (domain.Protocol, error) {
	p, err := s.stores.Protocol.Get(ctx)
	if err != nil {
		return domain.Protocol{}, fmt.Errorf("protocol_service: get: %w", err)
	}
	return p, nil
}
