package entropy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
)

// UpsertTenantConfig sets the tenant-wide auto-postpone period. Admin only.
func (s *Scheduler) UpsertTenantConfig(
	ctx context.Context,
	actor auth.Identity,
	period time.Duration,
) (*domain.EntropyConfig, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can change entropy config", domain.ErrUnauthorized)
	}

	cfg, err := domain.NewTenantEntropyConfig(actor.TenantID, period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("tenant entropy config updated",
		slog.String("tenant_id", actor.TenantID.String()),
		slog.Duration("period", period))
	return cfg, nil
}

// UpsertBoardConfig sets a board-level auto-postpone period overriding the
// tenant's. Admin only.
func (s *Scheduler) UpsertBoardConfig(
	ctx context.Context,
	actor auth.Identity,
	boardID uuid.UUID,
	period time.Duration,
) (*domain.EntropyConfig, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can change entropy config", domain.ErrUnauthorized)
	}

	if _, err := s.boards.GetBoard(ctx, actor.TenantID, boardID); err != nil {
		return nil, err
	}

	cfg, err := domain.NewBoardEntropyConfig(actor.TenantID, boardID, period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("board entropy config updated",
		slog.String("tenant_id", actor.TenantID.String()),
		slog.String("board_id", boardID.String()),
		slog.Duration("period", period))
	return cfg, nil
}
