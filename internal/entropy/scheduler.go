// Package entropy implements the periodic sweep that postpones cards whose
// inactivity exceeds the configured threshold. The sweep drives the same
// transition function a user would call, under the system actor, so the
// state machine keeps a single entry point.
package entropy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/lifecycle"
	"github.com/kestrelhq/driftboard/internal/metrics"
	"github.com/kestrelhq/driftboard/internal/platform/logger"
	"github.com/kestrelhq/driftboard/internal/store"
)

// approachingExpiryFraction is the share of the effective period after which
// a card appears in the approaching-expiry listing.
const approachingExpiryFraction = 0.75

// SweepReport summarizes one sweep run.
type SweepReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Tenants   int           `json:"tenants"`
	Scanned   int           `json:"scanned"`
	Postponed int           `json:"postponed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
}

// Scheduler finds stale active cards and postpones them through the
// lifecycle engine. It holds no state between runs; re-running a sweep is
// safe because only genuinely eligible cards are ever affected.
type Scheduler struct {
	engine  *lifecycle.Engine
	cards   store.CardStore
	boards  store.BoardStore
	tenants store.TenantStore
	configs store.EntropyConfigStore
	logger  *slog.Logger

	// defaultPeriod is the system fallback when neither board nor tenant
	// config exists. Defaults to domain.DefaultAutoPostponePeriod.
	defaultPeriod time.Duration
}

// NewScheduler creates a new entropy Scheduler.
func NewScheduler(
	engine *lifecycle.Engine,
	cards store.CardStore,
	boards store.BoardStore,
	tenants store.TenantStore,
	configs store.EntropyConfigStore,
	logger *slog.Logger,
) *Scheduler {
	if engine == nil {
		panic("engine cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if boards == nil {
		panic("boards cannot be nil")
	}
	if tenants == nil {
		panic("tenants cannot be nil")
	}
	if configs == nil {
		panic("configs cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		engine:        engine,
		cards:         cards,
		boards:        boards,
		tenants:       tenants,
		configs:       configs,
		logger:        logger.With(slog.String("component", "entropy_scheduler")),
		defaultPeriod: domain.DefaultAutoPostponePeriod,
	}
}

// SetDefaultPeriod overrides the system fallback period. Used at startup
// when the deployment configures its own default.
func (s *Scheduler) SetDefaultPeriod(period time.Duration) {
	if period > 0 {
		s.defaultPeriod = period
	}
}

// EffectivePeriod resolves the auto-postpone period for a board: board-level
// config, then tenant-level config, then the system default.
func (s *Scheduler) EffectivePeriod(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
) (time.Duration, error) {
	cfg, err := s.configs.GetForBoard(ctx, tenantID, boardID)
	if err == nil {
		return cfg.AutoPostponePeriod, nil
	}
	if !errors.Is(err, store.ErrEntropyConfigNotFound) {
		return 0, err
	}

	cfg, err = s.configs.GetForTenant(ctx, tenantID)
	if err == nil {
		return cfg.AutoPostponePeriod, nil
	}
	if !errors.Is(err, store.ErrEntropyConfigNotFound) {
		return 0, err
	}

	return s.defaultPeriod, nil
}

// Sweep scans every tenant for active cards whose inactivity exceeds their
// effective period and postpones them. Per-card failures are logged and
// skipped; they never abort the rest of the batch. The returned report is
// best-effort even when an error is returned for the tenant listing.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	report := &SweepReport{StartedAt: now}

	defer func() {
		report.Duration = time.Since(now)
		metrics.SweepDuration.Observe(report.Duration.Seconds())
	}()

	tenantIDs, err := s.tenants.ListIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list tenants for sweep: %w", err)
	}
	report.Tenants = len(tenantIDs)

	for _, tenantID := range tenantIDs {
		s.sweepTenant(ctx, tenantID, now, report)
	}

	log.Info("entropy sweep finished",
		slog.Int("tenants", report.Tenants),
		slog.Int("scanned", report.Scanned),
		slog.Int("postponed", report.Postponed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

// sweepTenant processes one tenant. Failures are recorded in the report and
// logged; nothing propagates so the remaining tenants still run.
func (s *Scheduler) sweepTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	now time.Time,
	report *SweepReport,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	actor := auth.SystemIdentity(tenantID)

	boards, err := s.boards.ListBoards(ctx, tenantID)
	if err != nil {
		log.Error("failed to list boards for sweep",
			slog.String("tenant_id", tenantID.String()),
			slog.String("error", err.Error()))
		report.Failed++
		return
	}

	for _, board := range boards {
		period, err := s.EffectivePeriod(ctx, tenantID, board.ID)
		if err != nil {
			log.Error("failed to resolve entropy period",
				slog.String("tenant_id", tenantID.String()),
				slog.String("board_id", board.ID.String()),
				slog.String("error", err.Error()))
			report.Failed++
			continue
		}

		cutoff := now.Add(-period)
		stale, err := s.cards.ListStaleByBoard(ctx, tenantID, board.ID, cutoff)
		if err != nil {
			log.Error("failed to scan stale cards",
				slog.String("tenant_id", tenantID.String()),
				slog.String("board_id", board.ID.String()),
				slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		report.Scanned += len(stale)

		for _, card := range stale {
			s.postponeCard(ctx, actor, card.ID, cutoff, report)
		}
	}
}

// postponeCard drives one card through the engine's postpone transition with
// the sweep cutoff as a guard. A card touched between the scan read and this
// write fails the guard and is silently skipped.
func (s *Scheduler) postponeCard(
	ctx context.Context,
	actor auth.Identity,
	cardID uuid.UUID,
	cutoff time.Time,
	report *SweepReport,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.engine.Transition(ctx, actor, cardID, lifecycle.ActionPostpone,
		lifecycle.TransitionParams{IfInactiveSince: &cutoff})

	switch {
	case err == nil:
		report.Postponed++
		metrics.SweepCardsTotal.WithLabelValues("postponed").Inc()

	case errors.Is(err, domain.ErrConcurrencyConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, store.ErrNotFound):
		// Mutated, already postponed, or deleted since the scan read.
		report.Skipped++
		metrics.SweepCardsTotal.WithLabelValues("skipped").Inc()
		log.Debug("sweep skipped card",
			slog.String("card_id", cardID.String()),
			slog.String("reason", err.Error()))

	default:
		report.Failed++
		metrics.SweepCardsTotal.WithLabelValues("failed").Inc()
		log.Error("sweep failed to postpone card",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
	}
}

// ListApproachingExpiry returns the tenant's active cards past 75% of their
// board's effective period. It is read-only and safe to call on any
// schedule.
func (s *Scheduler) ListApproachingExpiry(
	ctx context.Context,
	tenantID uuid.UUID,
	now time.Time,
) ([]*domain.Card, error) {
	boards, err := s.boards.ListBoards(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var approaching []*domain.Card
	for _, board := range boards {
		period, err := s.EffectivePeriod(ctx, tenantID, board.ID)
		if err != nil {
			return nil, err
		}

		warnCutoff := now.Add(-time.Duration(float64(period) * approachingExpiryFraction))
		cards, err := s.cards.ListStaleByBoard(ctx, tenantID, board.ID, warnCutoff)
		if err != nil {
			return nil, err
		}
		approaching = append(approaching, cards...)
	}

	return approaching, nil
}
