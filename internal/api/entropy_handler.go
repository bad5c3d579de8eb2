package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/api/shared"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/entropy"
)

// EntropyService is the slice of the entropy scheduler the handlers use.
type EntropyService interface {
	UpsertTenantConfig(
		ctx context.Context,
		actor auth.Identity,
		period time.Duration,
	) (*domain.EntropyConfig, error)
	UpsertBoardConfig(
		ctx context.Context,
		actor auth.Identity,
		boardID uuid.UUID,
		period time.Duration,
	) (*domain.EntropyConfig, error)
	EffectivePeriod(ctx context.Context, tenantID, boardID uuid.UUID) (time.Duration, error)
	ListApproachingExpiry(
		ctx context.Context,
		tenantID uuid.UUID,
		now time.Time,
	) ([]*domain.Card, error)
	Sweep(ctx context.Context, now time.Time) (*entropy.SweepReport, error)
}

// EntropyHandler handles entropy-config and sweep HTTP requests.
type EntropyHandler struct {
	svc       EntropyService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewEntropyHandler creates a new EntropyHandler.
func NewEntropyHandler(svc EntropyService, logger *slog.Logger) *EntropyHandler {
	if svc == nil {
		panic("svc cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for EntropyHandler")
	}

	return &EntropyHandler{
		svc:       svc,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "entropy_handler")),
	}
}

// EntropyConfigRequest represents the request body for setting an
// auto-postpone period. The period is expressed in hours to keep the API
// free of duration-string parsing.
type EntropyConfigRequest struct {
	PeriodHours int `json:"period_hours" validate:"required,gt=0"`
}

// EntropyConfigResponse represents the response data for an entropy config.
type EntropyConfigResponse struct {
	Scope       string  `json:"scope"`
	BoardID     *string `json:"board_id,omitempty"`
	PeriodHours float64 `json:"period_hours"`
}

func entropyConfigToResponse(cfg *domain.EntropyConfig) EntropyConfigResponse {
	resp := EntropyConfigResponse{
		Scope:       string(cfg.Scope),
		PeriodHours: cfg.AutoPostponePeriod.Hours(),
	}
	if cfg.BoardID != nil {
		boardID := cfg.BoardID.String()
		resp.BoardID = &boardID
	}
	return resp
}

// UpsertTenantConfig handles PUT /entropy/config requests.
func (h *EntropyHandler) UpsertTenantConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req EntropyConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg, err := h.svc.UpsertTenantConfig(r.Context(), actor, time.Duration(req.PeriodHours)*time.Hour)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entropyConfigToResponse(cfg))
}

// UpsertBoardConfig handles PUT /boards/{boardID}/entropy/config requests.
func (h *EntropyHandler) UpsertBoardConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	var req EntropyConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg, err := h.svc.UpsertBoardConfig(r.Context(), actor, boardID,
		time.Duration(req.PeriodHours)*time.Hour)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entropyConfigToResponse(cfg))
}

// EffectivePeriod handles GET /boards/{boardID}/entropy/period requests.
func (h *EntropyHandler) EffectivePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	period, err := h.svc.EffectivePeriod(r.Context(), actor.TenantID, boardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]float64{
		"period_hours": period.Hours(),
	})
}

// ListApproachingExpiry handles GET /entropy/approaching requests. It
// surfaces the cards the next sweeps are likely to postpone so clients can
// warn users ahead of time.
func (h *EntropyHandler) ListApproachingExpiry(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	cards, err := h.svc.ListApproachingExpiry(r.Context(), actor.TenantID, time.Now().UTC())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// TriggerSweep handles POST /entropy/sweep requests. Admin only; the same
// sweep also runs on the background interval, so this exists for operational
// nudges and testing against a live deployment.
func (h *EntropyHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		shared.RespondWithError(w, r, http.StatusForbidden, "Admin role required")
		return
	}

	report, err := h.svc.Sweep(r.Context(), time.Now().UTC())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
