package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/entropy"
)

// stubEntropyService implements EntropyService with function fields.
type stubEntropyService struct {
	UpsertTenantConfigFn    func(ctx context.Context, actor auth.Identity, period time.Duration) (*domain.EntropyConfig, error)
	UpsertBoardConfigFn     func(ctx context.Context, actor auth.Identity, boardID uuid.UUID, period time.Duration) (*domain.EntropyConfig, error)
	EffectivePeriodFn       func(ctx context.Context, tenantID, boardID uuid.UUID) (time.Duration, error)
	ListApproachingExpiryFn func(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*domain.Card, error)
	SweepFn                 func(ctx context.Context, now time.Time) (*entropy.SweepReport, error)
}

func (s *stubEntropyService) UpsertTenantConfig(ctx context.Context, actor auth.Identity, period time.Duration) (*domain.EntropyConfig, error) {
	return s.UpsertTenantConfigFn(ctx, actor, period)
}

func (s *stubEntropyService) UpsertBoardConfig(ctx context.Context, actor auth.Identity, boardID uuid.UUID, period time.Duration) (*domain.EntropyConfig, error) {
	return s.UpsertBoardConfigFn(ctx, actor, boardID, period)
}

func (s *stubEntropyService) EffectivePeriod(ctx context.Context, tenantID, boardID uuid.UUID) (time.Duration, error) {
	return s.EffectivePeriodFn(ctx, tenantID, boardID)
}

func (s *stubEntropyService) ListApproachingExpiry(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*domain.Card, error) {
	return s.ListApproachingExpiryFn(ctx, tenantID, now)
}

func (s *stubEntropyService) Sweep(ctx context.Context, now time.Time) (*entropy.SweepReport, error) {
	return s.SweepFn(ctx, now)
}

func doEntropyRequest(handler *EntropyHandler, identity *auth.Identity, method, path string, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Put("/entropy/config", handler.UpsertTenantConfig)
	r.Put("/boards/{boardID}/entropy/config", handler.UpsertBoardConfig)
	r.Post("/entropy/sweep", handler.TriggerSweep)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpsertTenantConfig(t *testing.T) {
	identity := auth.Identity{TenantID: uuid.New(), ActorID: uuid.New(), Role: auth.RoleAdmin}

	svc := &stubEntropyService{
		UpsertTenantConfigFn: func(ctx context.Context, actor auth.Identity, period time.Duration) (*domain.EntropyConfig, error) {
			assert.Equal(t, 72*time.Hour, period)
			return domain.NewTenantEntropyConfig(actor.TenantID, period)
		},
	}
	handler := NewEntropyHandler(svc, slog.Default())

	body, _ := json.Marshal(EntropyConfigRequest{PeriodHours: 72})
	rec := doEntropyRequest(handler, &identity, http.MethodPut, "/entropy/config", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp EntropyConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(72), resp.PeriodHours)
}

func TestUpsertConfigRejectsNonPositivePeriod(t *testing.T) {
	identity := auth.Identity{TenantID: uuid.New(), ActorID: uuid.New(), Role: auth.RoleAdmin}
	handler := NewEntropyHandler(&stubEntropyService{}, slog.Default())

	for _, hours := range []int{0, -24} {
		body, _ := json.Marshal(EntropyConfigRequest{PeriodHours: hours})

		rec := doEntropyRequest(handler, &identity, http.MethodPut, "/entropy/config", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "tenant config, period_hours=%d", hours)

		rec = doEntropyRequest(handler, &identity, http.MethodPut,
			"/boards/"+uuid.New().String()+"/entropy/config", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "board config, period_hours=%d", hours)
	}
}

func TestTriggerSweepRequiresAdmin(t *testing.T) {
	identity := testIdentity()
	handler := NewEntropyHandler(&stubEntropyService{}, slog.Default())

	rec := doEntropyRequest(handler, &identity, http.MethodPost, "/entropy/sweep", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
