package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kestrelhq/driftboard/internal/api"
	apiMiddleware "github.com/kestrelhq/driftboard/internal/api/middleware"
	"github.com/kestrelhq/driftboard/internal/lifecycle"
	"github.com/kestrelhq/driftboard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(metrics.Middleware)

	cardHandler := api.NewCardHandler(app.engine, app.logger)
	boardHandler := api.NewBoardHandler(app.engine, app.logger)
	entropyHandler := api.NewEntropyHandler(app.scheduler, app.logger)
	eventHandler := api.NewEventHandler(app.eventStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.Auth(app.verifier))

		r.Post("/boards", boardHandler.CreateBoard)
		r.Get("/boards", boardHandler.ListBoards)
		r.Get("/boards/{boardID}", boardHandler.GetBoard)
		r.Post("/boards/{boardID}/columns", boardHandler.CreateColumn)
		r.Post("/boards/{boardID}/members", boardHandler.AddMember)
		r.Get("/boards/{boardID}/cards", cardHandler.ListBoardCards)

		r.Post("/cards", cardHandler.CreateCard)
		r.Get("/cards/{cardID}", cardHandler.GetCard)
		r.Delete("/cards/{cardID}", cardHandler.DeleteCard)
		r.Post("/cards/{cardID}/publish", cardHandler.Transition(lifecycle.ActionPublish))
		r.Post("/cards/{cardID}/close", cardHandler.Transition(lifecycle.ActionClose))
		r.Post("/cards/{cardID}/postpone", cardHandler.Transition(lifecycle.ActionPostpone))
		r.Post("/cards/{cardID}/reopen", cardHandler.Transition(lifecycle.ActionReopen))
		r.Post("/cards/{cardID}/resume", cardHandler.Transition(lifecycle.ActionResume))
		r.Post("/cards/{cardID}/triage", cardHandler.TriageCard)
		r.Post("/cards/{cardID}/comments", cardHandler.CommentCard)
		r.Get("/cards/{cardID}/events", eventHandler.ListCardEvents)

		r.Get("/events", eventHandler.ListByAction)

		r.Put("/entropy/config", entropyHandler.UpsertTenantConfig)
		r.Put("/boards/{boardID}/entropy/config", entropyHandler.UpsertBoardConfig)
		r.Get("/boards/{boardID}/entropy/period", entropyHandler.EffectivePeriod)
		r.Get("/entropy/approaching", entropyHandler.ListApproachingExpiry)
		r.Post("/entropy/sweep", entropyHandler.TriggerSweep)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
