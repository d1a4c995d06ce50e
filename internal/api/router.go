/**
 * @description
 * This file sets up the HTTP router for the credit-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * standard middleware. Authentication is owned by the gateway in front of this
 * service; nothing here inspects credentials.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CreditRoutes creates and returns a new router for the credit service.
func CreditRoutes(h *CreditHandlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/decisions", func(r chi.Router) {
		r.Post("/", h.CreateDecisionHandler)
		r.Get("/", h.ListDecisionsHandler)
		r.Get("/request/{creditRequestID}", h.GetDecisionByRequestHandler)
		r.Get("/{id}", h.GetDecisionHandler)
		r.Patch("/{id}", h.UpdateDecisionHandler)
		r.Delete("/{id}", h.DeleteDecisionHandler)
		r.Post("/{id}/accept", h.AcceptDecisionHandler)
	})

	r.Get("/quotes", h.QuoteHandler)

	r.Route("/scoring", func(r chi.Router) {
		r.Post("/requests/{creditRequestID}/score", h.CalculateScoreHandler)
		r.Post("/batch", h.BatchScoreHandler)
		r.Get("/history/{userID}", h.ScoreHistoryHandler)
		r.Get("/health", h.ScoringHealthHandler)
	})

	return r
}
