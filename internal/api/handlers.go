/**
 * @description
 * This file contains the HTTP handlers for the credit-service's API endpoints.
 * Handlers parse incoming requests, call the decision engine or the scoring
 * service, and translate domain errors into status codes. They are a thin
 * bridge; every rule lives in the app layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/app"
	"github.com/lendwise/credit-service/internal/domain"
	"github.com/lendwise/credit-service/internal/store"
)

// CreditHandlers holds the application services that handlers will use.
type CreditHandlers struct {
	decisions *app.DecisionService
	scoring   *app.ScoringService
}

// NewCreditHandlers creates a new instance of CreditHandlers.
func NewCreditHandlers(decisions *app.DecisionService, scoring *app.ScoringService) *CreditHandlers {
	return &CreditHandlers{decisions: decisions, scoring: scoring}
}

// CreateDecisionHandler renders a decision for a credit request.
func (h *CreditHandlers) CreateDecisionHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateCreditDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.CreditRequestID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "credit_request_id is required")
		return
	}
	switch input.Decision {
	case domain.DecisionApproved, domain.DecisionRejected, domain.DecisionNeedsReview:
	default:
		h.writeError(w, http.StatusBadRequest, "decision must be approved, rejected, or needs_review")
		return
	}

	decision, err := h.decisions.Create(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, decision)
}

// ListDecisionsHandler returns all decisions.
func (h *CreditHandlers) ListDecisionsHandler(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.decisions.FindAll(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if decisions == nil {
		decisions = []domain.CreditDecision{}
	}
	h.writeJSON(w, http.StatusOK, decisions)
}

// GetDecisionHandler returns one decision by id.
func (h *CreditHandlers) GetDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	decision, err := h.decisions.FindByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// GetDecisionByRequestHandler returns the decision rendered for a credit request.
func (h *CreditHandlers) GetDecisionByRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "creditRequestID")
	if !ok {
		return
	}
	decision, err := h.decisions.FindByCreditRequestID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// UpdateDecisionHandler applies a partial update. A patch carrying
// is_accepted=true composes the field update with the acceptance stamp, so the
// two concerns stay separate in the engine.
func (h *CreditHandlers) UpdateDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var input domain.UpdateCreditDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	decision, err := h.decisions.Update(r.Context(), id, input)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if input.IsAccepted != nil && *input.IsAccepted {
		decision, err = h.decisions.MarkAccepted(r.Context(), id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// AcceptDecisionHandler accepts an offer within its acceptance window.
func (h *CreditHandlers) AcceptDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	decision, err := h.decisions.AcceptDecision(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decision)
}

// DeleteDecisionHandler removes a decision.
func (h *CreditHandlers) DeleteDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.decisions.Remove(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuoteHandler prices an amount/tenor pair without touching any stored request.
func (h *CreditHandlers) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	period, err := strconv.Atoi(r.URL.Query().Get("period_months"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "period_months must be an integer")
		return
	}
	quote, err := h.decisions.PriceRequest(amount, period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// CalculateScoreHandler scores one credit request.
func (h *CreditHandlers) CalculateScoreHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "creditRequestID")
	if !ok {
		return
	}
	result, err := h.scoring.CalculateScore(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type batchScoreRequest struct {
	CreditRequestIDs []uuid.UUID `json:"credit_request_ids"`
}

// BatchScoreHandler scores a list of requests best-effort; unscorable ids are
// omitted from the response map.
func (h *CreditHandlers) BatchScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req batchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	results := h.scoring.BatchCalculateScores(r.Context(), req.CreditRequestIDs)

	out := make(map[string]*domain.ScoringResult, len(results))
	for id, result := range results {
		out[id.String()] = result
	}
	h.writeJSON(w, http.StatusOK, out)
}

// ScoreHistoryHandler returns a user's recent scoring activity.
func (h *CreditHandlers) ScoreHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}
	history, err := h.scoring.ScoreHistory(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []domain.ScoreHistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, history)
}

// ScoringHealthHandler reports whether the external scoring API is reachable.
func (h *CreditHandlers) ScoringHealthHandler(w http.ResponseWriter, r *http.Request) {
	available := h.scoring.HealthCheck(r.Context())
	status := http.StatusOK
	if !available {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, map[string]bool{"available": available})
}

func (h *CreditHandlers) pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// writeDomainError maps app/store sentinel errors onto HTTP status codes.
func (h *CreditHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrCreditRequestNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrFinancialProfileNotFound),
		errors.Is(err, store.ErrDecisionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDecisionExists),
		errors.Is(err, app.ErrDecisionAlreadyAccepted),
		errors.Is(err, app.ErrDecisionExpired):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidPricingInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *CreditHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *CreditHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
