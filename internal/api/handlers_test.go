/**
 * @description
 * Tests for the HTTP layer: request validation, routing, and the mapping of
 * domain errors onto status codes. Services run against a stubbed repository;
 * requests go through the real router.
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/app"
	"github.com/lendwise/credit-service/internal/domain"
	"github.com/lendwise/credit-service/internal/store"
	"github.com/lendwise/credit-service/pkg/scoringclient"
)

// stubRepo implements store.Repository with overridable behavior per method.
type stubRepo struct {
	store.Repository
	findCreditRequestByID         func(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error)
	updateCreditRequestFields     func(ctx context.Context, id uuid.UUID, patch store.CreditRequestPatch) error
	findDecisionByID              func(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error)
	findDecisionByCreditRequestID func(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error)
	listDecisions                 func(ctx context.Context) ([]domain.CreditDecision, error)
	insertDecision                func(ctx context.Context, decision *domain.CreditDecision) error
	updateDecisionFields          func(ctx context.Context, id uuid.UUID, patch store.DecisionPatch) error
	deleteDecision                func(ctx context.Context, id uuid.UUID) error
}

func (s *stubRepo) FindCreditRequestByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error) {
	return s.findCreditRequestByID(ctx, id, withAssociations)
}

func (s *stubRepo) UpdateCreditRequestFields(ctx context.Context, id uuid.UUID, patch store.CreditRequestPatch) error {
	return s.updateCreditRequestFields(ctx, id, patch)
}

func (s *stubRepo) FindDecisionByID(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
	return s.findDecisionByID(ctx, id)
}

func (s *stubRepo) FindDecisionByCreditRequestID(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error) {
	return s.findDecisionByCreditRequestID(ctx, creditRequestID)
}

func (s *stubRepo) ListDecisions(ctx context.Context) ([]domain.CreditDecision, error) {
	return s.listDecisions(ctx)
}

func (s *stubRepo) InsertDecision(ctx context.Context, decision *domain.CreditDecision) error {
	return s.insertDecision(ctx, decision)
}

func (s *stubRepo) UpdateDecisionFields(ctx context.Context, id uuid.UUID, patch store.DecisionPatch) error {
	return s.updateDecisionFields(ctx, id, patch)
}

func (s *stubRepo) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	return s.deleteDecision(ctx, id)
}

func newTestServer(repo store.Repository, scoringBaseURL string) *httptest.Server {
	decisions := app.NewDecisionService(repo, nil, 0)
	scoring := app.NewScoringService(repo, scoringclient.NewClient(scoringBaseURL), nil, nil)
	handlers := NewCreditHandlers(decisions, scoring)
	return httptest.NewServer(CreditRoutes(handlers))
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, decoded
}

func TestCreateDecisionEndpoint(t *testing.T) {
	requestID := uuid.New()
	repo := &stubRepo{
		findCreditRequestByID: func(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error) {
			return &domain.CreditRequest{
				ID:                    requestID,
				UserID:                uuid.New(),
				RequestedAmount:       10000,
				RepaymentPeriodMonths: 12,
				InterestRate:          5.0,
				Status:                domain.RequestStatusPending,
			}, nil
		},
		findDecisionByCreditRequestID: func(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error) {
			return nil, store.ErrDecisionNotFound
		},
		insertDecision: func(ctx context.Context, decision *domain.CreditDecision) error {
			decision.ID = uuid.New()
			return nil
		},
		updateCreditRequestFields: func(ctx context.Context, id uuid.UUID, patch store.CreditRequestPatch) error {
			return nil
		},
	}
	server := newTestServer(repo, "http://127.0.0.1:0")
	defer server.Close()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/decisions",
		`{"credit_request_id":"`+requestID.String()+`","decision":"approved"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	if body["decision"] != domain.DecisionApproved {
		t.Fatalf("unexpected body %v", body)
	}
	if body["monthly_payment"] != 856.07 {
		t.Fatalf("expected monthly payment 856.07, got %v", body["monthly_payment"])
	}
}

func TestCreateDecisionEndpointValidation(t *testing.T) {
	server := newTestServer(&stubRepo{}, "http://127.0.0.1:0")
	defer server.Close()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing credit_request_id", body: `{"decision":"approved"}`},
		{name: "unknown decision value", body: `{"credit_request_id":"` + uuid.NewString() + `","decision":"maybe"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, server.URL+"/decisions", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestDecisionEndpointErrorMapping(t *testing.T) {
	requestID := uuid.New()
	acceptedID := uuid.New()
	expiredID := uuid.New()
	missingID := uuid.New()
	expiredAt := time.Now().Add(-time.Hour)

	repo := &stubRepo{
		findCreditRequestByID: func(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error) {
			return &domain.CreditRequest{ID: requestID, RequestedAmount: 10000, RepaymentPeriodMonths: 12, InterestRate: 5.0}, nil
		},
		findDecisionByCreditRequestID: func(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error) {
			return &domain.CreditDecision{ID: uuid.New(), CreditRequestID: creditRequestID}, nil
		},
		findDecisionByID: func(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
			switch id {
			case acceptedID:
				return &domain.CreditDecision{ID: id, IsAccepted: true}, nil
			case expiredID:
				return &domain.CreditDecision{ID: id, ExpiresAt: &expiredAt}, nil
			default:
				return nil, store.ErrDecisionNotFound
			}
		},
	}
	server := newTestServer(repo, "http://127.0.0.1:0")
	defer server.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "duplicate decision is a conflict",
			method:     http.MethodPost,
			path:       "/decisions",
			body:       `{"credit_request_id":"` + requestID.String() + `","decision":"approved"}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "missing decision is not found",
			method:     http.MethodGet,
			path:       "/decisions/" + missingID.String(),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed id is a bad request",
			method:     http.MethodGet,
			path:       "/decisions/not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "accepting twice is a conflict",
			method:     http.MethodPost,
			path:       "/decisions/" + acceptedID.String() + "/accept",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "accepting an expired offer is a conflict",
			method:     http.MethodPost,
			path:       "/decisions/" + expiredID.String() + "/accept",
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, tc.method, server.URL+tc.path, tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %v", tc.wantStatus, resp.StatusCode, body)
			}
			if msg, _ := body["error"].(string); msg == "" {
				t.Fatalf("expected an error message, got %v", body)
			}
		})
	}
}

func TestUpdateDecisionEndpointStampsAcceptance(t *testing.T) {
	decisionID := uuid.New()
	accepted := false

	repo := &stubRepo{
		findDecisionByID: func(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
			return &domain.CreditDecision{ID: decisionID, Decision: domain.DecisionApproved, IsAccepted: accepted}, nil
		},
		updateDecisionFields: func(ctx context.Context, id uuid.UUID, patch store.DecisionPatch) error {
			if patch.IsAccepted != nil && *patch.IsAccepted {
				accepted = true
			}
			return nil
		},
	}
	server := newTestServer(repo, "http://127.0.0.1:0")
	defer server.Close()

	resp, body := doJSON(t, http.MethodPatch, server.URL+"/decisions/"+decisionID.String(),
		`{"reason":"applicant confirmed","is_accepted":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["is_accepted"] != true {
		t.Fatalf("expected an accepted decision, got %v", body)
	}
	if !accepted {
		t.Fatal("expected the acceptance stamp to be persisted")
	}
}

func TestDeleteDecisionEndpoint(t *testing.T) {
	decisionID := uuid.New()
	deleted := false

	repo := &stubRepo{
		findDecisionByID: func(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
			return &domain.CreditDecision{ID: decisionID}, nil
		},
		deleteDecision: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	server := newTestServer(repo, "http://127.0.0.1:0")
	defer server.Close()

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/decisions/"+decisionID.String(), "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if !deleted {
		t.Fatal("expected the decision deleted")
	}
}

func TestQuoteEndpoint(t *testing.T) {
	server := newTestServer(&stubRepo{}, "http://127.0.0.1:0")
	defer server.Close()

	resp, body := doJSON(t, http.MethodGet, server.URL+"/quotes?amount=20000&period_months=36", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["interest_rate"] != 7.0 {
		t.Fatalf("expected rate 7.0, got %v", body["interest_rate"])
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/quotes?amount=abc&period_months=12", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad amount, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/quotes?amount=0&period_months=12", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-positive amount, got %d", resp.StatusCode)
	}
}

func TestScoringHealthEndpoint(t *testing.T) {
	scoringAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer scoringAPI.Close()

	server := newTestServer(&stubRepo{}, scoringAPI.URL)
	defer server.Close()

	resp, body := doJSON(t, http.MethodGet, server.URL+"/scoring/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["available"] != true {
		t.Fatalf("expected available=true, got %v", body)
	}

	scoringAPI.Close()
	resp, body = doJSON(t, http.MethodGet, server.URL+"/scoring/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if body["available"] != false {
		t.Fatalf("expected available=false, got %v", body)
	}
}
