/**
 * @description
 * Scoring orchestration: loads a credit request with its applicant and
 * financial profile, assembles the scoring payload, calls the external ML
 * scoring API, and persists the resulting score onto the request. Any failure
 * of the external call is absorbed by the local fallback scorer — a scoring
 * call always produces a usable score; only a missing request/user/profile is
 * surfaced, as a not-found error.
 *
 * @dependencies
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/scoringclient, pkg/rabbitmq: External scoring API and event sink.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/domain"
	"github.com/lendwise/credit-service/internal/store"
	"github.com/lendwise/credit-service/pkg/rabbitmq"
	"github.com/lendwise/credit-service/pkg/scoringclient"
)

// scoreHistoryLimit caps the score-history view at the user's most recent requests.
const scoreHistoryLimit = 10

// Score event sources.
const (
	scoreSourceModel    = "model"
	scoreSourceFallback = "fallback"
)

// ScoringService orchestrates ML scoring for credit requests.
type ScoringService struct {
	repo     store.Repository
	client   *scoringclient.Client
	producer rabbitmq.Publisher
	cache    *ScoreHistoryCache

	now func() time.Time
}

// NewScoringService creates a new scoring service instance. The cache may be nil.
func NewScoringService(repo store.Repository, client *scoringclient.Client, producer rabbitmq.Publisher, cache *ScoreHistoryCache) *ScoringService {
	if producer == nil {
		producer = &rabbitmq.NoopPublisher{}
	}
	return &ScoringService{
		repo:     repo,
		client:   client,
		producer: producer,
		cache:    cache,
		now:      time.Now,
	}
}

// CalculateScore scores a single credit request. The external model is
// consulted first; on any network, timeout, or non-2xx failure the heuristic
// fallback scorer takes over. Either way the score is persisted onto the
// request before the result is returned.
func (s *ScoringService) CalculateScore(ctx context.Context, creditRequestID uuid.UUID) (*domain.ScoringResult, error) {
	creditRequest, err := s.repo.FindCreditRequestByID(ctx, creditRequestID, true)
	if err != nil {
		return nil, err
	}

	payload := buildScoringRequest(creditRequest, s.now())

	source := scoreSourceModel
	result, err := s.client.Score(ctx, payload)
	if err != nil {
		log.Printf("level=warn component=scoring msg=\"scoring api call failed; using fallback\" credit_request_id=%s err=%v", creditRequestID, err)
		fallback := FallbackScore(payload)
		result = &fallback
		source = scoreSourceFallback
	}

	if err := s.repo.UpdateCreditRequestFields(ctx, creditRequestID, store.CreditRequestPatch{MLScore: &result.Score}); err != nil {
		return nil, err
	}

	log.Printf("level=info component=scoring msg=\"score calculated\" credit_request_id=%s score=%.3f source=%s", creditRequestID, result.Score, source)

	s.cache.Invalidate(ctx, creditRequest.UserID)
	if err := s.producer.Publish(ctx, rabbitmq.RouteScoreCalculated, rabbitmq.ScoreEvent{
		CreditRequestID: creditRequestID,
		Score:           result.Score,
		Source:          source,
		Timestamp:       s.now(),
	}); err != nil {
		log.Printf("level=warn component=scoring msg=\"score event publish failed\" credit_request_id=%s err=%v", creditRequestID, err)
	}

	return result, nil
}

// BatchCalculateScores scores each request sequentially, best effort. A
// request that cannot be scored at all (e.g. it no longer exists) is logged
// and omitted from the result map; there is no rollback.
func (s *ScoringService) BatchCalculateScores(ctx context.Context, creditRequestIDs []uuid.UUID) map[uuid.UUID]*domain.ScoringResult {
	results := make(map[uuid.UUID]*domain.ScoringResult, len(creditRequestIDs))
	for _, id := range creditRequestIDs {
		result, err := s.CalculateScore(ctx, id)
		if err != nil {
			log.Printf("level=warn component=scoring msg=\"batch item skipped\" credit_request_id=%s err=%v", id, err)
			continue
		}
		results[id] = result
	}
	return results
}

// HealthCheck probes the scoring API. It reports availability and never errors.
func (s *ScoringService) HealthCheck(ctx context.Context) bool {
	if err := s.client.HealthCheck(ctx); err != nil {
		log.Printf("level=warn component=scoring msg=\"scoring api health check failed\" err=%v", err)
		return false
	}
	return true
}

// ScoreHistory returns the user's ten most recent credit requests with their
// persisted scores, served through the optional cache.
func (s *ScoringService) ScoreHistory(ctx context.Context, userID uuid.UUID) ([]domain.ScoreHistoryEntry, error) {
	if entries, ok := s.cache.Get(ctx, userID); ok {
		return entries, nil
	}

	requests, err := s.repo.ListCreditRequestsByUserID(ctx, userID, scoreHistoryLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ScoreHistoryEntry, 0, len(requests))
	for _, cr := range requests {
		entries = append(entries, domain.ScoreHistoryEntry{
			CreditRequestID: cr.ID,
			Score:           cr.MLScore,
			RequestedAmount: cr.RequestedAmount,
			Status:          cr.Status,
			CreatedAt:       cr.CreatedAt,
		})
	}

	s.cache.Set(ctx, userID, entries)
	return entries, nil
}

// buildScoringRequest assembles the wire payload for the scoring API from a
// fully hydrated credit request. Optional profile fields degrade to zero
// values, matching what the model was trained against.
func buildScoringRequest(cr *domain.CreditRequest, now time.Time) domain.ScoringRequest {
	profile := cr.FinancialProfile
	user := cr.User

	employmentDuration := 0
	if profile.EmploymentDuration != nil {
		employmentDuration = *profile.EmploymentDuration
	}
	creditScore := 0.0
	if profile.CreditScore != nil {
		creditScore = *profile.CreditScore
	}
	purpose := ""
	if cr.Purpose != nil {
		purpose = *cr.Purpose
	}
	age := 0
	if user.DateOfBirth != nil {
		age = ageAt(*user.DateOfBirth, now)
	}

	return domain.ScoringRequest{
		UserID: cr.UserID.String(),
		FinancialProfile: domain.ScoringProfileInput{
			Income:             profile.MonthlyIncome,
			Expenses:           profile.MonthlyExpenses,
			Debts:              profile.ExistingDebts,
			EmploymentStatus:   profile.EmploymentStatus,
			EmploymentDuration: employmentDuration,
			CreditScore:        creditScore,
			VerificationStatus: profile.VerificationStatus,
		},
		CreditRequest: domain.ScoringRequestTerms{
			RequestedAmount:       cr.RequestedAmount,
			RepaymentPeriodMonths: cr.RepaymentPeriodMonths,
			Purpose:               purpose,
		},
		UserProfile: domain.ScoringApplicantProfile{
			Age:              age,
			RegistrationDate: user.CreatedAt.Format(time.RFC3339),
		},
	}
}

// ageAt computes full years elapsed between a birth date and a reference time.
func ageAt(birthDate, now time.Time) int {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() || (now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return age
}
