/**
 * @description
 * This file contains the decision engine: the business logic that renders,
 * amends, accepts, and removes credit decisions. The `DecisionService` struct
 * coordinates the repository, the pricing calculator, and the event producer.
 *
 * Key invariants owned here:
 * - A credit request gets at most one decision, ever. A second create attempt
 *   is a conflict, never an overwrite (checked by lookup and backstopped by
 *   the storage unique index).
 * - Rendering a decision drives the parent request to a terminal status:
 *   "approved" decisions approve the request; every other decision value —
 *   including "needs_review" — rejects it.
 * - A decision may be accepted once, and only inside its acceptance window.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For decision lifecycle events.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/domain"
	"github.com/lendwise/credit-service/internal/store"
	"github.com/lendwise/credit-service/pkg/rabbitmq"
)

var (
	ErrDecisionAlreadyAccepted = errors.New("decision already accepted")
	ErrDecisionExpired         = errors.New("decision has expired")
)

// DefaultAcceptanceWindowDays is the decision window: how long after a
// decision is rendered it may still be accepted.
const DefaultAcceptanceWindowDays = 30

// DecisionService provides the core decisioning logic.
type DecisionService struct {
	repo       store.Repository
	producer   rabbitmq.Publisher
	expiryDays int

	now func() time.Time
}

// NewDecisionService creates a new decision engine instance.
func NewDecisionService(repo store.Repository, producer rabbitmq.Publisher, expiryDays int) *DecisionService {
	if producer == nil {
		producer = &rabbitmq.NoopPublisher{}
	}
	if expiryDays <= 0 {
		expiryDays = DefaultAcceptanceWindowDays
	}
	return &DecisionService{
		repo:       repo,
		producer:   producer,
		expiryDays: expiryDays,
		now:        time.Now,
	}
}

// Create renders a decision for a credit request. The monthly payment is
// computed from the approved terms (falling back to the request's terms piece
// by piece) unless the caller supplied one. The parent request is moved to its
// terminal status as a side effect.
func (s *DecisionService) Create(ctx context.Context, input domain.CreateCreditDecisionInput) (*domain.CreditDecision, error) {
	creditRequest, err := s.repo.FindCreditRequestByID(ctx, input.CreditRequestID, false)
	if err != nil {
		return nil, err
	}

	// Fast-path duplicate check; the unique index on credit_request_id is the
	// authoritative guard against a concurrent create racing past this lookup.
	if _, err := s.repo.FindDecisionByCreditRequestID(ctx, input.CreditRequestID); err == nil {
		return nil, store.ErrDecisionExists
	} else if !errors.Is(err, store.ErrDecisionNotFound) {
		return nil, err
	}

	monthlyPayment := input.MonthlyPayment
	if monthlyPayment == nil {
		amount := creditRequest.RequestedAmount
		if input.ApprovedAmount != nil {
			amount = *input.ApprovedAmount
		}
		rate := creditRequest.InterestRate
		if input.FinalInterestRate != nil {
			rate = *input.FinalInterestRate
		}
		period := creditRequest.RepaymentPeriodMonths
		if input.ApprovedRepaymentPeriod != nil {
			period = *input.ApprovedRepaymentPeriod
		}
		payment, err := MonthlyPayment(amount, rate, period)
		if err != nil {
			return nil, fmt.Errorf("compute monthly payment: %w", err)
		}
		monthlyPayment = &payment
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, s.expiryDays)

	decision := &domain.CreditDecision{
		CreditRequestID:         input.CreditRequestID,
		Decision:                input.Decision,
		ApprovedAmount:          input.ApprovedAmount,
		FinalInterestRate:       input.FinalInterestRate,
		ApprovedRepaymentPeriod: input.ApprovedRepaymentPeriod,
		MonthlyPayment:          monthlyPayment,
		Reason:                  input.Reason,
		DecisionFactors:         input.DecisionFactors,
		RiskScore:               input.RiskScore,
		ReviewedBy:              input.ReviewedBy,
		ReviewedAt:              &now,
		ExpiresAt:               &expiresAt,
	}

	if err := s.repo.InsertDecision(ctx, decision); err != nil {
		return nil, err
	}

	// An approved decision approves the request; every other decision value
	// rejects it. "needs_review" routing to rejected is long-standing intake
	// behavior that downstream reporting depends on.
	requestPatch := store.CreditRequestPatch{}
	if input.Decision == domain.DecisionApproved {
		status := domain.RequestStatusApproved
		requestPatch.Status = &status
		requestPatch.ApprovedAt = &now
	} else {
		status := domain.RequestStatusRejected
		requestPatch.Status = &status
		requestPatch.ReviewedAt = &now
	}
	if err := s.repo.UpdateCreditRequestFields(ctx, input.CreditRequestID, requestPatch); err != nil {
		return nil, err
	}

	log.Printf("level=info component=decision msg=\"decision created\" decision_id=%s credit_request_id=%s decision=%s", decision.ID, decision.CreditRequestID, decision.Decision)

	if err := s.producer.Publish(ctx, rabbitmq.RouteDecisionCreated, rabbitmq.DecisionEvent{
		DecisionID:      decision.ID,
		CreditRequestID: decision.CreditRequestID,
		UserID:          creditRequest.UserID,
		Decision:        decision.Decision,
		Timestamp:       now,
	}); err != nil {
		log.Printf("level=warn component=decision msg=\"decision event publish failed\" decision_id=%s err=%v", decision.ID, err)
	}

	return decision, nil
}

// FindAll returns all decisions, newest first.
func (s *DecisionService) FindAll(ctx context.Context) ([]domain.CreditDecision, error) {
	return s.repo.ListDecisions(ctx)
}

// FindByID returns one decision.
func (s *DecisionService) FindByID(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
	return s.repo.FindDecisionByID(ctx, id)
}

// FindByCreditRequestID returns the decision rendered for a request.
func (s *DecisionService) FindByCreditRequestID(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error) {
	return s.repo.FindDecisionByCreditRequestID(ctx, creditRequestID)
}

// Update amends a decision's fields. Patching any of the approved amount,
// final rate, or approved period recomputes the monthly payment from the
// patched values merged over the stored ones. Acceptance is not a side effect
// of Update; callers compose it with MarkAccepted explicitly.
func (s *DecisionService) Update(ctx context.Context, id uuid.UUID, input domain.UpdateCreditDecisionInput) (*domain.CreditDecision, error) {
	decision, err := s.repo.FindDecisionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := store.DecisionPatch{
		Decision:                input.Decision,
		ApprovedAmount:          input.ApprovedAmount,
		FinalInterestRate:       input.FinalInterestRate,
		ApprovedRepaymentPeriod: input.ApprovedRepaymentPeriod,
		MonthlyPayment:          input.MonthlyPayment,
		Reason:                  input.Reason,
		DecisionFactors:         input.DecisionFactors,
		RiskScore:               input.RiskScore,
		ReviewedBy:              input.ReviewedBy,
	}

	if input.ApprovedAmount != nil || input.FinalInterestRate != nil || input.ApprovedRepaymentPeriod != nil {
		amount := derefFloat(input.ApprovedAmount, decision.ApprovedAmount)
		rate := derefFloat(input.FinalInterestRate, decision.FinalInterestRate)
		period := derefInt(input.ApprovedRepaymentPeriod, decision.ApprovedRepaymentPeriod)
		payment, err := MonthlyPayment(amount, rate, period)
		if err != nil {
			return nil, fmt.Errorf("recompute monthly payment: %w", err)
		}
		patch.MonthlyPayment = &payment
	}

	if err := s.repo.UpdateDecisionFields(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.FindDecisionByID(ctx, id)
}

// MarkAccepted stamps acceptance onto a decision without checking the
// acceptance window. It exists for administrative updates that carry an
// acceptance flag; interactive acceptance goes through AcceptDecision.
// Already-accepted decisions are left untouched.
func (s *DecisionService) MarkAccepted(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
	decision, err := s.repo.FindDecisionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision.IsAccepted {
		return decision, nil
	}

	now := s.now()
	accepted := true
	patch := store.DecisionPatch{IsAccepted: &accepted, AcceptedAt: &now}
	if err := s.repo.UpdateDecisionFields(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.FindDecisionByID(ctx, id)
}

// AcceptDecision accepts an offer on behalf of the applicant. It fails if the
// decision was already accepted or if the acceptance window has closed.
func (s *DecisionService) AcceptDecision(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error) {
	decision, err := s.repo.FindDecisionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision.IsAccepted {
		return nil, ErrDecisionAlreadyAccepted
	}
	now := s.now()
	if decision.Expired(now) {
		return nil, ErrDecisionExpired
	}

	accepted := true
	patch := store.DecisionPatch{IsAccepted: &accepted, AcceptedAt: &now}
	if err := s.repo.UpdateDecisionFields(ctx, id, patch); err != nil {
		return nil, err
	}

	log.Printf("level=info component=decision msg=\"decision accepted\" decision_id=%s credit_request_id=%s", id, decision.CreditRequestID)

	event := rabbitmq.DecisionEvent{
		DecisionID:      id,
		CreditRequestID: decision.CreditRequestID,
		Decision:        decision.Decision,
		Timestamp:       now,
	}
	if creditRequest, err := s.repo.FindCreditRequestByID(ctx, decision.CreditRequestID, false); err == nil {
		event.UserID = creditRequest.UserID
	}
	if err := s.producer.Publish(ctx, rabbitmq.RouteDecisionAccepted, event); err != nil {
		log.Printf("level=warn component=decision msg=\"acceptance event publish failed\" decision_id=%s err=%v", id, err)
	}

	return s.repo.FindDecisionByID(ctx, id)
}

// Remove deletes a decision. The parent request's status is left as is.
func (s *DecisionService) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindDecisionByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteDecision(ctx, id)
}

// PriceRequest quotes the engine's terms for an amount and tenor: the derived
// interest rate and the resulting repayment schedule. The intake collaborator
// calls this when a request is created or re-priced.
func (s *DecisionService) PriceRequest(amount float64, periodMonths int) (*domain.RequestQuote, error) {
	rate, err := InterestRate(amount, periodMonths)
	if err != nil {
		return nil, err
	}
	payment, err := MonthlyPayment(amount, rate, periodMonths)
	if err != nil {
		return nil, err
	}
	total, err := TotalRepayment(amount, rate, periodMonths)
	if err != nil {
		return nil, err
	}
	return &domain.RequestQuote{
		RequestedAmount:       amount,
		RepaymentPeriodMonths: periodMonths,
		InterestRate:          rate,
		MonthlyPayment:        payment,
		RepaymentAmount:       total,
	}, nil
}

func derefFloat(patched, stored *float64) float64 {
	if patched != nil {
		return *patched
	}
	if stored != nil {
		return *stored
	}
	return 0
}

func derefInt(patched, stored *int) int {
	if patched != nil {
		return *patched
	}
	if stored != nil {
		return *stored
	}
	return 0
}
