/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * the decisioning engine needs. The engine never owns storage; it talks to these
 * methods and a concrete implementation (PostgreSQL) satisfies them. Keeping the
 * contract here decouples the business logic from the database and lets tests
 * stub exactly the calls they care about.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/domain"
)

var (
	ErrCreditRequestNotFound    = errors.New("credit request not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrFinancialProfileNotFound = errors.New("financial profile not found")
	ErrDecisionNotFound         = errors.New("credit decision not found")
	// ErrDecisionExists signals the one-decision-per-request invariant. It is
	// raised both by the pre-insert lookup and by the unique index on
	// credit_decisions.credit_request_id, so concurrent creates cannot both win.
	ErrDecisionExists = errors.New("credit request already has a decision")
)

// CreditRequestPatch is a partial update applied to a credit request. Nil
// fields are left untouched.
type CreditRequestPatch struct {
	Status     *string
	MLScore    *float64
	ReviewedAt *time.Time
	ApprovedAt *time.Time
}

// DecisionPatch is a partial update applied to a credit decision. Nil fields
// are left untouched.
type DecisionPatch struct {
	Decision                *string
	ApprovedAmount          *float64
	FinalInterestRate       *float64
	ApprovedRepaymentPeriod *int
	MonthlyPayment          *float64
	Reason                  *string
	DecisionFactors         []domain.ScoringFactor
	RiskScore               *float64
	ReviewedBy              *string
	IsAccepted              *bool
	AcceptedAt              *time.Time
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Credit request methods
	// FindCreditRequestByID loads a request; with withAssociations it also
	// hydrates the user and financial profile the scoring payload needs.
	FindCreditRequestByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*domain.CreditRequest, error)
	UpdateCreditRequestFields(ctx context.Context, id uuid.UUID, patch CreditRequestPatch) error
	ListCreditRequestsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditRequest, error)

	// Credit decision methods
	FindDecisionByID(ctx context.Context, id uuid.UUID) (*domain.CreditDecision, error)
	FindDecisionByCreditRequestID(ctx context.Context, creditRequestID uuid.UUID) (*domain.CreditDecision, error)
	ListDecisions(ctx context.Context) ([]domain.CreditDecision, error)
	InsertDecision(ctx context.Context, decision *domain.CreditDecision) error
	UpdateDecisionFields(ctx context.Context, id uuid.UUID, patch DecisionPatch) error
	DeleteDecision(ctx context.Context, id uuid.UUID) error
}
