/**
 * @description
 * This file defines the core domain models for the credit-service. These structs
 * represent the entities flowing through the decisioning engine: the applicant's
 * financial profile, the credit request being decided, and the decision itself.
 *
 * @notes
 * - Monetary amounts and rates are float64, matching the decimal columns they map
 *   to; payments are rounded to cents at the point of computation.
 * - Nullable columns are pointer-typed so that "absent" and "zero" stay distinct
 *   (a missing credit score is not a score of 0).
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credit request lifecycle statuses.
const (
	RequestStatusPending     = "pending"
	RequestStatusUnderReview = "under_review"
	RequestStatusApproved    = "approved"
	RequestStatusRejected    = "rejected"
	RequestStatusCancelled   = "cancelled"
)

// Decision values a reviewer (or the engine) can render.
const (
	DecisionApproved    = "approved"
	DecisionRejected    = "rejected"
	DecisionNeedsReview = "needs_review"
)

// User is the slice of the applicant record the engine needs: identity plus the
// fields that feed the scoring payload (date of birth, registration date).
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FinancialProfile captures the applicant's declared financial position.
// It is owned by the intake collaborator; the engine only reads it.
type FinancialProfile struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	MonthlyIncome      float64   `json:"monthly_income" db:"monthly_income"`
	MonthlyExpenses    float64   `json:"monthly_expenses" db:"monthly_expenses"`
	ExistingDebts      float64   `json:"existing_debts" db:"existing_debts"`
	EmploymentStatus   string    `json:"employment_status" db:"employment_status"`
	EmployerName       *string   `json:"employer_name,omitempty" db:"employer_name"`
	EmploymentDuration *int      `json:"employment_duration,omitempty" db:"employment_duration"` // months
	CreditScore        *float64  `json:"credit_score,omitempty" db:"credit_score"`               // 300-850 when present
	VerificationStatus string    `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// CreditRequest is the loan application being decided. The engine mutates its
// status and ml_score; everything else is owned by the intake collaborator.
type CreditRequest struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	UserID                uuid.UUID  `json:"user_id" db:"user_id"`
	FinancialProfileID    *uuid.UUID `json:"financial_profile_id,omitempty" db:"financial_profile_id"`
	RequestedAmount       float64    `json:"requested_amount" db:"requested_amount"`
	RepaymentAmount       float64    `json:"repayment_amount" db:"repayment_amount"`
	RepaymentPeriodMonths int        `json:"repayment_period_months" db:"repayment_period_months"`
	InterestRate          float64    `json:"interest_rate" db:"interest_rate"`
	Purpose               *string    `json:"purpose,omitempty" db:"purpose"`
	Status                string     `json:"status" db:"status"`
	MLScore               *float64   `json:"ml_score,omitempty" db:"ml_score"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	ReviewedAt            *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ApprovedAt            *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`

	// Associations, hydrated only when loaded with WithAssociations.
	User             *User             `json:"user,omitempty"`
	FinancialProfile *FinancialProfile `json:"financial_profile,omitempty"`
}

// CreditDecision is the terminal verdict on a credit request. A request has at
// most one decision ever; a second create attempt is a conflict, not an
// overwrite.
type CreditDecision struct {
	ID                      uuid.UUID       `json:"id" db:"id"`
	CreditRequestID         uuid.UUID       `json:"credit_request_id" db:"credit_request_id"`
	Decision                string          `json:"decision" db:"decision"`
	ApprovedAmount          *float64        `json:"approved_amount,omitempty" db:"approved_amount"`
	FinalInterestRate       *float64        `json:"final_interest_rate,omitempty" db:"final_interest_rate"`
	ApprovedRepaymentPeriod *int            `json:"approved_repayment_period,omitempty" db:"approved_repayment_period"`
	MonthlyPayment          *float64        `json:"monthly_payment,omitempty" db:"monthly_payment"`
	Reason                  *string         `json:"reason,omitempty" db:"reason"`
	DecisionFactors         []ScoringFactor `json:"decision_factors,omitempty" db:"decision_factors"`
	RiskScore               *float64        `json:"risk_score,omitempty" db:"risk_score"` // [0,1]
	ReviewedBy              *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt              *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ExpiresAt               *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	IsAccepted              bool            `json:"is_accepted" db:"is_accepted"`
	AcceptedAt              *time.Time      `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt               time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the acceptance window has closed. Expiry is a
// read-time predicate, never a stored state.
func (d *CreditDecision) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}

// CreateCreditDecisionInput is the payload for rendering a decision.
// Optional pricing fields default to the parent request's values when the
// monthly payment has to be computed.
type CreateCreditDecisionInput struct {
	CreditRequestID         uuid.UUID       `json:"credit_request_id"`
	Decision                string          `json:"decision"`
	ApprovedAmount          *float64        `json:"approved_amount,omitempty"`
	FinalInterestRate       *float64        `json:"final_interest_rate,omitempty"`
	ApprovedRepaymentPeriod *int            `json:"approved_repayment_period,omitempty"`
	MonthlyPayment          *float64        `json:"monthly_payment,omitempty"`
	Reason                  *string         `json:"reason,omitempty"`
	DecisionFactors         []ScoringFactor `json:"decision_factors,omitempty"`
	RiskScore               *float64        `json:"risk_score,omitempty"`
	ReviewedBy              *string         `json:"reviewed_by,omitempty"`
}

// UpdateCreditDecisionInput is a partial patch for an existing decision.
// Patching any of the pricing triple triggers a monthly-payment recompute.
type UpdateCreditDecisionInput struct {
	Decision                *string         `json:"decision,omitempty"`
	ApprovedAmount          *float64        `json:"approved_amount,omitempty"`
	FinalInterestRate       *float64        `json:"final_interest_rate,omitempty"`
	ApprovedRepaymentPeriod *int            `json:"approved_repayment_period,omitempty"`
	MonthlyPayment          *float64        `json:"monthly_payment,omitempty"`
	Reason                  *string         `json:"reason,omitempty"`
	DecisionFactors         []ScoringFactor `json:"decision_factors,omitempty"`
	RiskScore               *float64        `json:"risk_score,omitempty"`
	ReviewedBy              *string         `json:"reviewed_by,omitempty"`
	IsAccepted              *bool           `json:"is_accepted,omitempty"`
}

// RequestQuote is the repriced view of a request's terms: the rate the engine
// would charge and the resulting repayment schedule for amount/tenor.
type RequestQuote struct {
	RequestedAmount       float64 `json:"requested_amount"`
	RepaymentPeriodMonths int     `json:"repayment_period_months"`
	InterestRate          float64 `json:"interest_rate"`
	MonthlyPayment        float64 `json:"monthly_payment"`
	RepaymentAmount       float64 `json:"repayment_amount"`
}
