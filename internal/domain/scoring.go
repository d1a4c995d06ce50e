/**
 * @description
 * Wire-level types shared with the external ML scoring API. The JSON field
 * names are the scoring API's contract (camelCase), not the service's own
 * snake_case convention, so these structs must not be reused as storage models.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Risk levels reported by the scoring model.
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// Recommendations reported by the scoring model.
const (
	RecommendationApprove      = "approve"
	RecommendationReject       = "reject"
	RecommendationManualReview = "manual_review"
)

// ScoringRequest is the payload POSTed to the scoring API's /api/score.
type ScoringRequest struct {
	UserID           string                  `json:"userId"`
	FinancialProfile ScoringProfileInput     `json:"financialProfile"`
	CreditRequest    ScoringRequestTerms     `json:"creditRequest"`
	UserProfile      ScoringApplicantProfile `json:"userProfile"`
}

// ScoringProfileInput carries the financial ratios' raw inputs.
type ScoringProfileInput struct {
	Income             float64 `json:"income"`
	Expenses           float64 `json:"expenses"`
	Debts              float64 `json:"debts"`
	EmploymentStatus   string  `json:"employmentStatus"`
	EmploymentDuration int     `json:"employmentDuration"` // months, 0 when unknown
	CreditScore        float64 `json:"creditScore"`        // 0 when unknown
	VerificationStatus string  `json:"verificationStatus"`
}

// ScoringRequestTerms carries the loan parameters under evaluation.
type ScoringRequestTerms struct {
	RequestedAmount       float64 `json:"requestedAmount"`
	RepaymentPeriodMonths int     `json:"repaymentPeriodMonths"`
	Purpose               string  `json:"purpose"`
}

// ScoringApplicantProfile carries applicant demographics derived from the user record.
type ScoringApplicantProfile struct {
	Age              int    `json:"age"`
	RegistrationDate string `json:"registrationDate"` // RFC 3339
}

// ScoringFactor is one named, signed contribution to a score.
type ScoringFactor struct {
	Name        string  `json:"name"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// ScoringResult is the scoring API's response, also produced locally by the
// fallback scorer when the API is unreachable. It is ephemeral; only Score is
// persisted, onto the credit request.
type ScoringResult struct {
	Score          float64         `json:"score"`      // [0,1], higher = lower risk
	RiskLevel      string          `json:"riskLevel"`  // low | medium | high
	Confidence     float64         `json:"confidence"` // [0,1]
	Factors        []ScoringFactor `json:"factors"`
	Recommendation string          `json:"recommendation"` // approve | reject | manual_review
	Explanation    string          `json:"explanation"`
}

// ScoreHistoryEntry is one row of a user's recent scoring activity.
type ScoreHistoryEntry struct {
	CreditRequestID uuid.UUID `json:"credit_request_id"`
	Score           *float64  `json:"score,omitempty"`
	RequestedAmount float64   `json:"requested_amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
