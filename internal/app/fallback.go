/**
 * @description
 * Deterministic heuristic scorer used when the external ML scoring API is
 * unreachable. It produces the same response shape as the remote model from
 * the applicant's financial ratios alone, with a reduced fixed confidence.
 */

package app

import (
	"fmt"
	"math"

	"github.com/lendwise/credit-service/internal/domain"
)

// Confidence reported on every fallback result. The heuristic path is known to
// be less reliable than the external model.
const fallbackConfidence = 0.7

// Score thresholds separating the low/medium/high risk bands.
const (
	lowRiskThreshold    = 0.7
	mediumRiskThreshold = 0.4
)

// ratioOrMax divides numerator by income. A non-positive income would make the
// ratio undefined; it is treated as the worst case so the high-ratio branch
// fires instead of a NaN reaching the clamp.
func ratioOrMax(numerator, income float64) float64 {
	if income <= 0 {
		return math.Inf(1)
	}
	return numerator / income
}

// FallbackScore computes a heuristic scoring result from the raw scoring
// payload. The factor list preserves evaluation order; the final score is the
// commutative sum of the impacts, clamped to [0,1].
func FallbackScore(req domain.ScoringRequest) domain.ScoringResult {
	score := 0.5
	var factors []domain.ScoringFactor

	debtToIncome := ratioOrMax(req.FinancialProfile.Debts, req.FinancialProfile.Income)
	if debtToIncome < 0.3 {
		score += 0.2
		factors = append(factors, domain.ScoringFactor{
			Name:        "Low Debt-to-Income Ratio",
			Impact:      0.2,
			Description: "Debt-to-income ratio is below 30%",
		})
	} else if debtToIncome > 0.5 {
		score -= 0.3
		factors = append(factors, domain.ScoringFactor{
			Name:        "High Debt-to-Income Ratio",
			Impact:      -0.3,
			Description: "Debt-to-income ratio exceeds 50%",
		})
	}

	if req.FinancialProfile.CreditScore > 700 {
		score += 0.2
		factors = append(factors, domain.ScoringFactor{
			Name:        "Good Credit Score",
			Impact:      0.2,
			Description: "Credit score is above 700",
		})
	} else if req.FinancialProfile.CreditScore < 600 {
		score -= 0.2
		factors = append(factors, domain.ScoringFactor{
			Name:        "Poor Credit Score",
			Impact:      -0.2,
			Description: "Credit score is below 600",
		})
	}

	if req.FinancialProfile.EmploymentDuration > 24 {
		score += 0.1
		factors = append(factors, domain.ScoringFactor{
			Name:        "Stable Employment",
			Impact:      0.1,
			Description: "Employment duration exceeds 2 years",
		})
	}

	amountToIncome := ratioOrMax(req.CreditRequest.RequestedAmount, req.FinancialProfile.Income)
	if amountToIncome < 0.5 {
		score += 0.1
		factors = append(factors, domain.ScoringFactor{
			Name:        "Reasonable Loan Amount",
			Impact:      0.1,
			Description: "Loan amount is less than 50% of annual income",
		})
	} else if amountToIncome > 1 {
		score -= 0.2
		factors = append(factors, domain.ScoringFactor{
			Name:        "High Loan Amount",
			Impact:      -0.2,
			Description: "Loan amount exceeds annual income",
		})
	}

	score = math.Max(0, math.Min(1, score))

	riskLevel := domain.RiskLevelMedium
	recommendation := domain.RecommendationManualReview
	switch {
	case score >= lowRiskThreshold:
		riskLevel = domain.RiskLevelLow
		recommendation = domain.RecommendationApprove
	case score >= mediumRiskThreshold:
		riskLevel = domain.RiskLevelMedium
		recommendation = domain.RecommendationManualReview
	default:
		riskLevel = domain.RiskLevelHigh
		recommendation = domain.RecommendationReject
	}

	return domain.ScoringResult{
		Score:          score,
		RiskLevel:      riskLevel,
		Confidence:     fallbackConfidence,
		Factors:        factors,
		Recommendation: recommendation,
		Explanation:    fmt.Sprintf("Fallback score calculated based on financial ratios and credit history. Final score: %.3f", score),
	}
}
