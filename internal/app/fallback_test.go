/**
 * @description
 * Tests for the heuristic fallback scorer: the composite worked example, the
 * clamp at both ends, risk band boundaries, and the degenerate zero-income case.
 */

package app

import (
	"math"
	"testing"

	"github.com/lendwise/credit-service/internal/domain"
)

func scoringRequest(income, expenses, debts float64, creditScore float64, employmentMonths int, amount float64) domain.ScoringRequest {
	return domain.ScoringRequest{
		UserID: "00000000-0000-0000-0000-000000000001",
		FinancialProfile: domain.ScoringProfileInput{
			Income:             income,
			Expenses:           expenses,
			Debts:              debts,
			EmploymentStatus:   "employed",
			EmploymentDuration: employmentMonths,
			CreditScore:        creditScore,
			VerificationStatus: "verified",
		},
		CreditRequest: domain.ScoringRequestTerms{
			RequestedAmount:       amount,
			RepaymentPeriodMonths: 12,
			Purpose:               "personal",
		},
		UserProfile: domain.ScoringApplicantProfile{Age: 35, RegistrationDate: "2024-01-01T00:00:00Z"},
	}
}

func TestFallbackScoreAllPositiveFactors(t *testing.T) {
	// income 5000, debts 1000 (ratio 0.2), credit score 750, 30 months
	// employed, amount 2000 (ratio 0.4): every positive branch fires and the
	// raw sum 0.5+0.2+0.2+0.1+0.1 clamps to 1.0.
	result := FallbackScore(scoringRequest(5000, 2000, 1000, 750, 30, 2000))

	if result.Score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", result.Score)
	}
	if result.RiskLevel != domain.RiskLevelLow {
		t.Fatalf("expected risk level %q, got %q", domain.RiskLevelLow, result.RiskLevel)
	}
	if result.Recommendation != domain.RecommendationApprove {
		t.Fatalf("expected recommendation %q, got %q", domain.RecommendationApprove, result.Recommendation)
	}
	if result.Confidence != fallbackConfidence {
		t.Fatalf("expected confidence %v, got %v", fallbackConfidence, result.Confidence)
	}

	wantFactors := []string{
		"Low Debt-to-Income Ratio",
		"Good Credit Score",
		"Stable Employment",
		"Reasonable Loan Amount",
	}
	if len(result.Factors) != len(wantFactors) {
		t.Fatalf("expected %d factors, got %d: %+v", len(wantFactors), len(result.Factors), result.Factors)
	}
	for i, name := range wantFactors {
		if result.Factors[i].Name != name {
			t.Fatalf("factor %d: expected %q, got %q", i, name, result.Factors[i].Name)
		}
	}
}

func TestFallbackScoreAllNegativeFactors(t *testing.T) {
	// debts 60% of income, credit score 550, short employment, amount above
	// income: raw sum 0.5-0.3-0.2-0.2 = -0.2 clamps to 0.
	result := FallbackScore(scoringRequest(4000, 3500, 2400, 550, 6, 5000))

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %v", result.Score)
	}
	if result.RiskLevel != domain.RiskLevelHigh {
		t.Fatalf("expected risk level %q, got %q", domain.RiskLevelHigh, result.RiskLevel)
	}
	if result.Recommendation != domain.RecommendationReject {
		t.Fatalf("expected recommendation %q, got %q", domain.RecommendationReject, result.Recommendation)
	}
	for _, f := range result.Factors {
		if f.Impact >= 0 {
			t.Fatalf("expected only negative impacts, got %+v", f)
		}
	}
}

func TestFallbackScoreNeutralInputs(t *testing.T) {
	// Ratios between thresholds, mid-range credit score, short employment:
	// no branch fires and the baseline 0.5 stands.
	result := FallbackScore(scoringRequest(5000, 2000, 2000, 650, 12, 3500))

	if result.Score != 0.5 {
		t.Fatalf("expected baseline score 0.5, got %v", result.Score)
	}
	if len(result.Factors) != 0 {
		t.Fatalf("expected no factors, got %+v", result.Factors)
	}
	if result.RiskLevel != domain.RiskLevelMedium {
		t.Fatalf("expected risk level %q, got %q", domain.RiskLevelMedium, result.RiskLevel)
	}
	if result.Recommendation != domain.RecommendationManualReview {
		t.Fatalf("expected recommendation %q, got %q", domain.RecommendationManualReview, result.Recommendation)
	}
}

func TestFallbackScoreRiskBands(t *testing.T) {
	tests := []struct {
		name               string
		req                domain.ScoringRequest
		wantScore          float64
		wantRiskLevel      string
		wantRecommendation string
	}{
		{
			// 0.5 + 0.2 lands exactly on the low-risk boundary.
			name:               "exactly 0.7 is low risk",
			req:                scoringRequest(5000, 2000, 2000, 750, 12, 3500),
			wantScore:          0.7,
			wantRiskLevel:      domain.RiskLevelLow,
			wantRecommendation: domain.RecommendationApprove,
		},
		{
			// 0.5 - 0.3 + 0.2 lands exactly on the medium-risk boundary.
			name:               "exactly 0.4 is medium risk",
			req:                scoringRequest(5000, 2000, 3000, 750, 12, 3500),
			wantScore:          0.4,
			wantRiskLevel:      domain.RiskLevelMedium,
			wantRecommendation: domain.RecommendationManualReview,
		},
		{
			// 0.5 - 0.3 drops just below the medium-risk boundary.
			name:               "0.2 is high risk",
			req:                scoringRequest(5000, 2000, 3000, 650, 12, 3500),
			wantScore:          0.2,
			wantRiskLevel:      domain.RiskLevelHigh,
			wantRecommendation: domain.RecommendationReject,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := FallbackScore(tc.req)
			if math.Abs(result.Score-tc.wantScore) > 1e-9 {
				t.Fatalf("expected score %v, got %v", tc.wantScore, result.Score)
			}
			if result.RiskLevel != tc.wantRiskLevel {
				t.Fatalf("expected risk level %q, got %q", tc.wantRiskLevel, result.RiskLevel)
			}
			if result.Recommendation != tc.wantRecommendation {
				t.Fatalf("expected recommendation %q, got %q", tc.wantRecommendation, result.Recommendation)
			}
		})
	}
}

func TestFallbackScoreZeroIncome(t *testing.T) {
	// Undefined ratios count as worst case: both high-ratio penalties fire
	// even with zero debts and a small requested amount.
	result := FallbackScore(scoringRequest(0, 0, 0, 650, 12, 100))

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %v", result.Score)
	}
	if math.IsNaN(result.Score) {
		t.Fatal("score must never be NaN")
	}
	if result.RiskLevel != domain.RiskLevelHigh {
		t.Fatalf("expected risk level %q, got %q", domain.RiskLevelHigh, result.RiskLevel)
	}

	names := make(map[string]bool, len(result.Factors))
	for _, f := range result.Factors {
		names[f.Name] = true
	}
	if !names["High Debt-to-Income Ratio"] || !names["High Loan Amount"] {
		t.Fatalf("expected both high-ratio factors, got %+v", result.Factors)
	}
}

func TestFallbackScoreAlwaysInRange(t *testing.T) {
	incomes := []float64{0, 1000, 5000, 20000}
	debts := []float64{0, 500, 5000, 50000}
	creditScores := []float64{0, 550, 650, 800}
	amounts := []float64{100, 5000, 100000}

	for _, income := range incomes {
		for _, debt := range debts {
			for _, cs := range creditScores {
				for _, amount := range amounts {
					result := FallbackScore(scoringRequest(income, 0, debt, cs, 12, amount))
					if result.Score < 0 || result.Score > 1 || math.IsNaN(result.Score) {
						t.Fatalf("score %v out of range (income=%v debts=%v creditScore=%v amount=%v)",
							result.Score, income, debt, cs, amount)
					}
				}
			}
		}
	}
}
