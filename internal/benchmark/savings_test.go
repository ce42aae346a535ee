package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/remedyops/billcheck/internal/model"
)

func savingsIssue(category string, savings float64) model.Issue {
	return model.NewIssue(model.RawIssue{Category: category, MaxSavings: &savings})
}

func TestReconcileSavings(t *testing.T) {
	scores := []CaseScore{
		{
			TruePositives: []MatchedPair{
				{Detected: savingsIssue("duplicate_charge", 100), Expected: savingsIssue("duplicate_charge", 90)},
				{Detected: savingsIssue("upcoding", 40), Expected: savingsIssue("upcoding", 40)},
			},
			FalseNegatives: []model.Issue{
				savingsIssue("pricing_error", 60),
				// No estimate of its own: the configured fallback applies.
				model.NewIssue(model.RawIssue{Category: "balance_billing"}),
			},
		},
	}

	summary := ReconcileSavings(scores, SavingsConfig{MissedFallback: 50})
	assert.InDelta(t, 140.0, summary.PotentialSavings, 1e-9)
	assert.InDelta(t, 110.0, summary.MissedSavings, 1e-9)
	assert.InDelta(t, 140.0/250.0, summary.SavingsCaptureRate, 1e-9)
}

func TestReconcileSavings_CaptureRateOneWhenNothingMissed(t *testing.T) {
	scores := []CaseScore{
		{TruePositives: []MatchedPair{{Detected: savingsIssue("upcoding", 25)}}},
	}
	summary := ReconcileSavings(scores, SavingsConfig{})
	assert.Equal(t, 1.0, summary.SavingsCaptureRate)

	// Degenerate run with no savings at all still reports 1.0, not NaN.
	summary = ReconcileSavings(nil, SavingsConfig{})
	assert.Equal(t, 1.0, summary.SavingsCaptureRate)
}

func TestReconcileSavings_RateStaysInRange(t *testing.T) {
	scores := []CaseScore{
		{
			FalseNegatives: []model.Issue{savingsIssue("pricing_error", 500)},
		},
	}
	summary := ReconcileSavings(scores, SavingsConfig{MissedFallback: 50})
	assert.GreaterOrEqual(t, summary.SavingsCaptureRate, 0.0)
	assert.LessOrEqual(t, summary.SavingsCaptureRate, 1.0)
	assert.Equal(t, 0.0, summary.SavingsCaptureRate)
}
