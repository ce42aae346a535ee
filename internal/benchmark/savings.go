package benchmark

// SavingsConfig controls the savings reconciliation.
type SavingsConfig struct {
	// MissedFallback is the assumed dollar impact of a missed issue whose
	// ground-truth annotation carries no savings estimate of its own.
	MissedFallback float64
}

// SavingsSummary quantifies the monetary impact of a run: dollars the
// detector caught versus dollars it missed.
type SavingsSummary struct {
	PotentialSavings   float64 `json:"potential_savings"`
	MissedSavings      float64 `json:"missed_savings"`
	SavingsCaptureRate float64 `json:"savings_capture_rate"`
}

// ReconcileSavings sums the savings of matched detections and the estimated
// savings of every miss. The capture rate is potential over potential plus
// missed, defined as 1.0 when the denominator is zero. Negative savings
// never reach this code: they are clamped at the issue ingestion boundary.
func ReconcileSavings(scores []CaseScore, cfg SavingsConfig) SavingsSummary {
	var summary SavingsSummary

	for _, score := range scores {
		for _, pair := range score.TruePositives {
			summary.PotentialSavings += pair.Detected.SavingsValue()
		}
		for _, missed := range score.FalseNegatives {
			summary.MissedSavings += missed.SavingsOrDefault(cfg.MissedFallback)
		}
	}

	total := summary.PotentialSavings + summary.MissedSavings
	if total == 0 {
		summary.SavingsCaptureRate = 1.0
	} else {
		summary.SavingsCaptureRate = summary.PotentialSavings / total
	}

	return summary
}
