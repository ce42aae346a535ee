package benchmark

import (
	"encoding/json"
	"time"
)

// Result is the aggregated outcome of one benchmark run. It is the JSON
// surface consumed by dashboards and CI gates, so fields are additive only:
// existing fields are never renamed or removed across versions.
type Result struct {
	GeneratedAt          time.Time                          `json:"generated_at"`
	DomainBreakdown      map[string]CategoryMetric          `json:"domain_breakdown"`
	AggregatedCategories map[string]ParentCategoryAggregate `json:"aggregated_categories"`
	RunID                string                             `json:"run_id"`
	ConfigurationKey     string                             `json:"configuration_key"`
	Model                string                             `json:"model"`
	Provider             string                             `json:"provider"`
	Environment          string                             `json:"environment"`
	Trigger              string                             `json:"trigger"`
	Warnings             []string                           `json:"warnings,omitempty"`
	Precision            float64                            `json:"precision"`
	Recall               float64                            `json:"recall"`
	F1                   float64                            `json:"f1"`
	PotentialSavings     float64                            `json:"potential_savings"`
	MissedSavings        float64                            `json:"missed_savings"`
	SavingsCaptureRate   float64                            `json:"savings_capture_rate"`
	TotalCases           int                                `json:"total_cases"`
	AbsentCases          int                                `json:"absent_cases"`
}

// MetricValues flattens the result into named scalar metrics for snapshot
// comparison. Per-category precision and recall are included under
// "<category>.precision" style keys.
func (r *Result) MetricValues() map[string]float64 {
	values := map[string]float64{
		"precision":            r.Precision,
		"recall":               r.Recall,
		"f1":                   r.F1,
		"potential_savings":    r.PotentialSavings,
		"missed_savings":       r.MissedSavings,
		"savings_capture_rate": r.SavingsCaptureRate,
	}
	for name, metric := range r.DomainBreakdown {
		values[name+".precision"] = metric.Precision
		values[name+".recall"] = metric.Recall
		values[name+".f1"] = metric.F1
	}
	for name, aggregate := range r.AggregatedCategories {
		values[name+".precision"] = aggregate.Precision
		values[name+".recall"] = aggregate.Recall
		values[name+".f1"] = aggregate.F1
	}
	return values
}

// MarshalIndent renders the result as indented JSON.
func (r *Result) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
