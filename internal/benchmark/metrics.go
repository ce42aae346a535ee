package benchmark

import (
	"sort"

	"github.com/remedyops/billcheck/internal/model"
)

// CategoryMetric is the computed accuracy for one leaf category. Computed
// fresh per benchmark run and never mutated afterwards.
type CategoryMetric struct {
	Category      string  `json:"category"`
	TruePositive  int     `json:"true_positive"`
	FalsePositive int     `json:"false_positive"`
	FalseNegative int     `json:"false_negative"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
}

// ParentCategoryAggregate rolls sparse leaf categories into one
// statistically stable parent. Recall is total_detected / total_cases,
// computed from summed leaf numerators and denominators — never from
// averaging leaf recalls, which misleads when leaf sample sizes differ.
type ParentCategoryAggregate struct {
	Subtypes      map[string]CategoryMetric `json:"subtypes"`
	ParentName    string                    `json:"parent_name"`
	TotalDetected int                       `json:"total_detected"`
	TotalCases    int                       `json:"total_cases"`
	Precision     float64                   `json:"precision"`
	Recall        float64                   `json:"recall"`
	F1            float64                   `json:"f1"`
}

// SumTallies adds up per-case confusion counts into run-level totals per
// category. Cases are visited in slice order, so the result is
// deterministic for a given input.
func SumTallies(scores []CaseScore) map[model.Category]Tally {
	totals := make(map[model.Category]Tally)
	for _, score := range scores {
		for category, tally := range score.ByCategory {
			sum := totals[category]
			sum.TruePositive += tally.TruePositive
			sum.FalsePositive += tally.FalsePositive
			sum.FalseNegative += tally.FalseNegative
			totals[category] = sum
		}
	}
	return totals
}

// ComputeMetrics turns run-level tallies into per-category metrics.
func ComputeMetrics(totals map[model.Category]Tally) map[string]CategoryMetric {
	metrics := make(map[string]CategoryMetric, len(totals))
	for category, tally := range totals {
		metrics[category.String()] = newCategoryMetric(category.String(), tally)
	}
	return metrics
}

// RollupParents aggregates leaf metrics into parent categories using summed
// numerators and denominators. The full leaf breakdown is retained in
// Subtypes for diagnosability.
func RollupParents(leaves map[string]CategoryMetric) map[string]ParentCategoryAggregate {
	parents := make(map[string]ParentCategoryAggregate)
	for parentName, members := range model.ParentCategories {
		aggregate := ParentCategoryAggregate{
			ParentName: parentName,
			Subtypes:   make(map[string]CategoryMetric),
		}

		var tp, fp, fn int
		for _, member := range members {
			leaf, ok := leaves[member.String()]
			if !ok {
				continue
			}
			aggregate.Subtypes[member.String()] = leaf
			tp += leaf.TruePositive
			fp += leaf.FalsePositive
			fn += leaf.FalseNegative
		}
		if len(aggregate.Subtypes) == 0 {
			continue
		}

		aggregate.TotalDetected = tp
		aggregate.TotalCases = tp + fn
		aggregate.Precision = safeDivide(float64(tp), float64(tp+fp))
		aggregate.Recall = safeDivide(float64(tp), float64(tp+fn))
		aggregate.F1 = f1Score(aggregate.Precision, aggregate.Recall)
		parents[parentName] = aggregate
	}
	return parents
}

// OverallMetric computes run-wide precision/recall/F1 from the summed
// confusion counts across every category.
func OverallMetric(totals map[model.Category]Tally) CategoryMetric {
	var sum Tally
	for _, tally := range totals {
		sum.TruePositive += tally.TruePositive
		sum.FalsePositive += tally.FalsePositive
		sum.FalseNegative += tally.FalseNegative
	}
	return newCategoryMetric("overall", sum)
}

// SortedCategories returns the metric keys in lexical order for stable
// rendering.
func SortedCategories(metrics map[string]CategoryMetric) []string {
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func newCategoryMetric(name string, tally Tally) CategoryMetric {
	precision := safeDivide(float64(tally.TruePositive), float64(tally.TruePositive+tally.FalsePositive))
	recall := safeDivide(float64(tally.TruePositive), float64(tally.TruePositive+tally.FalseNegative))
	return CategoryMetric{
		Category:      name,
		TruePositive:  tally.TruePositive,
		FalsePositive: tally.FalsePositive,
		FalseNegative: tally.FalseNegative,
		Precision:     precision,
		Recall:        recall,
		F1:            f1Score(precision, recall),
	}
}

// safeDivide defines 0/0 as 0.0 rather than NaN. Metrics stay in [0,1] for
// every input.
func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	return numerator / denominator
}

func f1Score(precision, recall float64) float64 {
	return safeDivide(2*precision*recall, precision+recall)
}
