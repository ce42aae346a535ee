// Package benchmark scores detected billing issues against ground-truth
// annotations and aggregates the results into regression-gate metrics.
package benchmark

import (
	"github.com/remedyops/billcheck/internal/model"
)

// Tally is a confusion-matrix count for one category.
type Tally struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
}

// MatchedPair records a detected issue paired with the expected issue it
// satisfied.
type MatchedPair struct {
	Detected model.Issue `json:"detected"`
	Expected model.Issue `json:"expected"`
}

// CaseScore is the scoring outcome for one case.
type CaseScore struct {
	ByCategory     map[model.Category]*Tally `json:"by_category"`
	CaseID         string                    `json:"case_id"`
	TruePositives  []MatchedPair             `json:"true_positives"`
	FalseNegatives []model.Issue             `json:"false_negatives"`
	FalsePositives []model.Issue             `json:"false_positives"`
	AnalysisAbsent bool                      `json:"analysis_absent"`
}

// ScoreCase matches detected issues to expected issues for one case.
// Pairing is greedy and first-match-wins in input order: each detected
// issue takes the first unmatched expected issue with the same normalized
// category and an overlapping affected-line-item set. A case with no
// analysis result contributes zero true positives and turns every expected
// issue into a false negative; it is never dropped from the denominator.
func ScoreCase(caseID string, detected, expected []model.Issue, analysisAbsent bool) CaseScore {
	score := CaseScore{
		CaseID:         caseID,
		ByCategory:     make(map[model.Category]*Tally),
		AnalysisAbsent: analysisAbsent,
	}

	detected = renormalize(detected)
	expected = renormalize(expected)

	if analysisAbsent {
		for _, exp := range expected {
			score.tally(exp.Category).FalseNegative++
			score.FalseNegatives = append(score.FalseNegatives, exp)
		}
		return score
	}

	matched := make([]bool, len(expected))
	for _, det := range detected {
		idx := -1
		for i, exp := range expected {
			if matched[i] {
				continue
			}
			if det.Category == exp.Category && lineItemsOverlap(det.AffectedLineItems, exp.AffectedLineItems) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matched[idx] = true
			score.tally(det.Category).TruePositive++
			score.TruePositives = append(score.TruePositives, MatchedPair{Detected: det, Expected: expected[idx]})
		} else {
			score.tally(det.Category).FalsePositive++
			score.FalsePositives = append(score.FalsePositives, det)
		}
	}

	for i, exp := range expected {
		if !matched[i] {
			score.tally(exp.Category).FalseNegative++
			score.FalseNegatives = append(score.FalseNegatives, exp)
		}
	}

	return score
}

func (s *CaseScore) tally(category model.Category) *Tally {
	t, ok := s.ByCategory[category]
	if !ok {
		t = &Tally{}
		s.ByCategory[category] = t
	}
	return t
}

// lineItemsOverlap reports whether two affected-line-item sets refer to the
// same underlying transactions. A producer that omits line items matches on
// category alone, so an empty set on either side counts as an overlap.
func lineItemsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	for _, item := range b {
		if _, ok := set[item]; ok {
			return true
		}
	}
	return false
}

// renormalize applies category normalization to both lists before any
// comparison runs. Normalization is idempotent, so issues built through
// model.NewIssue pass through unchanged.
func renormalize(issues []model.Issue) []model.Issue {
	out := make([]model.Issue, len(issues))
	for i, issue := range issues {
		issue.Category = model.NormalizeCategory(string(issue.Category))
		out[i] = issue
	}
	return out
}
