package model

import "strings"

// Severity represents how urgent an issue is for the patient.
type Severity string

const (
	// SeverityHigh indicates an issue the patient should dispute immediately.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a significant but non-urgent issue.
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a minor issue or informational finding.
	SeverityLow Severity = "low"
)

// maxExplanationLength bounds issue explanations at the ingestion boundary.
const maxExplanationLength = 500

// RawIssue is an issue as emitted by a producer (LLM analyzer, heuristic
// detector, or ground-truth annotation), before normalization.
type RawIssue struct {
	MaxSavings        *float64 `json:"max_savings"`
	Confidence        *float64 `json:"confidence"`
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	Title             string   `json:"title"`
	Explanation       string   `json:"explanation"`
	Source            string   `json:"source"`
	AffectedLineItems []string `json:"affected_line_items"`
}

// Issue is a fully-normalized billing issue. Category is guaranteed to be a
// member of the closed enum and MaxSavings, when present, is non-negative.
type Issue struct {
	MaxSavings        *float64 `json:"max_savings"`
	Confidence        *float64 `json:"confidence"`
	Category          Category `json:"category"`
	Severity          Severity `json:"severity"`
	Title             string   `json:"title"`
	Explanation       string   `json:"explanation"`
	Source            string   `json:"source"`
	AffectedLineItems []string `json:"affected_line_items"`
}

// NewIssue normalizes a raw issue at the system boundary. Category casing
// and separators are canonicalized, negative savings are clamped to zero,
// confidence is clamped into [0,1], and explanations are truncated. Never
// fails: enum mismatches become CategoryOther, not errors.
func NewIssue(raw RawIssue) Issue {
	issue := Issue{
		Category:          NormalizeCategory(raw.Category),
		Severity:          normalizeSeverity(raw.Severity),
		Title:             raw.Title,
		Explanation:       truncate(raw.Explanation, maxExplanationLength),
		Source:            raw.Source,
		AffectedLineItems: raw.AffectedLineItems,
	}

	if raw.MaxSavings != nil {
		savings := *raw.MaxSavings
		if savings < 0 {
			savings = 0
		}
		issue.MaxSavings = &savings
	}
	if raw.Confidence != nil {
		confidence := *raw.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		issue.Confidence = &confidence
	}

	return issue
}

// NewIssues normalizes a list of raw issues, preserving order.
func NewIssues(raws []RawIssue) []Issue {
	issues := make([]Issue, 0, len(raws))
	for _, raw := range raws {
		issues = append(issues, NewIssue(raw))
	}
	return issues
}

// SavingsOrDefault returns the issue's own savings estimate when present,
// otherwise the supplied fallback.
func (i Issue) SavingsOrDefault(fallback float64) float64 {
	if i.MaxSavings != nil {
		return *i.MaxSavings
	}
	return fallback
}

// SavingsValue returns the savings estimate, or zero when absent.
func (i Issue) SavingsValue() float64 {
	return i.SavingsOrDefault(0)
}

func normalizeSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// String returns the category as a plain string.
func (c Category) String() string {
	return string(c)
}
