package benchmark

import (
	"context"

	"github.com/remedyops/billcheck/internal/model"
	"github.com/remedyops/billcheck/internal/recon"
)

// ReconAnalyzer detects issues deterministically from cross-document
// reconciliation alone: duplicate charges, patient-responsibility
// mismatches, and (when enabled) bill lines with no insurance response. It
// is the baseline analyzer for benchmark runs without an external provider.
type ReconAnalyzer struct {
	Config recon.Config
}

// Analyze reconciles the case's documents and returns the issues found.
func (a ReconAnalyzer) Analyze(_ context.Context, c Case) ([]model.Issue, error) {
	var txns []model.Transaction
	for _, doc := range c.Documents {
		txns = append(txns, doc.Transactions()...)
	}

	txns = recon.Deduplicate(txns)
	issues := recon.DuplicateIssues(txns)

	_, coverageIssues := recon.MatchCoverage(txns, c.PlanTerms, a.Config)
	issues = append(issues, coverageIssues...)

	return issues, nil
}
