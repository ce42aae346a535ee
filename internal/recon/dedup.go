// Package recon reconciles line items across the documents of one billing
// session: duplicate detection and cross-document coverage matching.
package recon

import (
	"fmt"
	"log/slog"

	"github.com/remedyops/billcheck/internal/model"
)

// Deduplicate marks duplicate transactions within one session. Transactions
// are grouped by their composite key; the first one in document order stays
// canonical, every later one is flagged with a pointer back at the
// canonical transaction's source document. Matching is exact on the key:
// an unflagged duplicate is safer than merging two genuinely distinct
// charges. Idempotent.
func Deduplicate(txns []model.Transaction) []model.Transaction {
	result := make([]model.Transaction, len(txns))
	canonical := make(map[string]int, len(txns))

	for i, txn := range txns {
		// Reset flags so re-running on already-deduplicated input is a no-op.
		txn.IsDuplicate = false
		txn.DuplicateOf = ""

		if first, seen := canonical[txn.Key]; seen {
			txn.IsDuplicate = true
			txn.DuplicateOf = result[first].SourceDocumentID
		} else {
			canonical[txn.Key] = i
		}
		result[i] = txn
	}

	if count := DuplicateCount(result); count > 0 {
		slog.Debug("Flagged duplicate transactions", "count", count, "total", len(result))
	}

	return result
}

// DuplicateCount returns how many transactions are flagged as duplicates.
// The count is invariant to the order documents were scanned in.
func DuplicateCount(txns []model.Transaction) int {
	count := 0
	for _, txn := range txns {
		if txn.IsDuplicate {
			count++
		}
	}
	return count
}

// DuplicateIssues converts flagged duplicates into reportable issues, one
// per duplicate transaction, with the duplicated charge as the savings
// estimate.
func DuplicateIssues(txns []model.Transaction) []model.Issue {
	var issues []model.Issue
	for _, txn := range txns {
		if !txn.IsDuplicate {
			continue
		}
		savings := txn.BilledAmount
		if savings < 0 {
			savings = 0
		}
		issues = append(issues, model.Issue{
			Category: model.CategoryDuplicateCharge,
			Severity: model.SeverityHigh,
			Title:    fmt.Sprintf("Duplicate charge for %s on %s", txn.ProcedureCode, txn.ServiceDate),
			Explanation: fmt.Sprintf(
				"This line item matches a charge already present in document %s for the same date, provider, procedure code, and amount.",
				txn.DuplicateOf),
			MaxSavings:        &savings,
			Source:            "reconciliation",
			AffectedLineItems: []string{txn.Key},
		})
	}
	return issues
}
