package recon

import (
	"fmt"
	"math"
	"sort"

	"github.com/remedyops/billcheck/internal/model"
)

// Amounts within a cent of each other are considered equal.
const amountTolerance = 0.01

// Config controls coverage-matching policy.
type Config struct {
	// ReportUnmatchedBill emits a missing_insurance_response issue for every
	// bill line with no EOB or receipt counterpart. Off by default: an
	// unmatched bill line is retained silently as an unmatched entry.
	ReportUnmatchedBill bool
}

// CoverageEntry groups the transactions that describe one service across
// document roles, with the monetary view merged per role.
type CoverageEntry struct {
	MatchKey                      string              `json:"match_key"`
	ServiceDate                   string              `json:"service_date"`
	Provider                      string              `json:"provider"`
	ProcedureCode                 string              `json:"procedure_code"`
	Transactions                  []model.Transaction `json:"transactions"`
	BilledAmount                  float64             `json:"billed_amount"`
	AllowedAmount                 float64             `json:"allowed_amount"`
	PaidByInsurer                 float64             `json:"paid_by_insurer"`
	ObservedPatientResponsibility float64             `json:"observed_patient_responsibility"`
	ExpectedPatientResponsibility float64             `json:"expected_patient_responsibility"`
	HasBill                       bool                `json:"has_bill"`
	HasEOB                        bool                `json:"has_eob"`
	HasReceipt                    bool                `json:"has_receipt"`
}

// MatchCoverage pairs transactions across document roles by
// (service_date, provider, procedure_code) and validates patient
// responsibility against the plan terms when supplied. Duplicate-flagged
// transactions are excluded. Entries come back sorted by match key so the
// output is deterministic regardless of input order.
func MatchCoverage(txns []model.Transaction, terms *model.PlanTerms, cfg Config) ([]CoverageEntry, []model.Issue) {
	groups := make(map[string]*CoverageEntry)
	order := make([]string, 0)

	for _, txn := range txns {
		if txn.IsDuplicate {
			continue
		}
		key := txn.MatchKey()
		entry, ok := groups[key]
		if !ok {
			entry = &CoverageEntry{
				MatchKey:      key,
				ServiceDate:   txn.ServiceDate,
				Provider:      txn.Provider,
				ProcedureCode: txn.ProcedureCode,
			}
			groups[key] = entry
			order = append(order, key)
		}
		entry.Transactions = append(entry.Transactions, txn)

		// Each role owns its monetary fields: billed from the bill, allowed
		// and insurer-paid from the EOB, patient-paid from the receipt.
		switch txn.Role {
		case model.RoleBill:
			entry.HasBill = true
			entry.BilledAmount = txn.BilledAmount
		case model.RoleEOB:
			entry.HasEOB = true
			entry.AllowedAmount = txn.AllowedAmount
			entry.PaidByInsurer = txn.PaidByInsurer
		case model.RoleReceipt:
			entry.HasReceipt = true
			entry.ObservedPatientResponsibility = txn.PatientResponsibility
		case model.RoleUnknown:
		}
	}

	sort.Strings(order)

	entries := make([]CoverageEntry, 0, len(groups))
	var issues []model.Issue
	for _, key := range order {
		entry := groups[key]

		if terms != nil && entry.HasEOB {
			entry.ExpectedPatientResponsibility = terms.ExpectedPatientResponsibility(entry.AllowedAmount)
			if entry.HasReceipt {
				if issue, ok := validatePatientResponsibility(*entry); ok {
					issues = append(issues, issue)
				}
			}
		}

		if cfg.ReportUnmatchedBill && entry.HasBill && !entry.HasEOB && !entry.HasReceipt {
			issues = append(issues, unmatchedBillIssue(*entry))
		}

		entries = append(entries, *entry)
	}

	return entries, issues
}

func validatePatientResponsibility(entry CoverageEntry) (model.Issue, bool) {
	diff := math.Abs(entry.ExpectedPatientResponsibility - entry.ObservedPatientResponsibility)
	if diff <= amountTolerance {
		return model.Issue{}, false
	}

	savings := diff
	return model.Issue{
		Category: model.CategoryIncorrectInsurance,
		Severity: model.SeverityHigh,
		Title:    fmt.Sprintf("Patient responsibility mismatch for %s on %s", entry.ProcedureCode, entry.ServiceDate),
		Explanation: fmt.Sprintf(
			"Plan terms applied to the allowed amount of $%.2f put patient responsibility at $%.2f, but the receipt shows $%.2f.",
			entry.AllowedAmount, entry.ExpectedPatientResponsibility, entry.ObservedPatientResponsibility),
		MaxSavings:        &savings,
		Source:            "reconciliation",
		AffectedLineItems: transactionKeys(entry.Transactions),
	}, true
}

func unmatchedBillIssue(entry CoverageEntry) model.Issue {
	savings := entry.BilledAmount
	if savings < 0 {
		savings = 0
	}
	return model.Issue{
		Category: model.CategoryMissingInsuranceResponse,
		Severity: model.SeverityMedium,
		Title:    fmt.Sprintf("No insurance response for %s on %s", entry.ProcedureCode, entry.ServiceDate),
		Explanation: fmt.Sprintf(
			"The bill charges $%.2f for this service but no explanation of benefits or payment receipt references it.",
			entry.BilledAmount),
		MaxSavings:        &savings,
		Source:            "reconciliation",
		AffectedLineItems: transactionKeys(entry.Transactions),
	}
}

func transactionKeys(txns []model.Transaction) []string {
	keys := make([]string, 0, len(txns))
	for _, txn := range txns {
		keys = append(keys, txn.Key)
	}
	return keys
}
