// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Sentinel values substituted for missing fields so that transaction keys
// stay deterministic instead of going null.
const (
	UnknownProvider = "unknown"
	UnknownDate     = "unknown-date"
)

// Data-quality flags recorded when a raw line item is missing fields.
const (
	QualityMissingBilledAmount = "missing_billed_amount"
	QualityMissingProvider     = "missing_provider"
	QualityMissingServiceDate  = "missing_service_date"
)

// RawLineItem is one line item as extracted from a source document, before
// defaults are resolved. Pointer fields distinguish absent from zero.
type RawLineItem struct {
	BilledAmount          *float64 `json:"billed_amount"`
	AllowedAmount         *float64 `json:"allowed_amount"`
	PaidByInsurer         *float64 `json:"paid_by_insurer"`
	PatientResponsibility *float64 `json:"patient_responsibility"`
	ServiceDate           string   `json:"service_date"`
	Provider              string   `json:"provider"`
	ProcedureCode         string   `json:"procedure_code"`
	Description           string   `json:"description"`
	SourceDocumentID      string   `json:"source_document_id"`
}

// Transaction is a fully-resolved billing line item. All optional fields
// have been defaulted at construction; downstream code never branches on
// presence.
type Transaction struct {
	Key                   string       `json:"key"`
	ServiceDate           string       `json:"service_date"`
	Provider              string       `json:"provider"`
	ProcedureCode         string       `json:"procedure_code"`
	Description           string       `json:"description"`
	SourceDocumentID      string       `json:"source_document_id"`
	DuplicateOf           string       `json:"duplicate_of,omitempty"`
	Role                  DocumentRole `json:"role"`
	QualityFlags          []string     `json:"quality_flags,omitempty"`
	BilledAmount          float64      `json:"billed_amount"`
	AllowedAmount         float64      `json:"allowed_amount"`
	PaidByInsurer         float64      `json:"paid_by_insurer"`
	PatientResponsibility float64      `json:"patient_responsibility"`
	IsDuplicate           bool         `json:"is_duplicate"`
}

// NewTransaction builds a Transaction from a raw line item, resolving every
// missing field to a conservative default. It never fails: data-quality
// defects are recorded as flags, not errors.
func NewTransaction(item RawLineItem, role DocumentRole) Transaction {
	txn := Transaction{
		ServiceDate:      strings.TrimSpace(item.ServiceDate),
		Provider:         FoldProviderName(item.Provider),
		ProcedureCode:    strings.TrimSpace(item.ProcedureCode),
		Description:      strings.TrimSpace(item.Description),
		SourceDocumentID: item.SourceDocumentID,
		Role:             role,
	}

	if txn.ServiceDate == "" {
		txn.ServiceDate = UnknownDate
		txn.QualityFlags = append(txn.QualityFlags, QualityMissingServiceDate)
	}
	if txn.Provider == "" {
		txn.Provider = UnknownProvider
		txn.QualityFlags = append(txn.QualityFlags, QualityMissingProvider)
	}
	if item.BilledAmount != nil {
		txn.BilledAmount = *item.BilledAmount
	} else {
		txn.QualityFlags = append(txn.QualityFlags, QualityMissingBilledAmount)
	}
	if item.AllowedAmount != nil {
		txn.AllowedAmount = *item.AllowedAmount
	}
	if item.PaidByInsurer != nil {
		txn.PaidByInsurer = *item.PaidByInsurer
	}
	if item.PatientResponsibility != nil {
		txn.PatientResponsibility = *item.PatientResponsibility
	}

	txn.Key = txn.GenerateKey()
	return txn
}

// GenerateKey creates the deterministic composite key used for duplicate
// detection. Billed amount is rounded to cents so float noise cannot split
// a key.
func (t *Transaction) GenerateKey() string {
	data := fmt.Sprintf("%s:%s:%s:%.2f",
		t.ServiceDate,
		FoldProviderName(t.Provider),
		t.ProcedureCode,
		t.BilledAmount)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// MatchKey identifies the service across document roles: same date,
// provider, and procedure code, regardless of the amount each document
// reports.
func (t *Transaction) MatchKey() string {
	return fmt.Sprintf("%s|%s|%s", t.ServiceDate, FoldProviderName(t.Provider), t.ProcedureCode)
}

// FoldProviderName canonicalizes a provider name for exact comparison:
// trim, lowercase, collapse internal whitespace. No fuzzy matching.
func FoldProviderName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
