package model

// DocumentRole identifies which kind of billing document a line item came
// from. Roles are assigned by the upstream document classifier and consumed
// here as metadata; the engine never re-derives them.
type DocumentRole string

const (
	// RoleBill is the provider's itemized bill.
	RoleBill DocumentRole = "bill"
	// RoleEOB is the insurer's explanation of benefits.
	RoleEOB DocumentRole = "eob"
	// RoleReceipt is the patient's payment receipt.
	RoleReceipt DocumentRole = "receipt"
	// RoleUnknown is used when the classifier could not determine a role.
	RoleUnknown DocumentRole = "unknown"
)

// Document is one classified source document with its extracted line items.
type Document struct {
	ID        string        `json:"id"`
	Role      DocumentRole  `json:"role"`
	LineItems []RawLineItem `json:"line_items"`
}

// Transactions resolves every line item in the document into a Transaction.
func (d Document) Transactions() []Transaction {
	txns := make([]Transaction, 0, len(d.LineItems))
	for _, item := range d.LineItems {
		if item.SourceDocumentID == "" {
			item.SourceDocumentID = d.ID
		}
		txns = append(txns, NewTransaction(item, d.Role))
	}
	return txns
}

// PlanTerms holds the insurance-plan cost-sharing terms needed to compute
// expected patient responsibility.
type PlanTerms struct {
	DeductibleRemaining float64 `json:"deductible_remaining"`
	CoinsuranceRate     float64 `json:"coinsurance_rate"`
	OutOfNetworkRate    float64 `json:"out_of_network_rate"`
	InNetwork           bool    `json:"in_network"`
}

// EffectiveCoinsuranceRate returns the coinsurance rate that applies given
// the network status.
func (p PlanTerms) EffectiveCoinsuranceRate() float64 {
	if p.InNetwork {
		return p.CoinsuranceRate
	}
	return p.OutOfNetworkRate
}

// ExpectedPatientResponsibility computes what the patient should owe for an
// allowed amount under these terms. Never negative.
func (p PlanTerms) ExpectedPatientResponsibility(allowedAmount float64) float64 {
	afterDeductible := allowedAmount - p.DeductibleRemaining
	if afterDeductible < 0 {
		afterDeductible = 0
	}
	return afterDeductible * p.EffectiveCoinsuranceRate()
}
