package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestNewTransaction_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		item         RawLineItem
		wantProvider string
		wantDate     string
		wantBilled   float64
		wantFlags    []string
	}{
		{
			name: "fully populated",
			item: RawLineItem{
				ServiceDate:   "2024-03-01",
				Provider:      "Mercy General",
				ProcedureCode: "99213",
				BilledAmount:  floatPtr(150.0),
			},
			wantProvider: "mercy general",
			wantDate:     "2024-03-01",
			wantBilled:   150.0,
		},
		{
			name: "missing billed amount coerced to zero with flag",
			item: RawLineItem{
				ServiceDate:   "2024-03-01",
				Provider:      "Mercy General",
				ProcedureCode: "99213",
			},
			wantProvider: "mercy general",
			wantDate:     "2024-03-01",
			wantBilled:   0.0,
			wantFlags:    []string{QualityMissingBilledAmount},
		},
		{
			name: "missing provider and date get sentinels",
			item: RawLineItem{
				ProcedureCode: "99213",
				BilledAmount:  floatPtr(150.0),
			},
			wantProvider: UnknownProvider,
			wantDate:     UnknownDate,
			wantBilled:   150.0,
			wantFlags:    []string{QualityMissingServiceDate, QualityMissingProvider},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := NewTransaction(tt.item, RoleBill)
			assert.Equal(t, tt.wantProvider, txn.Provider)
			assert.Equal(t, tt.wantDate, txn.ServiceDate)
			assert.Equal(t, tt.wantBilled, txn.BilledAmount)
			assert.Equal(t, tt.wantFlags, txn.QualityFlags)
			assert.NotEmpty(t, txn.Key)
		})
	}
}

func TestGenerateKey_Deterministic(t *testing.T) {
	item := RawLineItem{
		ServiceDate:   "2024-03-01",
		Provider:      "Mercy General",
		ProcedureCode: "99213",
		BilledAmount:  floatPtr(150.0),
	}

	a := NewTransaction(item, RoleBill)
	b := NewTransaction(item, RoleEOB)
	assert.Equal(t, a.Key, b.Key, "key must not depend on document role")

	// Provider folding must not split keys on casing or whitespace.
	item.Provider = "  MERCY   general "
	c := NewTransaction(item, RoleBill)
	assert.Equal(t, a.Key, c.Key)

	// A different amount is a different key.
	item.BilledAmount = floatPtr(150.5)
	d := NewTransaction(item, RoleBill)
	assert.NotEqual(t, a.Key, d.Key)
}

func TestGenerateKey_MissingFieldsStable(t *testing.T) {
	// Two line items missing the same fields must collide, not go null.
	a := NewTransaction(RawLineItem{ProcedureCode: "D1110"}, RoleBill)
	b := NewTransaction(RawLineItem{ProcedureCode: "D1110"}, RoleBill)
	require.Equal(t, a.Key, b.Key)
}

func TestFoldProviderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mercy General", "mercy general"},
		{"  Mercy   General  ", "mercy general"},
		{"MERCY\tGENERAL", "mercy general"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldProviderName(tt.in))
	}
}

func TestMatchKey_IgnoresAmount(t *testing.T) {
	a := NewTransaction(RawLineItem{
		ServiceDate:   "2024-03-01",
		Provider:      "Mercy General",
		ProcedureCode: "99213",
		BilledAmount:  floatPtr(150.0),
	}, RoleBill)
	b := NewTransaction(RawLineItem{
		ServiceDate:   "2024-03-01",
		Provider:      "mercy general",
		ProcedureCode: "99213",
		BilledAmount:  floatPtr(90.0),
	}, RoleEOB)

	assert.NotEqual(t, a.Key, b.Key)
	assert.Equal(t, a.MatchKey(), b.MatchKey())
}

func TestDocumentTransactions_InheritDocumentID(t *testing.T) {
	doc := Document{
		ID:   "doc-1",
		Role: RoleBill,
		LineItems: []RawLineItem{
			{ProcedureCode: "99213", BilledAmount: floatPtr(100)},
			{ProcedureCode: "99214", BilledAmount: floatPtr(200), SourceDocumentID: "explicit"},
		},
	}

	txns := doc.Transactions()
	require.Len(t, txns, 2)
	assert.Equal(t, "doc-1", txns[0].SourceDocumentID)
	assert.Equal(t, "explicit", txns[1].SourceDocumentID)
	assert.Equal(t, RoleBill, txns[0].Role)
}

func TestPlanTerms_ExpectedPatientResponsibility(t *testing.T) {
	terms := PlanTerms{
		DeductibleRemaining: 100,
		CoinsuranceRate:     0.2,
		OutOfNetworkRate:    0.4,
		InNetwork:           true,
	}

	assert.InDelta(t, 80.0, terms.ExpectedPatientResponsibility(500), 1e-9)
	// Allowed below the remaining deductible never goes negative.
	assert.Equal(t, 0.0, terms.ExpectedPatientResponsibility(50))

	terms.InNetwork = false
	assert.InDelta(t, 160.0, terms.ExpectedPatientResponsibility(500), 1e-9)
}
