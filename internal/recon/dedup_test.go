package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyops/billcheck/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func lineItem(docID string, amount float64) model.RawLineItem {
	return model.RawLineItem{
		ServiceDate:      "2024-03-01",
		Provider:         "Mercy General",
		ProcedureCode:    "99213",
		BilledAmount:     floatPtr(amount),
		SourceDocumentID: docID,
	}
}

func TestDeduplicate_ThreeIdenticalLineItems(t *testing.T) {
	txns := []model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-2", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-3", 150), model.RoleBill),
	}

	result := Deduplicate(txns)
	require.Len(t, result, 3)

	assert.False(t, result[0].IsDuplicate)
	assert.True(t, result[1].IsDuplicate)
	assert.True(t, result[2].IsDuplicate)
	assert.Equal(t, "doc-1", result[1].DuplicateOf)
	assert.Equal(t, "doc-1", result[2].DuplicateOf)
	assert.Equal(t, 2, DuplicateCount(result))
}

func TestDeduplicate_ExactMatchOnly(t *testing.T) {
	// A one-cent difference is a distinct charge, not a duplicate.
	txns := []model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150.00), model.RoleBill),
		model.NewTransaction(lineItem("doc-2", 150.01), model.RoleBill),
	}

	result := Deduplicate(txns)
	assert.Equal(t, 0, DuplicateCount(result))
}

func TestDeduplicate_Idempotent(t *testing.T) {
	txns := []model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-2", 150), model.RoleEOB),
		model.NewTransaction(lineItem("doc-3", 99), model.RoleBill),
	}

	once := Deduplicate(txns)
	twice := Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_CountIsOrderInvariant(t *testing.T) {
	forward := []model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-2", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-3", 99), model.RoleBill),
	}
	reversed := []model.Transaction{forward[2], forward[1], forward[0]}

	resultForward := Deduplicate(forward)
	resultReversed := Deduplicate(reversed)

	// Which record is canonical may change; the count never does.
	assert.Equal(t, DuplicateCount(resultForward), DuplicateCount(resultReversed))
	assert.Equal(t, "doc-1", resultForward[1].DuplicateOf)
	assert.Equal(t, "doc-2", resultReversed[2].DuplicateOf)
}

func TestDuplicateIssues(t *testing.T) {
	txns := Deduplicate([]model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150), model.RoleBill),
		model.NewTransaction(lineItem("doc-2", 150), model.RoleBill),
	})

	issues := DuplicateIssues(txns)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryDuplicateCharge, issues[0].Category)
	require.NotNil(t, issues[0].MaxSavings)
	assert.Equal(t, 150.0, *issues[0].MaxSavings)
	assert.Equal(t, []string{txns[1].Key}, issues[0].AffectedLineItems)
}

func TestDuplicateIssues_NoDuplicates(t *testing.T) {
	txns := Deduplicate([]model.Transaction{
		model.NewTransaction(lineItem("doc-1", 150), model.RoleBill),
	})
	assert.Empty(t, DuplicateIssues(txns))
}
