package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/ticket"
)

func TestVerifyGeneratedCorpus(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	result := Verify(tickets, 20)

	assert.True(t, result.OK(), "issues: %v", result.Issues)
	assert.Equal(t, 100, result.Total)
	for _, c := range ticket.Categories() {
		assert.Equal(t, 20, result.ByCategory[c])
	}
	assert.Empty(t, result.DuplicateIDs)
	assert.Greater(t, result.TotalTokens, 0)
	assert.Greater(t, result.UniqueTokens, 0)
	assert.Greater(t, result.AvgTokensPerDoc, 0.0)
}

func TestVerifyFlagsProblems(t *testing.T) {
	tickets := Generate(GeneratorConfig{PerCategory: 2})

	// Break it: duplicate an ID, blank a subject, drop a label.
	tickets[1].ID = tickets[0].ID
	tickets[2].Subject = ""
	tickets[3].Category = "Gadget"

	result := Verify(tickets, 2)

	require.False(t, result.OK())
	assert.Len(t, result.DuplicateIDs, 1)

	joined := ""
	for _, issue := range result.Issues {
		joined += issue + "\n"
	}
	assert.Contains(t, joined, "duplicate ticket IDs")
	assert.Contains(t, joined, "empty subject")
	assert.Contains(t, joined, "unknown category")
}

func TestVerifyCountMismatch(t *testing.T) {
	tickets := Generate(GeneratorConfig{PerCategory: 3})

	result := Verify(tickets[:len(tickets)-1], 3)

	require.False(t, result.OK())
	assert.Contains(t, result.Issues[len(result.Issues)-1], "has 2 tickets, want 3")
}

func TestVerifyZeroPerCategorySkipsCountCheck(t *testing.T) {
	tickets := Generate(GeneratorConfig{PerCategory: 3})

	result := Verify(tickets[:len(tickets)-1], 0)
	assert.True(t, result.OK(), "issues: %v", result.Issues)
}

func TestVerifySummary(t *testing.T) {
	tickets := Generate(GeneratorConfig{PerCategory: 2})

	summary := Verify(tickets, 2).Summary()

	assert.Contains(t, summary, "Dataset Verification")
	assert.Contains(t, summary, "Total tickets: 10")
	assert.Contains(t, summary, "All checks passed")
	for _, c := range ticket.Categories() {
		assert.Contains(t, summary, string(c))
	}
}
