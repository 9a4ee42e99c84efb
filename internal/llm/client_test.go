package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/ticket"
)

func TestParseCategorySuggestion(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "plain json",
			content: `{"category": "Billing", "confidence": 0.8, "rationale": "mentions an invoice"}`,
		},
		{
			name: "fenced json",
			content: "```json\n" +
				`{"category": "Billing", "confidence": 0.8, "rationale": "mentions an invoice"}` +
				"\n```",
		},
		{
			name: "bare fence",
			content: "```\n" +
				`{"category": "Billing", "confidence": 0.8, "rationale": "mentions an invoice"}` +
				"\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseCategorySuggestion(tt.content)
			require.NoError(t, err)
			assert.Equal(t, ticket.CategoryBilling, s.Category)
			assert.InDelta(t, 0.8, s.Confidence, 1e-9)
			assert.Equal(t, "mentions an invoice", s.Rationale)
		})
	}
}

func TestParseCategorySuggestionErrors(t *testing.T) {
	_, err := parseCategorySuggestion("I think this is a billing problem.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")

	_, err = parseCategorySuggestion(`{"category": "Gadget", "confidence": 0.9}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}
