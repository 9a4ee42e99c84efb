package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/ticket"
)

func TestCSVRoundTrip(t *testing.T) {
	tickets := Generate(GeneratorConfig{})
	path := filepath.Join(t.TempDir(), "support_tickets.csv")

	require.NoError(t, WriteCSV(path, tickets))

	loaded, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(tickets))

	for i := range tickets {
		assert.Equal(t, tickets[i].ID, loaded[i].ID)
		assert.Equal(t, tickets[i].Subject, loaded[i].Subject)
		assert.Equal(t, tickets[i].Description, loaded[i].Description)
		assert.Equal(t, tickets[i].Category, loaded[i].Category)
		assert.Equal(t, tickets[i].Priority, loaded[i].Priority)
		assert.True(t, tickets[i].Timestamp.Equal(loaded[i].Timestamp))
	}
}

func TestCSVDescriptionsWithCommasSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.csv")
	tickets := []ticket.Ticket{
		{
			ID:          1001,
			Subject:     "Database issue",
			Description: "Cannot connect to database, getting timeout",
			Category:    ticket.CategoryBug,
			Priority:    "High",
			Timestamp:   defaultBaseTime,
		},
	}

	require.NoError(t, WriteCSV(path, tickets))

	loaded, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Cannot connect to database, getting timeout", loaded[0].Description)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestReadCSVRejectsBadRows(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name: "bad ticket id",
			content: "ticket_id,subject,description,category,priority,timestamp\n" +
				"abc,Login error,Cannot login,Bug,High,2024-01-05 10:00:00\n",
			errPart: "bad ticket_id",
		},
		{
			name: "unknown category",
			content: "ticket_id,subject,description,category,priority,timestamp\n" +
				"1001,Login error,Cannot login,Gadget,High,2024-01-05 10:00:00\n",
			errPart: "unknown category",
		},
		{
			name: "bad timestamp",
			content: "ticket_id,subject,description,category,priority,timestamp\n" +
				"1001,Login error,Cannot login,Bug,High,yesterday\n",
			errPart: "bad timestamp",
		},
		{
			name: "short row",
			content: "ticket_id,subject,description,category,priority,timestamp\n" +
				"1001,Login error,Cannot login\n",
			errPart: "failed to read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := ReadCSV(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
