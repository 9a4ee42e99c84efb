package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ticket-triage/backend/internal/ticket"
)

// timestampLayout is the on-disk timestamp format.
const timestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"ticket_id", "subject", "description", "category", "priority", "timestamp"}

// WriteCSV writes the tickets to path with the six-column header row.
func WriteCSV(path string, tickets []ticket.Ticket) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, tk := range tickets {
		record := []string{
			strconv.Itoa(tk.ID),
			tk.Subject,
			tk.Description,
			string(tk.Category),
			tk.Priority,
			tk.Timestamp.Format(timestampLayout),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write ticket %d: %w", tk.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset file: %w", err)
	}
	return nil
}

// ReadCSV loads a dataset written by WriteCSV. Every row must carry all six
// columns with a parseable ID, category, and timestamp.
func ReadCSV(path string) ([]ticket.Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset file %s is empty", path)
	}

	tickets := make([]ticket.Ticket, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2 // header is row 1

		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad ticket_id %q: %w", row, record[0], err)
		}

		category, err := ticket.ParseCategory(record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		timestamp, err := time.Parse(timestampLayout, record[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q: %w", row, record[5], err)
		}

		tickets = append(tickets, ticket.Ticket{
			ID:          id,
			Subject:     record[1],
			Description: record[2],
			Category:    category,
			Priority:    record[4],
			Timestamp:   timestamp,
		})
	}

	return tickets, nil
}
