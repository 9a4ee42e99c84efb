package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/pkg/logger"
)

type VerifyResult struct {
	Total           int
	ByCategory      map[ticket.Category]int
	ByPriority      map[string]int
	DuplicateIDs    []int
	TotalTokens     int
	UniqueTokens    int
	AvgTokensPerDoc float64
	Issues          []string
}

func (r *VerifyResult) OK() bool {
	return len(r.Issues) == 0
}

// Verify checks a corpus against the dataset contract: five categories,
// perCategory tickets in each (when perCategory > 0), no blank fields, no
// duplicate IDs. It also computes token statistics over the ticket text so
// the summary shows roughly how much vocabulary the corpus carries.
func Verify(tickets []ticket.Ticket, perCategory int) *VerifyResult {
	result := &VerifyResult{
		Total:      len(tickets),
		ByCategory: make(map[ticket.Category]int),
		ByPriority: make(map[string]int),
	}

	seen := make(map[int]bool)
	uniqueTokens := make(map[string]bool)

	for _, tk := range tickets {
		result.ByCategory[tk.Category]++
		result.ByPriority[tk.Priority]++

		if seen[tk.ID] {
			result.DuplicateIDs = append(result.DuplicateIDs, tk.ID)
		}
		seen[tk.ID] = true

		if tk.Subject == "" {
			result.Issues = append(result.Issues, fmt.Sprintf("ticket %d has empty subject", tk.ID))
		}
		if tk.Description == "" {
			result.Issues = append(result.Issues, fmt.Sprintf("ticket %d has empty description", tk.ID))
		}
		if tk.Priority == "" {
			result.Issues = append(result.Issues, fmt.Sprintf("ticket %d has empty priority", tk.ID))
		}
		if tk.Timestamp.IsZero() {
			result.Issues = append(result.Issues, fmt.Sprintf("ticket %d has zero timestamp", tk.ID))
		}
		if !tk.Category.Valid() {
			result.Issues = append(result.Issues, fmt.Sprintf("ticket %d has unknown category %q", tk.ID, tk.Category))
		}

		doc, err := prose.NewDocument(tk.Subject + " " + tk.Description)
		if err != nil {
			logger.Warn("Failed to tokenize ticket text",
				zap.Int("ticket_id", tk.ID),
				zap.Error(err),
			)
			continue
		}
		for _, tok := range doc.Tokens() {
			result.TotalTokens++
			uniqueTokens[strings.ToLower(tok.Text)] = true
		}
	}

	result.UniqueTokens = len(uniqueTokens)
	if result.Total > 0 {
		result.AvgTokensPerDoc = float64(result.TotalTokens) / float64(result.Total)
	}

	for _, c := range ticket.Categories() {
		count := result.ByCategory[c]
		if count == 0 {
			result.Issues = append(result.Issues, fmt.Sprintf("category %s has no tickets", c))
		} else if perCategory > 0 && count != perCategory {
			result.Issues = append(result.Issues,
				fmt.Sprintf("category %s has %d tickets, want %d", c, count, perCategory))
		}
	}

	if len(result.DuplicateIDs) > 0 {
		result.Issues = append(result.Issues,
			fmt.Sprintf("%d duplicate ticket IDs", len(result.DuplicateIDs)))
	}

	return result
}

func (r *VerifyResult) Summary() string {
	var b strings.Builder

	b.WriteString("Dataset Verification\n")
	b.WriteString("====================\n\n")
	b.WriteString(fmt.Sprintf("Total tickets: %d\n\n", r.Total))

	b.WriteString("Category distribution:\n")
	for _, c := range ticket.Categories() {
		b.WriteString(fmt.Sprintf("- %-10s %d\n", c, r.ByCategory[c]))
	}

	b.WriteString("\nPriority distribution:\n")
	priorities := make([]string, 0, len(r.ByPriority))
	for p := range r.ByPriority {
		priorities = append(priorities, p)
	}
	sort.Strings(priorities)
	for _, p := range priorities {
		b.WriteString(fmt.Sprintf("- %-10s %d\n", p, r.ByPriority[p]))
	}

	b.WriteString(fmt.Sprintf("\nTokens: %d total, %d unique, %.1f avg per ticket\n",
		r.TotalTokens, r.UniqueTokens, r.AvgTokensPerDoc))

	if r.OK() {
		b.WriteString("\nAll checks passed\n")
	} else {
		b.WriteString(fmt.Sprintf("\n%d issues found:\n", len(r.Issues)))
		for _, issue := range r.Issues {
			b.WriteString(fmt.Sprintf("- %s\n", issue))
		}
	}

	return b.String()
}
