package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/ticket"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(GeneratorConfig{Seed: 42})
	b := Generate(GeneratorConfig{Seed: 42})

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestGenerateSeedChangesCorpus(t *testing.T) {
	a := Generate(GeneratorConfig{Seed: 42})
	b := Generate(GeneratorConfig{Seed: 7})

	assert.NotEqual(t, a, b)
}

func TestGenerateShape(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	require.Len(t, tickets, 100)

	counts := make(map[ticket.Category]int)
	for i, tk := range tickets {
		counts[tk.Category]++
		assert.Equal(t, 1001+i, tk.ID, "IDs are sequential from 1001")
		assert.NotEmpty(t, tk.Subject)
		assert.NotEmpty(t, tk.Description)
		assert.NotEmpty(t, tk.Priority)
		assert.False(t, tk.Timestamp.IsZero())
	}

	for _, c := range ticket.Categories() {
		assert.Equal(t, 20, counts[c], "category %s", c)
	}

	// Categories come out in canonical blocks of twenty.
	for blockIdx, c := range ticket.Categories() {
		for i := 0; i < 20; i++ {
			assert.Equal(t, c, tickets[blockIdx*20+i].Category)
		}
	}
}

func TestGenerateSubjectsMatchCategoryTemplates(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	for _, tk := range tickets {
		subjects := make(map[string]bool)
		for _, tmpl := range Templates(tk.Category) {
			subjects[tmpl.Subject] = true
		}
		assert.True(t, subjects[tk.Subject],
			"subject %q should come from the %s templates", tk.Subject, tk.Category)
	}
}

func TestGenerateUrgencyVariations(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	for block := 0; block < 5; block++ {
		base := block * 20

		// Offsets divisible by 3 carry the Urgent prefix.
		for _, offset := range []int{0, 3, 6, 9, 12, 15, 18} {
			assert.True(t, strings.HasPrefix(tickets[base+offset].Description, "Urgent: "),
				"block %d offset %d", block, offset)
		}

		// Offsets 5 and 10 carry the Important wrapper (15 is taken by Urgent).
		for _, offset := range []int{5, 10} {
			d := tickets[base+offset].Description
			assert.True(t, strings.HasPrefix(d, "Important: "), "block %d offset %d", block, offset)
			assert.True(t, strings.HasSuffix(d, ". Need quick resolution."), "block %d offset %d", block, offset)
		}

		// Everything else is a verbatim template description.
		templateDescriptions := make(map[string]bool)
		for _, tmpl := range Templates(tickets[base].Category) {
			templateDescriptions[tmpl.Description] = true
		}
		for _, offset := range []int{1, 2, 4, 7, 8} {
			assert.True(t, templateDescriptions[tickets[base+offset].Description],
				"block %d offset %d", block, offset)
		}
	}
}

func TestGeneratePriorityPools(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	pools := map[ticket.Category]map[string]bool{
		ticket.CategoryBug:       {"High": true, "Critical": true, "Medium": true},
		ticket.CategoryAccount:   {"High": true, "Medium": true, "Low": true},
		ticket.CategoryBilling:   {"Low": true, "Medium": true, "High": true, "Critical": true},
		ticket.CategoryFeature:   {"Low": true, "Medium": true, "High": true, "Critical": true},
		ticket.CategoryTechnical: {"Low": true, "Medium": true, "High": true, "Critical": true},
	}

	for _, tk := range tickets {
		assert.True(t, pools[tk.Category][tk.Priority],
			"priority %q not allowed for %s", tk.Priority, tk.Category)
	}
}

func TestGenerateTimestampsWithinWindow(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	end := base.AddDate(0, 0, 30).Add(8 * time.Hour)

	tickets := Generate(GeneratorConfig{})

	for _, tk := range tickets {
		assert.False(t, tk.Timestamp.Before(base), "ticket %d before window", tk.ID)
		assert.False(t, tk.Timestamp.After(end), "ticket %d after window", tk.ID)
		hour := tk.Timestamp.Hour()
		assert.GreaterOrEqual(t, hour, 9)
		assert.LessOrEqual(t, hour, 17)
	}
}

func TestGenerateCustomSize(t *testing.T) {
	tickets := Generate(GeneratorConfig{PerCategory: 4})
	assert.Len(t, tickets, 20)
}

func TestSplit(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	train, test := Split(tickets, 0.8, 42)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	// Same seed, same split.
	train2, test2 := Split(tickets, 0.8, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// Train and test together cover every ticket exactly once.
	ids := make(map[int]int)
	for _, tk := range train {
		ids[tk.ID]++
	}
	for _, tk := range test {
		ids[tk.ID]++
	}
	assert.Len(t, ids, 100)
	for id, n := range ids {
		assert.Equal(t, 1, n, "ticket %d appears %d times", id, n)
	}

	// Input order untouched.
	for i, tk := range tickets {
		assert.Equal(t, 1001+i, tk.ID)
	}
}

func TestSplitBadRatioFallsBack(t *testing.T) {
	tickets := Generate(GeneratorConfig{})

	train, test := Split(tickets, 0, 42)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	train, test = Split(tickets, 1.5, 42)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)
}
