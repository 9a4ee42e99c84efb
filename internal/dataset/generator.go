// Package dataset generates, loads, verifies, and splits the synthetic
// support-ticket corpus used for training and evaluation.
package dataset

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/pkg/logger"
)

const (
	DefaultSeed        = 42
	DefaultPerCategory = 20

	// firstTicketID is the ID of the first generated ticket.
	firstTicketID = 1001

	// Timestamps spread over a month of business mornings.
	maxDayOffset  = 30
	maxHourOffset = 8
)

// defaultBaseTime anchors generated timestamps: Jan 1 2024, 09:00.
var defaultBaseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

var allPriorities = []string{"Low", "Medium", "High", "Critical"}

// priorityPools narrows the draw for categories that skew urgent (Bug) or
// mild (Account). Everything else draws from the full set.
var priorityPools = map[ticket.Category][]string{
	ticket.CategoryBug:     {"High", "Critical", "Medium"},
	ticket.CategoryAccount: {"High", "Medium", "Low"},
}

type GeneratorConfig struct {
	Seed        int64
	PerCategory int
	BaseTime    time.Time
}

// Generate produces a balanced labeled corpus: PerCategory tickets for each
// category in canonical order, with sequential IDs starting at 1001. The
// same seed always yields the same corpus.
func Generate(cfg GeneratorConfig) []ticket.Ticket {
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.PerCategory <= 0 {
		cfg.PerCategory = DefaultPerCategory
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = defaultBaseTime
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	tickets := make([]ticket.Ticket, 0, len(ticket.Categories())*cfg.PerCategory)
	id := firstTicketID

	for _, category := range ticket.Categories() {
		pool := priorityPools[category]
		if pool == nil {
			pool = allPriorities
		}

		for i := 0; i < cfg.PerCategory; i++ {
			tmpl := templates[category][rng.Intn(len(templates[category]))]
			description := tmpl.Description

			// Sprinkle urgency markers so descriptions are not all
			// identical to their templates.
			if i%3 == 0 {
				description = fmt.Sprintf("Urgent: %s", description)
			} else if i%5 == 0 {
				description = fmt.Sprintf("Important: %s. Need quick resolution.", description)
			}

			priority := pool[rng.Intn(len(pool))]

			days := rng.Intn(maxDayOffset + 1)
			hours := rng.Intn(maxHourOffset + 1)
			timestamp := cfg.BaseTime.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)

			tickets = append(tickets, ticket.Ticket{
				ID:          id,
				Subject:     tmpl.Subject,
				Description: description,
				Category:    category,
				Priority:    priority,
				Timestamp:   timestamp,
			})
			id++
		}
	}

	logger.Info("Generated ticket dataset",
		zap.Int("tickets", len(tickets)),
		zap.Int("per_category", cfg.PerCategory),
		zap.Int64("seed", cfg.Seed),
	)

	return tickets
}

// Split shuffles the tickets with the given seed and cuts them into train
// and test sets. trainRatio is clamped to (0, 1); 0.8 gives the usual 80/20
// split. The input slice is not modified.
func Split(tickets []ticket.Ticket, trainRatio float64, seed int64) (train, test []ticket.Ticket) {
	if trainRatio <= 0 || trainRatio >= 1 {
		trainRatio = 0.8
	}

	shuffled := make([]ticket.Ticket, len(tickets))
	copy(shuffled, tickets)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * trainRatio)
	return shuffled[:cut], shuffled[cut:]
}
