package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	require.NoError(t, client.InitSchema())
	t.Cleanup(func() { client.Close() })

	return client
}

func storeTicket(t *testing.T, client *Client, ref string) {
	t.Helper()
	require.NoError(t, client.InsertTicket(&models.TicketRecord{
		Reference:   ref,
		Subject:     "Login error",
		Description: "Cannot login to my account",
		Category:    "Account",
		Priority:    "MEDIUM",
		CreatedAt:   time.Now(),
	}))
}

func TestTicketRoundTrip(t *testing.T) {
	client := newTestClient(t)

	storeTicket(t, client, "TICKET-AAAA1111")

	got, err := client.GetTicket("TICKET-AAAA1111")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Login error", got.Subject)
	assert.Equal(t, "Account", got.Category)
	assert.Equal(t, "open", got.Status)
}

func TestGetTicketMissing(t *testing.T) {
	client := newTestClient(t)

	got, err := client.GetTicket("TICKET-MISSING1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTicketUpsertUpdatesCategory(t *testing.T) {
	client := newTestClient(t)

	storeTicket(t, client, "TICKET-AAAA1111")
	require.NoError(t, client.InsertTicket(&models.TicketRecord{
		Reference:   "TICKET-AAAA1111",
		Subject:     "Login error",
		Description: "Cannot login to my account",
		Category:    "Technical",
		Priority:    "HIGH",
		Status:      "routed",
		CreatedAt:   time.Now(),
	}))

	got, err := client.GetTicket("TICKET-AAAA1111")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Technical", got.Category)
	assert.Equal(t, "routed", got.Status)
}

func TestPredictionRoundTrip(t *testing.T) {
	client := newTestClient(t)
	storeTicket(t, client, "TICKET-AAAA1111")

	require.NoError(t, client.InsertPrediction(&models.PredictionRecord{
		TicketRef:  "TICKET-AAAA1111",
		Category:   "Account",
		Confidence: 0.91,
		Probabilities: map[string]float64{
			"Account": 0.91,
			"Bug":     0.05,
		},
		ModelVersion: "1.0.0",
		LatencyMS:    0.4,
		CreatedAt:    time.Now(),
	}))

	preds, err := client.GetPredictionsForTicket("TICKET-AAAA1111")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "Account", preds[0].Category)
	assert.InDelta(t, 0.91, preds[0].Confidence, 1e-9)
	assert.InDelta(t, 0.91, preds[0].Probabilities["Account"], 1e-9)
	assert.Equal(t, "1.0.0", preds[0].ModelVersion)

	recent, err := client.ListRecentPredictions(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestWorkItemLifecycle(t *testing.T) {
	client := newTestClient(t)
	storeTicket(t, client, "TICKET-AAAA1111")

	require.NoError(t, client.InsertWorkItem(&models.WorkItem{
		TicketRef:  "TICKET-AAAA1111",
		Kind:       models.WorkItemReviewQueue,
		Department: "General Support",
		Note:       "low confidence",
		CreatedAt:  time.Now(),
	}))

	items, err := client.ListOpenWorkItems(models.WorkItemReviewQueue, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.WorkItemStatusOpen, items[0].Status)

	require.NoError(t, client.CompleteWorkItem(items[0].ID))

	items, err = client.ListOpenWorkItems(models.WorkItemReviewQueue, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEvaluationRunRoundTrip(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.InsertEvaluationRun(&models.EvaluationRun{
		Samples:           20,
		Accuracy:          0.95,
		MacroPrecision:    0.94,
		MacroRecall:       0.93,
		MacroF1:           0.935,
		MeanLatencyMS:     0.8,
		NormalizedLatency: 0.992,
		WeightedScore:     94.2,
		Report:            `{"samples":20}`,
		CreatedAt:         time.Now(),
	}))

	runs, err := client.ListEvaluationRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 20, runs[0].Samples)
	assert.InDelta(t, 94.2, runs[0].WeightedScore, 1e-9)
}

func TestDashboardStats(t *testing.T) {
	client := newTestClient(t)

	storeTicket(t, client, "TICKET-AAAA1111")
	storeTicket(t, client, "TICKET-BBBB2222")

	now := time.Now()
	require.NoError(t, client.InsertPrediction(&models.PredictionRecord{
		TicketRef: "TICKET-AAAA1111", Category: "Account", Confidence: 0.9, LatencyMS: 1.0, CreatedAt: now,
	}))
	require.NoError(t, client.InsertPrediction(&models.PredictionRecord{
		TicketRef: "TICKET-BBBB2222", Category: "Bug", Confidence: 0.5, LatencyMS: 3.0, CreatedAt: now,
	}))

	require.NoError(t, client.InsertRoutingOutcome(&models.RoutingOutcome{
		TicketRef: "TICKET-AAAA1111", Action: "auto_resolve", Department: "Customer Success Team", CreatedAt: now,
	}))
	require.NoError(t, client.InsertRoutingOutcome(&models.RoutingOutcome{
		TicketRef: "TICKET-BBBB2222", Action: "route_to_department", Department: "Technical Support - Tier 2", CreatedAt: now,
	}))

	require.NoError(t, client.InsertWorkItem(&models.WorkItem{
		TicketRef: "TICKET-BBBB2222", Kind: models.WorkItemDepartmentQueue, Department: "Technical Support - Tier 2", CreatedAt: now,
	}))

	stats, err := client.GetDashboardStats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalTickets)
	assert.Equal(t, 2, stats.TotalPredictions)
	assert.Equal(t, 1, stats.ByCategory["Account"])
	assert.Equal(t, 1, stats.ByCategory["Bug"])
	assert.Equal(t, 1, stats.ByAction["auto_resolve"])
	assert.Equal(t, 1, stats.ByAction["route_to_department"])
	assert.InDelta(t, 0.7, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 2.0, stats.AvgLatencyMS, 1e-9)
	assert.InDelta(t, 0.5, stats.AutoResolveRate, 1e-9)
	assert.Equal(t, 1, stats.OpenWorkItems)
}
