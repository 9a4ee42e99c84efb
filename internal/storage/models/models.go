package models

import "time"

type TicketRecord struct {
	Reference   string
	Subject     string
	Description string
	Category    string
	Priority    string
	Status      string
	CreatedAt   time.Time
}

type PredictionRecord struct {
	ID            int
	TicketRef     string
	Category      string
	Confidence    float64
	Probabilities map[string]float64
	ModelVersion  string
	LatencyMS     float64
	CreatedAt     time.Time
}

type RoutingOutcome struct {
	ID         int
	TicketRef  string
	Action     string
	Department string
	Priority   string
	Reason     string
	DryRun     bool
	CreatedAt  time.Time
}

type EvaluationRun struct {
	ID                int
	Samples           int
	Accuracy          float64
	MacroPrecision    float64
	MacroRecall       float64
	MacroF1           float64
	MeanLatencyMS     float64
	NormalizedLatency float64
	WeightedScore     float64
	Report            string
	CreatedAt         time.Time
}

type WorkItem struct {
	ID         int
	TicketRef  string
	Kind       string
	Department string
	Status     string
	Note       string
	CreatedAt  time.Time
}

// Work item kinds written by the dispatch executor.
const (
	WorkItemAutoResponse    = "auto_response"
	WorkItemDepartmentQueue = "department_queue"
	WorkItemReviewQueue     = "review_queue"
)

const (
	WorkItemStatusOpen = "open"
	WorkItemStatusDone = "done"
)

type DashboardStats struct {
	TotalTickets     int
	TotalPredictions int
	ByCategory       map[string]int
	ByAction         map[string]int
	AvgConfidence    float64
	AvgLatencyMS     float64
	AutoResolveRate  float64
	OpenWorkItems    int
}
