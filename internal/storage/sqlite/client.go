package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/storage/models"
	"github.com/ticket-triage/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		reference TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT,
		priority TEXT,
		status TEXT DEFAULT 'open',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_category ON tickets(category);
	CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created_at);

	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_ref TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence REAL NOT NULL,
		probabilities TEXT,
		model_version TEXT,
		latency_ms REAL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (ticket_ref) REFERENCES tickets(reference) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_ticket ON predictions(ticket_ref);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_category ON predictions(category);

	CREATE TABLE IF NOT EXISTS routing_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_ref TEXT NOT NULL,
		action TEXT NOT NULL,
		department TEXT,
		priority TEXT,
		reason TEXT,
		dry_run INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (ticket_ref) REFERENCES tickets(reference) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_ticket ON routing_outcomes(ticket_ref);
	CREATE INDEX IF NOT EXISTS idx_outcomes_action ON routing_outcomes(action);

	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		samples INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		macro_precision REAL NOT NULL,
		macro_recall REAL NOT NULL,
		macro_f1 REAL NOT NULL,
		mean_latency_ms REAL NOT NULL,
		normalized_latency REAL NOT NULL,
		weighted_score REAL NOT NULL,
		report TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_eval_created ON evaluation_runs(created_at);

	CREATE TABLE IF NOT EXISTS work_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_ref TEXT NOT NULL,
		kind TEXT NOT NULL,
		department TEXT,
		status TEXT DEFAULT 'open',
		note TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (ticket_ref) REFERENCES tickets(reference) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_work_ticket ON work_items(ticket_ref);
	CREATE INDEX IF NOT EXISTS idx_work_kind_status ON work_items(kind, status);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertTicket(t *models.TicketRecord) error {
	query := `
		INSERT INTO tickets (reference, subject, description, category, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			category = excluded.category,
			priority = excluded.priority,
			status = excluded.status
	`

	status := t.Status
	if status == "" {
		status = "open"
	}

	_, err := c.db.Exec(
		query,
		t.Reference,
		t.Subject,
		t.Description,
		t.Category,
		t.Priority,
		status,
		t.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	logger.Debug("Ticket stored", zap.String("reference", t.Reference))
	return nil
}

func (c *Client) GetTicket(reference string) (*models.TicketRecord, error) {
	query := `SELECT reference, subject, description, category, priority, status, created_at FROM tickets WHERE reference = ?`

	var t models.TicketRecord
	var createdAt int64

	err := c.db.QueryRow(query, reference).Scan(
		&t.Reference,
		&t.Subject,
		&t.Description,
		&t.Category,
		&t.Priority,
		&t.Status,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	t.CreatedAt = time.Unix(createdAt, 0)

	return &t, nil
}

func (c *Client) UpdateTicketStatus(reference, status string) error {
	query := `UPDATE tickets SET status = ? WHERE reference = ?`

	_, err := c.db.Exec(query, status, reference)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}

	logger.Debug("Ticket status updated",
		zap.String("reference", reference),
		zap.String("status", status),
	)

	return nil
}

func (c *Client) GetTicketsByRefs(references []string) ([]models.TicketRecord, error) {
	tickets := make([]models.TicketRecord, 0, len(references))
	for _, ref := range references {
		t, err := c.GetTicket(ref)
		if err != nil {
			return nil, err
		}
		if t != nil {
			tickets = append(tickets, *t)
		}
	}
	return tickets, nil
}

func (c *Client) InsertPrediction(p *models.PredictionRecord) error {
	probsJSON, _ := json.Marshal(p.Probabilities)

	query := `
		INSERT INTO predictions (ticket_ref, category, confidence, probabilities, model_version, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		p.TicketRef,
		p.Category,
		p.Confidence,
		string(probsJSON),
		p.ModelVersion,
		p.LatencyMS,
		p.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	logger.Debug("Prediction stored",
		zap.String("ticket_ref", p.TicketRef),
		zap.String("category", p.Category),
		zap.Float64("confidence", p.Confidence),
	)

	return nil
}

func (c *Client) GetPredictionsForTicket(reference string) ([]models.PredictionRecord, error) {
	query := `
		SELECT id, ticket_ref, category, confidence, probabilities, model_version, latency_ms, created_at
		FROM predictions
		WHERE ticket_ref = ?
		ORDER BY created_at DESC
	`

	rows, err := c.db.Query(query, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (c *Client) ListRecentPredictions(limit int) ([]models.PredictionRecord, error) {
	query := `
		SELECT id, ticket_ref, category, confidence, probabilities, model_version, latency_ms, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func scanPredictions(rows *sql.Rows) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	for rows.Next() {
		var p models.PredictionRecord
		var probsJSON string
		var createdAt int64

		err := rows.Scan(&p.ID, &p.TicketRef, &p.Category, &p.Confidence, &probsJSON, &p.ModelVersion, &p.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		json.Unmarshal([]byte(probsJSON), &p.Probabilities)
		p.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, p)
	}

	return records, nil
}

func (c *Client) InsertRoutingOutcome(o *models.RoutingOutcome) error {
	query := `
		INSERT INTO routing_outcomes (ticket_ref, action, department, priority, reason, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	dryRun := 0
	if o.DryRun {
		dryRun = 1
	}

	_, err := c.db.Exec(
		query,
		o.TicketRef,
		o.Action,
		o.Department,
		o.Priority,
		o.Reason,
		dryRun,
		o.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert routing outcome: %w", err)
	}

	return nil
}

func (c *Client) GetRoutingOutcomesForTicket(reference string) ([]models.RoutingOutcome, error) {
	query := `
		SELECT id, ticket_ref, action, department, priority, reason, dry_run, created_at
		FROM routing_outcomes
		WHERE ticket_ref = ?
		ORDER BY created_at DESC
	`

	rows, err := c.db.Query(query, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get routing outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.RoutingOutcome
	for rows.Next() {
		var o models.RoutingOutcome
		var dryRun int
		var createdAt int64

		err := rows.Scan(&o.ID, &o.TicketRef, &o.Action, &o.Department, &o.Priority, &o.Reason, &dryRun, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		o.DryRun = dryRun == 1
		o.CreatedAt = time.Unix(createdAt, 0)
		outcomes = append(outcomes, o)
	}

	return outcomes, nil
}

func (c *Client) InsertEvaluationRun(run *models.EvaluationRun) error {
	query := `
		INSERT INTO evaluation_runs (samples, accuracy, macro_precision, macro_recall, macro_f1,
			mean_latency_ms, normalized_latency, weighted_score, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		run.Samples,
		run.Accuracy,
		run.MacroPrecision,
		run.MacroRecall,
		run.MacroF1,
		run.MeanLatencyMS,
		run.NormalizedLatency,
		run.WeightedScore,
		run.Report,
		run.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert evaluation run: %w", err)
	}

	logger.Info("Evaluation run recorded",
		zap.Int("samples", run.Samples),
		zap.Float64("accuracy", run.Accuracy),
		zap.Float64("weighted_score", run.WeightedScore),
	)

	return nil
}

func (c *Client) ListEvaluationRuns(limit int) ([]models.EvaluationRun, error) {
	query := `
		SELECT id, samples, accuracy, macro_precision, macro_recall, macro_f1,
			mean_latency_ms, normalized_latency, weighted_score, report, created_at
		FROM evaluation_runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	defer rows.Close()

	var runs []models.EvaluationRun
	for rows.Next() {
		var r models.EvaluationRun
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Samples, &r.Accuracy, &r.MacroPrecision, &r.MacroRecall,
			&r.MacroF1, &r.MeanLatencyMS, &r.NormalizedLatency, &r.WeightedScore, &r.Report, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, r)
	}

	return runs, nil
}

func (c *Client) InsertWorkItem(item *models.WorkItem) error {
	query := `
		INSERT INTO work_items (ticket_ref, kind, department, status, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	status := item.Status
	if status == "" {
		status = models.WorkItemStatusOpen
	}

	_, err := c.db.Exec(
		query,
		item.TicketRef,
		item.Kind,
		item.Department,
		status,
		item.Note,
		item.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert work item: %w", err)
	}

	logger.Debug("Work item queued",
		zap.String("ticket_ref", item.TicketRef),
		zap.String("kind", item.Kind),
	)

	return nil
}

func (c *Client) ListOpenWorkItems(kind string, limit int) ([]models.WorkItem, error) {
	query := `
		SELECT id, ticket_ref, kind, department, status, note, created_at
		FROM work_items
		WHERE kind = ? AND status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := c.db.Query(query, kind, models.WorkItemStatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []models.WorkItem
	for rows.Next() {
		var w models.WorkItem
		var createdAt int64

		err := rows.Scan(&w.ID, &w.TicketRef, &w.Kind, &w.Department, &w.Status, &w.Note, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		w.CreatedAt = time.Unix(createdAt, 0)
		items = append(items, w)
	}

	return items, nil
}

func (c *Client) CompleteWorkItem(id int) error {
	query := `UPDATE work_items SET status = ? WHERE id = ?`

	_, err := c.db.Exec(query, models.WorkItemStatusDone, id)
	if err != nil {
		return fmt.Errorf("failed to complete work item: %w", err)
	}

	return nil
}

func (c *Client) GetDashboardStats() (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		ByCategory: make(map[string]int),
		ByAction:   make(map[string]int),
	}

	err := c.db.QueryRow(`SELECT COUNT(*) FROM tickets`).Scan(&stats.TotalTickets)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	err = c.db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(confidence), 0), COALESCE(AVG(latency_ms), 0)
		FROM predictions
	`).Scan(&stats.TotalPredictions, &stats.AvgConfidence, &stats.AvgLatencyMS)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate predictions: %w", err)
	}

	rows, err := c.db.Query(`SELECT category, COUNT(*) FROM predictions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to group predictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.ByCategory[category] = count
	}

	actionRows, err := c.db.Query(`SELECT action, COUNT(*) FROM routing_outcomes GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("failed to group outcomes: %w", err)
	}
	defer actionRows.Close()

	totalOutcomes := 0
	for actionRows.Next() {
		var action string
		var count int
		if err := actionRows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.ByAction[action] = count
		totalOutcomes += count
	}

	if totalOutcomes > 0 {
		stats.AutoResolveRate = float64(stats.ByAction["auto_resolve"]) / float64(totalOutcomes)
	}

	err = c.db.QueryRow(`SELECT COUNT(*) FROM work_items WHERE status = ?`, models.WorkItemStatusOpen).
		Scan(&stats.OpenWorkItems)
	if err != nil {
		return nil, fmt.Errorf("failed to count work items: %w", err)
	}

	return stats, nil
}
