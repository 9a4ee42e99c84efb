// Package dispatch turns routing decisions into queued work: auto-responses,
// department queue entries, and review queue entries.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/llm"
	"github.com/ticket-triage/backend/internal/metrics"
	"github.com/ticket-triage/backend/internal/routing"
	"github.com/ticket-triage/backend/internal/storage/models"
	"github.com/ticket-triage/backend/internal/storage/sqlite"
	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/pkg/logger"
)

type Executor struct {
	db     *sqlite.Client
	assist *llm.Client
	dryRun bool
}

type StepResult struct {
	Step    string `json:"step"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// NewExecutor wires the executor. assist may be nil; it only enriches
// review-queue notes and is never required.
func NewExecutor(db *sqlite.Client, assist *llm.Client, dryRun bool) *Executor {
	return &Executor{
		db:     db,
		assist: assist,
		dryRun: dryRun,
	}
}

func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Execute carries out a routing decision for one classified ticket and
// returns the step-by-step outcome. In dry-run mode it reports what it would
// do without touching storage.
func (e *Executor) Execute(ctx context.Context, ref, subject, description string, decision ticket.RoutingDecision, analysis *routing.Analysis) []StepResult {
	logger.Info("Dispatching routing decision",
		zap.String("ticket_ref", ref),
		zap.String("action", string(decision.Action)),
		zap.Bool("dry_run", e.dryRun),
	)

	var results []StepResult

	switch decision.Action {
	case ticket.ActionAutoResolve:
		results = e.autoResolve(ref, analysis)
	case ticket.ActionRouteToDepartment:
		results = e.routeToDepartment(ref, decision)
	case ticket.ActionFlagForReview:
		results = e.flagForReview(ctx, ref, subject, description, decision, analysis)
	default:
		results = []StepResult{{
			Step:  "dispatch",
			Error: fmt.Sprintf("unsupported action: %s", decision.Action),
		}}
	}

	status := "ok"
	for _, r := range results {
		if !r.Success {
			status = "failed"
			break
		}
	}
	metrics.DispatchExecutions.WithLabelValues(string(decision.Action), status).Inc()

	return results
}

func (e *Executor) autoResolve(ref string, analysis *routing.Analysis) []StepResult {
	var results []StepResult

	note := ""
	if analysis != nil {
		note = analysis.ResponseTemplate
	}

	if e.dryRun {
		results = append(results,
			StepResult{Step: "send_auto_response", Success: true, Output: fmt.Sprintf("DRY RUN: would send templated response for %s", ref)},
			StepResult{Step: "close_ticket", Success: true, Output: fmt.Sprintf("DRY RUN: would mark %s resolved", ref)},
		)
		return results
	}

	err := e.db.InsertWorkItem(&models.WorkItem{
		TicketRef: ref,
		Kind:      models.WorkItemAutoResponse,
		Status:    models.WorkItemStatusDone,
		Note:      note,
		CreatedAt: time.Now(),
	})
	results = append(results, stepResult("send_auto_response",
		fmt.Sprintf("Auto-response recorded for %s", ref), err))
	if err != nil {
		return results
	}

	err = e.db.UpdateTicketStatus(ref, "resolved")
	results = append(results, stepResult("close_ticket",
		fmt.Sprintf("Ticket %s marked resolved", ref), err))

	return results
}

func (e *Executor) routeToDepartment(ref string, decision ticket.RoutingDecision) []StepResult {
	var results []StepResult

	if e.dryRun {
		results = append(results,
			StepResult{Step: "queue_for_department", Success: true, Output: fmt.Sprintf("DRY RUN: would queue %s for %s", ref, decision.Department)},
			StepResult{Step: "update_status", Success: true, Output: fmt.Sprintf("DRY RUN: would mark %s routed", ref)},
		)
		return results
	}

	err := e.db.InsertWorkItem(&models.WorkItem{
		TicketRef:  ref,
		Kind:       models.WorkItemDepartmentQueue,
		Department: decision.Department,
		Note:       decision.Reason,
		CreatedAt:  time.Now(),
	})
	results = append(results, stepResult("queue_for_department",
		fmt.Sprintf("Ticket %s queued for %s", ref, decision.Department), err))
	if err != nil {
		return results
	}

	err = e.db.UpdateTicketStatus(ref, "routed")
	results = append(results, stepResult("update_status",
		fmt.Sprintf("Ticket %s marked routed", ref), err))

	return results
}

func (e *Executor) flagForReview(ctx context.Context, ref, subject, description string, decision ticket.RoutingDecision, analysis *routing.Analysis) []StepResult {
	var results []StepResult

	note := decision.Reason
	if analysis != nil && analysis.RiskLevel != "" {
		note = fmt.Sprintf("%s (risk: %s)", note, analysis.RiskLevel)
	}

	// The assist summary is advisory. A failed call never blocks the queue.
	if e.assist != nil {
		summary, err := e.assist.SummarizeForAgent(ctx, subject, description)
		if err != nil {
			logger.Warn("Assist summary failed", zap.String("ticket_ref", ref), zap.Error(err))
			metrics.AssistRequests.WithLabelValues("error").Inc()
		} else {
			note = fmt.Sprintf("%s | summary: %s", note, summary)
			metrics.AssistRequests.WithLabelValues("ok").Inc()
		}
	}

	if e.dryRun {
		results = append(results,
			StepResult{Step: "queue_for_review", Success: true, Output: fmt.Sprintf("DRY RUN: would queue %s for agent review", ref)},
			StepResult{Step: "update_status", Success: true, Output: fmt.Sprintf("DRY RUN: would mark %s needs_review", ref)},
		)
		return results
	}

	err := e.db.InsertWorkItem(&models.WorkItem{
		TicketRef: ref,
		Kind:      models.WorkItemReviewQueue,
		Note:      note,
		CreatedAt: time.Now(),
	})
	results = append(results, stepResult("queue_for_review",
		fmt.Sprintf("Ticket %s queued for agent review", ref), err))
	if err != nil {
		return results
	}

	err = e.db.UpdateTicketStatus(ref, "needs_review")
	results = append(results, stepResult("update_status",
		fmt.Sprintf("Ticket %s marked needs_review", ref), err))

	return results
}

func stepResult(step, output string, err error) StepResult {
	if err != nil {
		logger.Error("Dispatch step failed", zap.String("step", step), zap.Error(err))
		return StepResult{Step: step, Error: err.Error()}
	}
	return StepResult{Step: step, Success: true, Output: output}
}
