package routing

import (
	"fmt"
	"sort"

	"github.com/ticket-triage/backend/internal/ticket"
)

// Priority and confidence labels used across the API and stored records.
const (
	PriorityLow        = "LOW"
	PriorityMedium     = "MEDIUM"
	PriorityMediumHigh = "MEDIUM-HIGH"
	PriorityHigh       = "HIGH"

	LevelVeryHigh = "VERY_HIGH"
	LevelHigh     = "HIGH"
	LevelMedium   = "MEDIUM"
	LevelLow      = "LOW"
	LevelVeryLow  = "VERY_LOW"

	RiskHigh    = "HIGH_RISK"
	RiskMedium  = "MEDIUM_RISK"
	RiskLow     = "LOW_RISK"
	RiskVeryLow = "VERY_LOW_RISK"

	StrengthVeryClose = "VERY_CLOSE"
	StrengthClose     = "CLOSE"
	StrengthModerate  = "MODERATE"
	StrengthDistant   = "DISTANT"
)

// highConfidence gates the advisory extras: above it predictions need no
// alternatives and tickets can wait.
const highConfidence = 0.8

// minAlternativeProb filters out noise runner-ups.
const minAlternativeProb = 0.1

type Alternative struct {
	Category         ticket.Category `json:"category"`
	Confidence       float64         `json:"confidence"`
	RelativeStrength string          `json:"relative_strength"`
}

// Analysis carries the advisory fields layered on top of a routing
// decision: suggested priority, confidence/risk labels, runner-up
// categories, and the auto-response template.
type Analysis struct {
	Priority          string        `json:"priority"`
	PriorityReason    string        `json:"priority_reason"`
	ConfidenceLevel   string        `json:"confidence_level"`
	RiskLevel         string        `json:"risk_level"`
	Alternatives      []Alternative `json:"alternatives"`
	ResponseTemplate  string        `json:"response_template"`
	TemplateReference string        `json:"template_reference"`
	EstimatedWait     string        `json:"estimated_wait"`
	Recommendations   []string      `json:"recommendations"`
}

// Analyze derives the advisory extras for a decision. ticketID lands in the
// rendered response template's reference.
func (r *Router) Analyze(p ticket.Prediction, d ticket.RoutingDecision, ticketID string) Analysis {
	priority, reason := r.suggestPriority(p)
	reference := templateReference(p.Category, ticketID)

	return Analysis{
		Priority:          priority,
		PriorityReason:    reason,
		ConfidenceLevel:   ConfidenceLevel(p.Confidence),
		RiskLevel:         RiskLevel(p.Confidence, p.Category),
		Alternatives:      Alternatives(p),
		ResponseTemplate:  responseTemplate(p.Category, reference),
		TemplateReference: reference,
		EstimatedWait:     estimatedWait(d.Action),
		Recommendations:   recommendations(d, p),
	}
}

func (r *Router) suggestPriority(p ticket.Prediction) (string, string) {
	switch {
	case p.Confidence < r.route:
		return PriorityHigh, "low confidence prediction needs attention"
	case p.Category == ticket.CategoryBug || p.Category == ticket.CategoryTechnical:
		return PriorityMediumHigh, "defect or outage category"
	case p.Confidence > highConfidence:
		return PriorityLow, "high confidence prediction"
	default:
		return PriorityMedium, "standard handling"
	}
}

func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return LevelVeryHigh
	case confidence >= 0.6:
		return LevelHigh
	case confidence >= 0.4:
		return LevelMedium
	case confidence >= 0.2:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

func RiskLevel(confidence float64, category ticket.Category) string {
	switch {
	case confidence < 0.4:
		return RiskHigh
	case confidence < 0.6:
		return RiskMedium
	case (category == ticket.CategoryBug || category == ticket.CategoryTechnical) && confidence < highConfidence:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

// Alternatives lists up to two runner-up categories when the winner is not
// clearly ahead. Empty for high-confidence predictions.
func Alternatives(p ticket.Prediction) []Alternative {
	if p.Confidence >= highConfidence || len(p.Probabilities) == 0 {
		return nil
	}

	order := ticket.Categories()
	rank := make(map[ticket.Category]int, len(order))
	for i, c := range order {
		rank[c] = i
	}

	sorted := make([]ticket.Category, 0, len(p.Probabilities))
	for c := range p.Probabilities {
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool {
		pi, pj := p.Probabilities[sorted[i]], p.Probabilities[sorted[j]]
		if pi != pj {
			return pi > pj
		}
		return rank[sorted[i]] < rank[sorted[j]]
	})

	alternatives := make([]Alternative, 0, 2)
	for _, c := range sorted {
		if c == p.Category {
			continue
		}
		prob := p.Probabilities[c]
		if prob <= minAlternativeProb {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Category:         c,
			Confidence:       prob,
			RelativeStrength: relativeStrength(p.Confidence, prob),
		})
		if len(alternatives) == 2 {
			break
		}
	}

	return alternatives
}

func relativeStrength(topProb, altProb float64) string {
	ratio := altProb / topProb
	switch {
	case ratio > 0.8:
		return StrengthVeryClose
	case ratio > 0.6:
		return StrengthClose
	case ratio > 0.4:
		return StrengthModerate
	default:
		return StrengthDistant
	}
}

var templatePrefixes = map[ticket.Category]string{
	ticket.CategoryBug:       "BUG-",
	ticket.CategoryBilling:   "BILL-",
	ticket.CategoryAccount:   "ACC-",
	ticket.CategoryTechnical: "TECH-",
	ticket.CategoryFeature:   "FEAT-",
}

func templateReference(c ticket.Category, ticketID string) string {
	if prefix, ok := templatePrefixes[c]; ok {
		return prefix + ticketID
	}
	return ticketID
}

func responseTemplate(c ticket.Category, reference string) string {
	switch c {
	case ticket.CategoryBug:
		return fmt.Sprintf("We've identified this as a bug. Our development team is working on a fix. Reference: %s", reference)
	case ticket.CategoryBilling:
		return fmt.Sprintf("Your billing inquiry has been received. Our finance team will contact you within 24 hours. Reference: %s", reference)
	case ticket.CategoryAccount:
		return fmt.Sprintf("Your account issue has been logged. Please check your email for password reset instructions. Reference: %s", reference)
	case ticket.CategoryTechnical:
		return fmt.Sprintf("We're aware of this technical issue. Please try clearing cache and restarting. If issue persists, reply to this email. Reference: %s", reference)
	case ticket.CategoryFeature:
		return fmt.Sprintf("Thank you for your feature request! Our product team will review this suggestion. Reference: %s", reference)
	default:
		return fmt.Sprintf("We've received your ticket and will respond soon. Reference: %s", reference)
	}
}

func estimatedWait(a ticket.Action) string {
	switch a {
	case ticket.ActionAutoResolve:
		return "Immediate"
	case ticket.ActionRouteToDepartment:
		return "Within 1 hour"
	default:
		return "Within 4 hours"
	}
}

func recommendations(d ticket.RoutingDecision, p ticket.Prediction) []string {
	switch d.Action {
	case ticket.ActionAutoResolve:
		return []string{
			"send templated response",
			"close after customer confirmation",
		}
	case ticket.ActionRouteToDepartment:
		return []string{
			fmt.Sprintf("assign to %s", d.Department),
			"respond within 1 hour",
		}
	default:
		recs := []string{
			"queue for agent review",
			"respond within 4 hours",
		}
		if RiskLevel(p.Confidence, p.Category) == RiskHigh {
			recs = append(recs, "verify category manually before replying")
		}
		return recs
	}
}
