// Package routing maps predictions onto handling paths: auto-resolution,
// department routing, or human review.
package routing

import (
	"errors"
	"fmt"

	"github.com/ticket-triage/backend/internal/ticket"
)

const (
	DefaultAutoResolveThreshold = 0.85
	DefaultRouteThreshold       = 0.5
)

// ErrEmptyDistribution is returned for predictions without probabilities.
var ErrEmptyDistribution = errors.New("prediction has no probability distribution")

type Config struct {
	AutoResolveThreshold float64
	RouteThreshold       float64
}

// Router applies confidence thresholds to predictions. Pure and stateless
// after construction.
type Router struct {
	autoResolve float64
	route       float64
}

func New(cfg Config) (*Router, error) {
	if cfg.AutoResolveThreshold == 0 {
		cfg.AutoResolveThreshold = DefaultAutoResolveThreshold
	}
	if cfg.RouteThreshold == 0 {
		cfg.RouteThreshold = DefaultRouteThreshold
	}

	if cfg.AutoResolveThreshold <= 0 || cfg.AutoResolveThreshold > 1 {
		return nil, fmt.Errorf("auto-resolve threshold %v outside (0, 1]", cfg.AutoResolveThreshold)
	}
	if cfg.RouteThreshold <= 0 || cfg.RouteThreshold > 1 {
		return nil, fmt.Errorf("route threshold %v outside (0, 1]", cfg.RouteThreshold)
	}
	if cfg.RouteThreshold >= cfg.AutoResolveThreshold {
		return nil, fmt.Errorf("route threshold %v must be below auto-resolve threshold %v",
			cfg.RouteThreshold, cfg.AutoResolveThreshold)
	}

	return &Router{
		autoResolve: cfg.AutoResolveThreshold,
		route:       cfg.RouteThreshold,
	}, nil
}

func (r *Router) AutoResolveThreshold() float64 {
	return r.autoResolve
}

func (r *Router) RouteThreshold() float64 {
	return r.route
}

// Route picks the handling path for a prediction's winning probability:
// at or above the auto-resolve threshold the ticket closes from a template,
// at or above the route threshold it goes straight to the category's
// department, below that it waits for an agent.
func (r *Router) Route(p ticket.Prediction) (ticket.RoutingDecision, error) {
	if len(p.Probabilities) == 0 {
		return ticket.RoutingDecision{}, ErrEmptyDistribution
	}

	department := DepartmentFor(p.Category)

	switch {
	case p.Confidence >= r.autoResolve:
		return ticket.RoutingDecision{
			Action:     ticket.ActionAutoResolve,
			Confidence: p.Confidence,
			Department: department,
			Reason:     "High confidence - can be auto-resolved",
		}, nil
	case p.Confidence >= r.route:
		return ticket.RoutingDecision{
			Action:     ticket.ActionRouteToDepartment,
			Confidence: p.Confidence,
			Department: department,
			Reason:     fmt.Sprintf("Route to %s", department),
		}, nil
	default:
		return ticket.RoutingDecision{
			Action:     ticket.ActionFlagForReview,
			Confidence: p.Confidence,
			Department: department,
			Reason:     "Low confidence - needs agent review",
		}, nil
	}
}

var departments = map[ticket.Category]string{
	ticket.CategoryBug:       "Technical Support - Tier 2",
	ticket.CategoryTechnical: "Technical Support - Tier 1",
	ticket.CategoryBilling:   "Finance Department",
	ticket.CategoryAccount:   "Customer Success Team",
	ticket.CategoryFeature:   "Product Management Team",
}

func DepartmentFor(c ticket.Category) string {
	if d, ok := departments[c]; ok {
		return d
	}
	return "General Support"
}
