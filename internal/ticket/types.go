package ticket

import (
	"fmt"
	"time"
)

// Category is one of the five fixed ticket categories.
type Category string

const (
	CategoryBug       Category = "Bug"
	CategoryBilling   Category = "Billing"
	CategoryFeature   Category = "Feature"
	CategoryTechnical Category = "Technical"
	CategoryAccount   Category = "Account"
)

// Categories returns all categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryBug,
		CategoryBilling,
		CategoryFeature,
		CategoryTechnical,
		CategoryAccount,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryBug, CategoryBilling, CategoryFeature, CategoryTechnical, CategoryAccount:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// Action is the routing outcome for a classified ticket.
type Action string

const (
	ActionAutoResolve       Action = "auto_resolve"
	ActionRouteToDepartment Action = "route_to_department"
	ActionFlagForReview     Action = "flag_for_review"
)

func (a Action) String() string {
	return string(a)
}

// Ticket is a support ticket as it appears in the labeled dataset.
// Category is empty for unlabeled input.
type Ticket struct {
	ID          int
	Subject     string
	Description string
	Category    Category
	Priority    string
	Timestamp   time.Time
}

// Prediction is the classifier output for a single ticket: the winning
// category, its probability, and the full distribution over all five
// categories. Probabilities are non-negative and sum to 1.
type Prediction struct {
	Category      Category
	Confidence    float64
	Probabilities map[Category]float64
}

// RoutingDecision maps a prediction onto a handling path.
type RoutingDecision struct {
	Action     Action
	Confidence float64
	Department string
	Reason     string
}
