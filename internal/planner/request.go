package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/intake"
)

// DateLayout is the wire format of Request.Deadline.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidInput marks a request rejected before any optimization ran.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasibleCatalog means a slot had no eligible items at the store.
	ErrInfeasibleCatalog = errors.New("catalog has no items for every meal slot")
	// ErrNoFeasiblePlan means nothing fit the budget.
	ErrNoFeasiblePlan = errors.New("no plan fits the daily budget")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Accepted input ranges.
const (
	MinAge, MaxAge           = 18, 80
	MinHeightCM, MaxHeightCM = 140, 210
	MinWeightKG, MaxWeightKG = 35, 150
	MinBudget, MaxBudget     = 300, 3000
)

// Request is a plan request as it arrives from a front end.
type Request struct {
	UserID   string  `json:"-"`
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_now"`
	GoalKG   float64 `json:"weight_goal"`
	Deadline string  `json:"deadline"`
	Activity string  `json:"activity"`
	Budget   int     `json:"daily_budget"`
	Store    string  `json:"store"`
}

// Validate checks ranges and returns the profile for the intake estimate.
// The deadline may be today but not earlier.
func (r Request) Validate(cat *catalog.Catalog, today time.Time) (intake.Profile, error) {
	var p intake.Profile

	if r.Age < MinAge || r.Age > MaxAge {
		return p, rangeError("age", MinAge, MaxAge)
	}
	sex, err := intake.ParseSex(r.Sex)
	if err != nil {
		return p, &ValidationError{Field: "sex", Reason: "must be male or female"}
	}
	if r.HeightCM < MinHeightCM || r.HeightCM > MaxHeightCM {
		return p, rangeError("height_cm", MinHeightCM, MaxHeightCM)
	}
	if r.WeightKG < MinWeightKG || r.WeightKG > MaxWeightKG {
		return p, rangeError("weight_now", MinWeightKG, MaxWeightKG)
	}
	if r.GoalKG < MinWeightKG || r.GoalKG > MaxWeightKG {
		return p, rangeError("weight_goal", MinWeightKG, MaxWeightKG)
	}

	deadline, err := time.Parse(DateLayout, strings.TrimSpace(r.Deadline))
	if err != nil {
		return p, &ValidationError{Field: "deadline", Reason: "must be a date like 2006-01-02"}
	}
	y, m, d := today.Date()
	if deadline.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return p, &ValidationError{Field: "deadline", Reason: "must not be in the past"}
	}

	activity, err := intake.ParseActivity(r.Activity)
	if err != nil {
		return p, &ValidationError{Field: "activity", Reason: "must be low, medium or high"}
	}
	if r.Budget < MinBudget || r.Budget > MaxBudget {
		return p, rangeError("daily_budget", MinBudget, MaxBudget)
	}
	if !cat.HasStore(r.Store) {
		return p, &ValidationError{Field: "store", Reason: fmt.Sprintf("unknown store %q", r.Store)}
	}

	return intake.Profile{
		Age:      r.Age,
		Sex:      sex,
		HeightCM: r.HeightCM,
		WeightKG: r.WeightKG,
		GoalKG:   r.GoalKG,
		Deadline: deadline,
		Activity: activity,
	}, nil
}

func rangeError(field string, lo, hi int) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
}
