// Package optimizer picks a day of convenience-store meals that fits a
// budget and lands as close as possible to a calorie target.
//
// The search is a heuristic. Each slot holds at most MaxItems catalog rows,
// calorie splits are explored on a fixed percentage grid, and candidate lists
// are capped before the nested breakfast x lunch x dinner product is walked.
// Nothing in this package blocks or fails: empty results are values.
package optimizer

import (
	"fmt"

	"konbini-planner/internal/catalog"
)

// Combination is a set of catalog rows served together at one slot.
type Combination struct {
	Items    []catalog.Item `json:"items"`
	Calories int            `json:"kcal"`
	Price    int            `json:"price"`
}

// NewCombination sums the aggregates of items.
func NewCombination(items ...catalog.Item) Combination {
	c := Combination{Items: items}
	for _, it := range items {
		c.Calories += it.Calories
		c.Price += it.Price
	}
	return c
}

// With returns a copy of c with extra items appended.
func (c Combination) With(extra ...catalog.Item) Combination {
	items := make([]catalog.Item, 0, len(c.Items)+len(extra))
	items = append(items, c.Items...)
	items = append(items, extra...)
	return NewCombination(items...)
}

// Split is the percentage of the daily target assigned to each slot.
type Split struct {
	Breakfast int `json:"breakfast"`
	Lunch     int `json:"lunch"`
	Dinner    int `json:"dinner"`
}

func (s Split) String() string {
	return fmt.Sprintf("%d/%d/%d", s.Breakfast, s.Lunch, s.Dinner)
}

// Targets converts the split into per-slot calories. Dinner absorbs the
// rounding remainder so the three always add up to intake.
func (s Split) Targets(intake int) (breakfast, lunch, dinner int) {
	breakfast = intake * s.Breakfast / 100
	lunch = intake * s.Lunch / 100
	dinner = intake - breakfast - lunch
	return breakfast, lunch, dinner
}

// DayPlan is one combination per slot plus whole-day totals.
type DayPlan struct {
	Breakfast Combination `json:"breakfast"`
	Lunch     Combination `json:"lunch"`
	Dinner    Combination `json:"dinner"`
	Calories  int         `json:"total_kcal"`
	Price     int         `json:"total_price"`
}

// NewDayPlan assembles a plan and its totals.
func NewDayPlan(breakfast, lunch, dinner Combination) DayPlan {
	return DayPlan{
		Breakfast: breakfast,
		Lunch:     lunch,
		Dinner:    dinner,
		Calories:  breakfast.Calories + lunch.Calories + dinner.Calories,
		Price:     breakfast.Price + lunch.Price + dinner.Price,
	}
}

// Deviation is the absolute calorie distance from target.
func (p DayPlan) Deviation(target int) int {
	return abs(p.Calories - target)
}

// Slot returns the combination served at s.
func (p DayPlan) Slot(s catalog.Slot) Combination {
	switch s {
	case catalog.SlotBreakfast:
		return p.Breakfast
	case catalog.SlotLunch:
		return p.Lunch
	default:
		return p.Dinner
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
