package optimizer

import "konbini-planner/internal/catalog"

// DefaultMaxAdditions is how many filler items Refine may add to dinner.
const DefaultMaxAdditions = 2

// Refine tries adding one or two filler items to dinner and returns whichever
// of {no addition, best single, best pair} deviates least from target while
// staying within budget. Pairs are measured against the unrefined plan, not
// stacked on an accepted single, so at most two items are ever added.
func Refine(plan DayPlan, fillers []catalog.Item, target, budget, maxAdditions int) DayPlan {
	remaining := budget - plan.Price
	if remaining <= 0 || maxAdditions < 1 {
		return plan
	}

	best := plan
	bestDiff := plan.Deviation(target)

	try := func(add ...catalog.Item) {
		price, kcal := 0, 0
		for _, it := range add {
			price += it.Price
			kcal += it.Calories
		}
		if price > remaining {
			return
		}
		if diff := abs(plan.Calories + kcal - target); diff < bestDiff {
			best = NewDayPlan(plan.Breakfast, plan.Lunch, plan.Dinner.With(add...))
			bestDiff = diff
		}
	}

	for _, f := range fillers {
		try(f)
	}
	if maxAdditions >= 2 {
		for i := 0; i < len(fillers); i++ {
			for j := i + 1; j < len(fillers); j++ {
				try(fillers[i], fillers[j])
			}
		}
	}

	return best
}
