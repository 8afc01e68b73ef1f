package optimizer

import "slices"

// DefaultDinnerProbe caps how many dinner candidates are tried per
// breakfast+lunch pair.
const DefaultDinnerProbe = 150

// Grid bounds the split search. Dinner is whatever the other two leave.
type Grid struct {
	MinBreakfast int `json:"min_breakfast"`
	MaxBreakfast int `json:"max_breakfast"`
	MinLunch     int `json:"min_lunch"`
	MaxLunch     int `json:"max_lunch"`
	MinDinner    int `json:"min_dinner"`
	MaxDinner    int `json:"max_dinner"`
	Step         int `json:"step"`
}

// DefaultGrid is breakfast 10-50%, lunch 20-60%, dinner 10-60% in 5% steps.
func DefaultGrid() Grid {
	return Grid{
		MinBreakfast: 10, MaxBreakfast: 50,
		MinLunch: 20, MaxLunch: 60,
		MinDinner: 10, MaxDinner: 60,
		Step: 5,
	}
}

// Splits lists the admissible allocations in search order.
func (g Grid) Splits() []Split {
	step := g.Step
	if step <= 0 {
		step = DefaultGrid().Step
	}
	var out []Split
	for b := g.MinBreakfast; b <= g.MaxBreakfast; b += step {
		for l := g.MinLunch; l <= g.MaxLunch; l += step {
			d := 100 - b - l
			if d < g.MinDinner || d > g.MaxDinner {
				continue
			}
			out = append(out, Split{Breakfast: b, Lunch: l, Dinner: d})
		}
	}
	return out
}

// Options tunes Search. Zero values fall back to the defaults.
type Options struct {
	Grid        Grid
	KeepTop     int
	DinnerProbe int
}

// DefaultOptions returns the grid and caps the planner ships with.
func DefaultOptions() Options {
	return Options{
		Grid:        DefaultGrid(),
		KeepTop:     DefaultKeepTop,
		DinnerProbe: DefaultDinnerProbe,
	}
}

func (o Options) withDefaults() Options {
	if o.Grid == (Grid{}) {
		o.Grid = DefaultGrid()
	}
	if o.KeepTop <= 0 {
		o.KeepTop = DefaultKeepTop
	}
	if o.DinnerProbe <= 0 {
		o.DinnerProbe = DefaultDinnerProbe
	}
	return o
}

// Pools holds the pre-generated combinations of each slot.
type Pools struct {
	Breakfast []Combination
	Lunch     []Combination
	Dinner    []Combination
}

// Complete reports whether every slot has at least one combination.
func (p Pools) Complete() bool {
	return len(p.Breakfast) > 0 && len(p.Lunch) > 0 && len(p.Dinner) > 0
}

// Trial is the local result of one split.
type Trial struct {
	Split     Split `json:"split"`
	Feasible  bool  `json:"feasible"`
	Deviation int   `json:"deviation"`
	Price     int   `json:"price"`
}

// Outcome is the best plan over all splits. Plan is nil when no split
// produced a triple within budget.
type Outcome struct {
	Plan      *DayPlan
	Deviation int
	Split     Split
	Trials    []Trial
}

// Found reports whether a plan was selected.
func (o Outcome) Found() bool {
	return o.Plan != nil
}

// Search walks every split of the grid and keeps the plan with the smallest
// whole-day deviation, cheaper plan on ties. Earlier splits win exact ties,
// which makes the result deterministic.
func Search(pools Pools, intake, budget int, opts Options) Outcome {
	opts = opts.withDefaults()
	var out Outcome
	if !pools.Complete() {
		return out
	}

	for _, split := range opts.Grid.Splits() {
		plan, dev, ok := searchSplit(pools, intake, budget, split, opts)
		trial := Trial{Split: split, Feasible: ok}
		if ok {
			trial.Deviation = dev
			trial.Price = plan.Price
		}
		out.Trials = append(out.Trials, trial)
		if !ok {
			continue
		}

		if out.Plan == nil || dev < out.Deviation || (dev == out.Deviation && plan.Price < out.Plan.Price) {
			p := plan
			out.Plan = &p
			out.Deviation = dev
			out.Split = split
		}
	}

	return out
}

func searchSplit(pools Pools, intake, budget int, split Split, opts Options) (DayPlan, int, bool) {
	tb, tl, td := split.Targets(intake)
	breakfasts := Rank(pools.Breakfast, tb, opts.KeepTop)
	lunches := Rank(pools.Lunch, tl, opts.KeepTop)
	dinners := Rank(pools.Dinner, td, opts.KeepTop)

	// dinner ordering depends only on the residual, so pairs sharing one reuse it
	probes := make(map[int][]Candidate)

	var (
		best     DayPlan
		bestDiff int
		found    bool
	)

	for _, b := range breakfasts {
		for _, l := range lunches {
			priceBL := b.Price + l.Price
			if priceBL > budget {
				continue
			}
			kcalBL := b.Calories + l.Calories
			remain := intake - kcalBL

			probe, ok := probes[remain]
			if !ok {
				probe = closestTo(dinners, remain, opts.DinnerProbe)
				probes[remain] = probe
			}

			for _, d := range probe {
				total := priceBL + d.Price
				if total > budget {
					continue
				}
				diff := abs(kcalBL + d.Calories - intake)
				if !found || diff < bestDiff || (diff == bestDiff && total < best.Price) {
					best = NewDayPlan(b.Combination, l.Combination, d.Combination)
					bestDiff = diff
					found = true
				}
			}
		}
	}

	return best, bestDiff, found
}

// closestTo orders cands by distance to target (price on ties) and keeps limit.
func closestTo(cands []Candidate, target, limit int) []Candidate {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		da, db := abs(a.Calories-target), abs(b.Calories-target)
		if da != db {
			return da - db
		}
		return a.Price - b.Price
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
