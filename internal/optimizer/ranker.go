package optimizer

import (
	"cmp"
	"slices"
)

// DefaultKeepTop caps how many ranked candidates a slot contributes.
const DefaultKeepTop = 120

// Candidate is a combination scored against a calorie target.
type Candidate struct {
	Combination
	Deviation int `json:"deviation"`
}

func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(a.Deviation, b.Deviation); c != 0 {
		return c
	}
	return cmp.Compare(a.Price, b.Price)
}

// Score attaches |calories - target| to every combination.
func Score(combos []Combination, target int) []Candidate {
	out := make([]Candidate, len(combos))
	for i, c := range combos {
		out[i] = Candidate{Combination: c, Deviation: abs(c.Calories - target)}
	}
	return out
}

// Frontier keeps one candidate per distinct deviation value: the first seen
// in (deviation, price) order, which is the cheapest.
func Frontier(cands []Candidate) []Candidate {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, compareCandidates)

	out := make([]Candidate, 0, len(sorted))
	for i, c := range sorted {
		if i > 0 && sorted[i-1].Deviation == c.Deviation {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Rank scores combos against target, reduces them to the deviation frontier
// and returns at most keepTop entries ordered by (deviation, price).
func Rank(combos []Combination, target, keepTop int) []Candidate {
	if keepTop <= 0 {
		keepTop = DefaultKeepTop
	}
	frontier := Frontier(Score(combos, target))
	if len(frontier) > keepTop {
		frontier = frontier[:keepTop]
	}
	return frontier
}
