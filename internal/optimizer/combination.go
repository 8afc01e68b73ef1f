package optimizer

import "konbini-planner/internal/catalog"

// MaxItems is the largest number of rows combined at one slot.
const MaxItems = 3

// Generate enumerates every subset of pool with 1..maxSize rows whose total
// price is within budget. Each row appears at most once per combination.
// Output order is by size, then lexicographic by pool index, so identical
// input always yields identical output.
//
// The enumeration is exhaustive and grows as C(len(pool), r); keep pools to
// tens of items.
func Generate(pool []catalog.Item, budget, maxSize int) []Combination {
	if maxSize <= 0 {
		maxSize = MaxItems
	}
	n := len(pool)
	var out []Combination

	for r := 1; r <= min(maxSize, n); r++ {
		idx := make([]int, r)
		for i := range idx {
			idx[i] = i
		}

		for {
			price := 0
			for _, i := range idx {
				price += pool[i].Price
			}
			if price <= budget {
				items := make([]catalog.Item, r)
				for k, i := range idx {
					items[k] = pool[i]
				}
				out = append(out, NewCombination(items...))
			}

			// advance to the next r-subset
			k := r - 1
			for k >= 0 && idx[k] == n-r+k {
				k--
			}
			if k < 0 {
				break
			}
			idx[k]++
			for j := k + 1; j < r; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}

	return out
}
