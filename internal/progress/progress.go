// Package progress turns weight-loss progress into a 0-4 level.
package progress

import "math"

// MaxLevel is the level reached at the goal weight.
const MaxLevel = 4

var captions = [MaxLevel + 1]string{
	"Off to a start. Let your body settle in.",
	"Going well. Keep your meal rhythm.",
	"Halfway there. Look after sleep as well as food.",
	"The goal is in sight. One more push.",
	"Goal reached. Time to move to maintenance.",
}

// Percent is how far current has moved from start toward goal, clamped to
// [0, 1]. Gaining and losing both count. A zero-length goal counts as done.
func Percent(start, goal, current float64) float64 {
	total := math.Abs(goal - start)
	if total < 1e-6 {
		return 1
	}
	moved := math.Abs(current - start)
	return math.Max(0, math.Min(1, moved/total))
}

// Level maps a progress fraction onto 25% steps.
func Level(p float64) int {
	switch {
	case p >= 1:
		return 4
	case p >= 0.75:
		return 3
	case p >= 0.5:
		return 2
	case p >= 0.25:
		return 1
	}
	return 0
}

// Caption is the encouragement shown next to a level.
func Caption(level int) string {
	return captions[max(0, min(MaxLevel, level))]
}
