// Package intake estimates a daily calorie target from biometrics, a goal
// weight and a deadline using the Mifflin-St Jeor energy balance.
package intake

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// KcalPerKg is the energy content of one kilogram of body mass.
	KcalPerKg = 7700.0
	// MinIntake is the lowest daily target ever recommended.
	MinIntake = 1200
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex accepts "male"/"m" and "female"/"f".
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

type Activity string

const (
	ActivityLow    Activity = "low"
	ActivityMedium Activity = "medium"
	ActivityHigh   Activity = "high"
)

var activityMultipliers = map[Activity]float64{
	ActivityLow:    1.2,
	ActivityMedium: 1.375,
	ActivityHigh:   1.55,
}

// ParseActivity accepts low, medium (or med) and high.
func ParseActivity(s string) (Activity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ActivityLow, nil
	case "medium", "med":
		return ActivityMedium, nil
	case "high":
		return ActivityHigh, nil
	}
	return "", fmt.Errorf("unknown activity level %q", s)
}

// Multiplier returns the TDEE factor; unknown levels count as medium.
func (a Activity) Multiplier() float64 {
	if m, ok := activityMultipliers[a]; ok {
		return m
	}
	return activityMultipliers[ActivityMedium]
}

// Profile holds the inputs of the estimate. Ranges are checked by the caller.
type Profile struct {
	Age      int
	Sex      Sex
	HeightCM float64
	WeightKG float64
	GoalKG   float64
	Deadline time.Time
	Activity Activity
}

// Estimate is the outcome of Calculate.
type Estimate struct {
	Intake        int `json:"intake"`
	TDEE          int `json:"tdee"`
	DeficitPerDay int `json:"deficit_per_day"`
	Days          int `json:"days"`
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(p Profile) float64 {
	offset := -161.0
	if p.Sex == SexMale {
		offset = 5
	}
	return 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age) + offset
}

// TDEE is BMR times the activity multiplier, floored.
func TDEE(p Profile) int {
	return int(math.Floor(BMR(p) * p.Activity.Multiplier()))
}

// DaysUntil counts whole calendar days from today to deadline, never less than one.
func DaysUntil(deadline, today time.Time) int {
	d := civilDate(deadline).Sub(civilDate(today)).Hours() / 24
	return max(1, int(math.Round(d)))
}

// Calculate derives the daily target. Already being at or under the goal
// weight means no deficit, and the target never drops below MinIntake.
func Calculate(p Profile, today time.Time) Estimate {
	tdee := TDEE(p)
	days := DaysUntil(p.Deadline, today)

	delta := max(0, p.WeightKG-p.GoalKG)
	deficit := int(delta * KcalPerKg / float64(days))

	return Estimate{
		Intake:        max(MinIntake, tdee-deficit),
		TDEE:          tdee,
		DeficitPerDay: deficit,
		Days:          days,
	}
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
