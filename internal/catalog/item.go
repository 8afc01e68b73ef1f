package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Slot is a meal occasion an item is suited for.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotAny       Slot = "any"
)

// MealSlots lists the three occasions a day plan fills, in serving order.
var MealSlots = []Slot{SlotBreakfast, SlotLunch, SlotDinner}

// ParseSlot accepts a slot name case-insensitively. An empty string means any.
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotBreakfast:
		return SlotBreakfast, nil
	case SlotLunch:
		return SlotLunch, nil
	case SlotDinner:
		return SlotDinner, nil
	case SlotAny, "":
		return SlotAny, nil
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// ErrInvalidItem is returned when a catalog row cannot be used for planning.
var ErrInvalidItem = errors.New("invalid catalog item")

// Item is a purchasable product. Price is in the same unit as the daily budget.
type Item struct {
	Store    string `json:"store" yaml:"store"`
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Calories int    `json:"kcal" yaml:"kcal"`
	Price    int    `json:"price" yaml:"price"`
	Slot     Slot   `json:"slot" yaml:"slot"`
	// Filler marks small low-calorie items used to fine tune a finished plan.
	Filler bool `json:"filler,omitempty" yaml:"filler,omitempty"`
}

// EligibleFor reports whether the item may be served at the given slot.
func (i Item) EligibleFor(s Slot) bool {
	return i.Slot == s || i.Slot == SlotAny
}

// Validate rejects rows that would corrupt the optimizer's arithmetic.
func (i Item) Validate() error {
	switch {
	case strings.TrimSpace(i.Store) == "":
		return fmt.Errorf("%w: %q has no store", ErrInvalidItem, i.Name)
	case strings.TrimSpace(i.Name) == "":
		return fmt.Errorf("%w: unnamed item in store %q", ErrInvalidItem, i.Store)
	case i.Calories < 0:
		return fmt.Errorf("%w: %q has negative calories %d", ErrInvalidItem, i.Name, i.Calories)
	case i.Price < 0:
		return fmt.Errorf("%w: %q has negative price %d", ErrInvalidItem, i.Name, i.Price)
	}
	if _, err := ParseSlot(string(i.Slot)); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidItem, i.Name, err)
	}
	return nil
}
