package catalog

import (
	"fmt"
	"slices"
)

// Catalog is a read-only list of items. It is built once at startup and
// shared by reference; nothing mutates it afterwards.
type Catalog struct {
	items  []Item
	stores []string
}

// New validates the items and builds a catalog. Empty slots default to any.
func New(items []Item) (*Catalog, error) {
	owned := make([]Item, 0, len(items))
	seen := make(map[string]struct{})
	var stores []string

	for idx, it := range items {
		if it.Slot == "" {
			it.Slot = SlotAny
		}
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", idx, err)
		}
		owned = append(owned, it)
		if _, ok := seen[it.Store]; !ok {
			seen[it.Store] = struct{}{}
			stores = append(stores, it.Store)
		}
	}
	slices.Sort(stores)

	return &Catalog{items: owned, stores: stores}, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of every item in catalog order.
func (c *Catalog) Items() []Item {
	return slices.Clone(c.items)
}

// Stores returns the distinct store names, sorted.
func (c *Catalog) Stores() []string {
	return slices.Clone(c.stores)
}

// HasStore reports whether any item belongs to store.
func (c *Catalog) HasStore(store string) bool {
	_, found := slices.BinarySearch(c.stores, store)
	return found
}

// ForStore returns the items of one store, preserving catalog order.
func (c *Catalog) ForStore(store string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Store == store {
			out = append(out, it)
		}
	}
	return out
}

// Pool returns the items eligible for slot (tagged for it or for any).
func Pool(items []Item, slot Slot) []Item {
	var out []Item
	for _, it := range items {
		if it.EligibleFor(slot) {
			out = append(out, it)
		}
	}
	return out
}

// Fillers returns the items flagged as fillers.
func Fillers(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Filler {
			out = append(out, it)
		}
	}
	return out
}
