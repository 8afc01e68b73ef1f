package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FetchHTML downloads a product listing page.
func FetchHTML(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseHTML extracts items from the first table whose header row names at
// least the name, kcal and price columns. Category, slot and filler columns
// are optional. Thousands separators and currency marks in numbers are ignored.
func ParseHTML(r io.Reader, store string) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var (
		items    []Item
		parseErr error
		found    bool
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := headerColumns(table)
		if _, ok := cols["name"]; !ok {
			return true
		}
		if _, ok := cols["kcal"]; !ok {
			return true
		}
		if _, ok := cols["price"]; !ok {
			return true
		}
		found = true

		table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return true
			}
			cell := func(key string) string {
				idx, ok := cols[key]
				if !ok || idx >= cells.Length() {
					return ""
				}
				return strings.TrimSpace(cells.Eq(idx).Text())
			}

			it, err := rowToItem(store, cell)
			if err != nil {
				parseErr = fmt.Errorf("row %d: %w", i, err)
				return false
			}
			items = append(items, it)
			return true
		})
		return false
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if !found {
		return nil, fmt.Errorf("no product table with name, kcal and price columns")
	}
	return items, nil
}

func headerColumns(table *goquery.Selection) map[string]int {
	cols := make(map[string]int)
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		switch strings.ToLower(strings.TrimSpace(th.Text())) {
		case "name", "product":
			cols["name"] = i
		case "kcal", "calories", "energy":
			cols["kcal"] = i
		case "price", "price_jpy", "yen":
			cols["price"] = i
		case "category":
			cols["category"] = i
		case "slot", "meal", "meal_slot":
			cols["slot"] = i
		case "filler":
			cols["filler"] = i
		}
	})
	return cols
}

func rowToItem(store string, cell func(string) string) (Item, error) {
	kcal, err := parseNumber(cell("kcal"))
	if err != nil {
		return Item{}, fmt.Errorf("kcal: %w", err)
	}
	price, err := parseNumber(cell("price"))
	if err != nil {
		return Item{}, fmt.Errorf("price: %w", err)
	}
	slot, err := ParseSlot(cell("slot"))
	if err != nil {
		return Item{}, err
	}

	filler := false
	switch strings.ToLower(cell("filler")) {
	case "yes", "true", "1", "y", "x":
		filler = true
	}

	it := Item{
		Store:    store,
		Category: cell("category"),
		Name:     cell("name"),
		Calories: kcal,
		Price:    price,
		Slot:     slot,
		Filler:   filler,
	}
	return it, it.Validate()
}

func parseNumber(s string) (int, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("no number in %q", s)
	}
	return strconv.Atoi(cleaned)
}
