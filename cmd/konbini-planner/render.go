package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/planner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	slotStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(38)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0a84ff"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158"))

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9f0a"))
)

func renderResult(res *planner.Result) string {
	title := titleStyle.Render(fmt.Sprintf("%s · target %d kcal · ¥%d budget", res.Store, res.Estimate.Intake, res.Budget))

	var boxes []string
	for _, s := range catalog.MealSlots {
		combo := res.Plan.Slot(s)
		var sb strings.Builder
		sb.WriteString(headerStyle.Render(fmt.Sprintf("%s  %d kcal  ¥%d", s, combo.Calories, combo.Price)))
		for _, it := range combo.Items {
			fmt.Fprintf(&sb, "\n%-26s %4d ¥%d", it.Name, it.Calories, it.Price)
		}
		boxes = append(boxes, slotStyle.Render(sb.String()))
	}

	lines := []string{
		title,
		lipgloss.JoinVertical(lipgloss.Left, boxes...),
		successStyle.Render(fmt.Sprintf("Total %d kcal (%+d) for ¥%d, split %s", res.Plan.Calories, res.Delta, res.Plan.Price, res.Split)),
	}
	for _, w := range res.Warnings {
		lines = append(lines, warnStyle.Render("! "+w))
	}
	if res.Note != "" {
		lines = append(lines, res.Note)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
