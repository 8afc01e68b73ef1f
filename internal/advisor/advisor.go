// Package advisor asks a language model for a short comment on a finished plan.
package advisor

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/intake"
	"konbini-planner/internal/llm"
	"konbini-planner/internal/optimizer"
	"konbini-planner/internal/shared"
)

//go:embed advisor_prompt.md
var advisorPrompt string

var promptTmpl = template.Must(template.New("advisor").Parse(advisorPrompt))

type promptSlot struct {
	Name  string
	Items []catalog.Item
}

type promptData struct {
	Target   int
	TDEE     int
	Days     int
	Calories int
	Price    int
	Slots    []promptSlot
}

// Advisor wraps a TextGenerator.
type Advisor struct {
	textGen llm.TextGenerator
}

// New returns an Advisor, or nil when no generator is configured.
func New(textGen llm.TextGenerator) *Advisor {
	if textGen == nil {
		return nil
	}
	return &Advisor{textGen: textGen}
}

// Comment returns a one-paragraph note on the plan.
func (a *Advisor) Comment(ctx context.Context, est intake.Estimate, plan optimizer.DayPlan) (string, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Advisor"}

	prompt, err := buildPrompt(est, plan)
	if err != nil {
		return "", meta, err
	}

	resp, err := a.textGen.GenerateContent(ctx, prompt)
	meta.Latency = time.Since(start)
	if err != nil {
		return "", meta, fmt.Errorf("advisor generation failed: %w", err)
	}
	meta.Usage = resp.Usage

	note := strings.TrimSpace(resp.Content)
	if note == "" {
		return "", meta, fmt.Errorf("advisor returned an empty comment")
	}
	return note, meta, nil
}

func buildPrompt(est intake.Estimate, plan optimizer.DayPlan) (string, error) {
	data := promptData{
		Target:   est.Intake,
		TDEE:     est.TDEE,
		Days:     est.Days,
		Calories: plan.Calories,
		Price:    plan.Price,
	}
	for _, s := range catalog.MealSlots {
		data.Slots = append(data.Slots, promptSlot{Name: string(s), Items: plan.Slot(s).Items})
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render advisor prompt: %w", err)
	}
	return buf.String(), nil
}
