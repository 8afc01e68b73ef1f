package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/config"
	"konbini-planner/internal/database"
	"konbini-planner/internal/intake"
	"konbini-planner/internal/optimizer"
	"konbini-planner/internal/planner"
)

var today = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestBot(t *testing.T, withSessions bool) *Bot {
	t.Helper()
	cfg := &config.Config{AdminTelegramID: 1, DatabasePath: filepath.Join(t.TempDir(), "bot.db")}
	clock := func() time.Time { return today }

	var sessions *SessionRepository
	opts := []planner.Option{planner.WithClock(clock)}
	if withSessions {
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		sessions = NewSessionRepository(db.SQL, time.Hour)
		opts = append(opts, planner.WithHistory(planner.NewPlanRepository(db.SQL)))
	}

	b := newBot(cfg, planner.NewPlanner(catalog.Default(), opts...), nil, sessions)
	b.now = clock
	return b
}

func TestParsePlanArgs(t *testing.T) {
	req, err := parsePlanArgs("33 male 173 78 70 60 med 1000 Seven", today)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if req.Age != 33 || req.HeightCM != 173 || req.WeightKG != 78 || req.GoalKG != 70 || req.Budget != 1000 {
		t.Errorf("Unexpected numbers %+v", req)
	}
	if req.Deadline != "2026-03-11" {
		t.Errorf("Expected deadline 2026-03-11, got %s", req.Deadline)
	}
	if req.Store != "seven" || req.Activity != "med" || req.Sex != "male" {
		t.Errorf("Unexpected strings %+v", req)
	}

	for _, bad := range []string{
		"33 male 173 78 70 60 medium 1000",
		"x male 173 78 70 60 medium 1000 seven",
		"33 male tall 78 70 60 medium 1000 seven",
		"33 male 173 78 70 -1 medium 1000 seven",
	} {
		if _, err := parsePlanArgs(bad, today); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestFormatPlanMarkdown(t *testing.T) {
	onigiri := catalog.Item{Store: "seven", Name: "Onigiri (kombu)", Calories: 180, Price: 120}
	salad := catalog.Item{Store: "seven", Name: "Chicken salad with vegetables", Calories: 210, Price: 420}
	fish := catalog.Item{Store: "seven", Name: "Grilled mackerel", Calories: 280, Price: 360}
	plan := optimizer.NewDayPlan(optimizer.NewCombination(onigiri), optimizer.NewCombination(salad), optimizer.NewCombination(fish))

	res := &planner.Result{
		Store:    "seven",
		Estimate: intake.Estimate{Intake: 800, TDEE: 2339, Days: 60},
		Plan:     plan,
		Split:    optimizer.Split{Breakfast: 25, Lunch: 35, Dinner: 40},
		Delta:    plan.Calories - 800,
		Warnings: []string{"too_far"},
		Note:     "Nice day.",
	}

	out := formatPlanMarkdown(res)
	for _, want := range []string{
		"🍙 *Today's plan at seven*",
		"*Breakfast* (180 kcal, ¥120)",
		"• Grilled mackerel: 280 kcal, ¥360",
		"*Total*: 670 kcal / ¥900 (-130 kcal, split 25/35/40)",
		"⚠️ too\\_far",
		"_Nice day._",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, false)

	t.Run("Help", func(t *testing.T) {
		if out := b.respond(ctx, 5, "start", ""); !strings.Contains(out, "/plan age sex") {
			t.Errorf("Expected usage, got %s", out)
		}
	})

	t.Run("Stores", func(t *testing.T) {
		out := b.respond(ctx, 5, "stores", "")
		if !strings.Contains(out, "familymart\nhottomotto\nseven") {
			t.Errorf("Unexpected stores reply %s", out)
		}
	})

	t.Run("Plan", func(t *testing.T) {
		out := b.respond(ctx, 5, "plan", "33 male 173 78 70 60 medium 1000 seven")
		if !strings.Contains(out, "Target 1313 kcal") {
			t.Errorf("Unexpected plan reply %s", out)
		}
	})

	t.Run("PlanInvalid", func(t *testing.T) {
		out := b.respond(ctx, 5, "plan", "33 male 173 78 70 60 medium 100 seven")
		if !strings.Contains(out, "daily\\_budget") {
			t.Errorf("Expected a budget error, got %s", out)
		}
	})

	t.Run("BarePlanWithoutSession", func(t *testing.T) {
		if out := b.respond(ctx, 5, "plan", ""); out != planUsage {
			t.Errorf("Expected usage, got %s", out)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		out := b.respond(ctx, 5, "progress", "80 70 74")
		if !strings.Contains(out, "60%") || !strings.Contains(out, "★★☆☆") {
			t.Errorf("Unexpected progress reply %s", out)
		}
	})

	t.Run("MetricsAdminOnly", func(t *testing.T) {
		if out := b.respond(ctx, 5, "metrics", ""); !strings.Contains(out, "Admin only") {
			t.Errorf("Expected access denied, got %s", out)
		}
		if out := b.respond(ctx, 1, "metrics", ""); out != "Metrics are disabled." {
			t.Errorf("Expected disabled metrics, got %s", out)
		}
	})
}

func TestRespondRepeatsLastRequest(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, true)

	first := b.respond(ctx, 7, "plan", "33 male 173 78 70 60 medium 1000 seven")
	if !strings.Contains(first, "Target 1313 kcal") {
		t.Fatalf("Unexpected first reply %s", first)
	}

	again := b.respond(ctx, 7, "plan", "")
	if again != first {
		t.Errorf("Expected the bare /plan to repeat the request\nfirst: %s\nagain: %s", first, again)
	}

	history := b.respond(ctx, 7, "history", "")
	if strings.Count(history, "(target 1313)") != 2 {
		t.Errorf("Expected two plans in history, got %s", history)
	}
}

func TestAllowed(t *testing.T) {
	b := newBot(&config.Config{}, nil, nil, nil)
	if !b.allowed(99) {
		t.Error("Expected everyone to be allowed without an allow-list")
	}
	b.cfg.TelegramAllowedUserIDs = []int64{1, 2}
	if b.allowed(99) || !b.allowed(2) {
		t.Error("Allow-list not honoured")
	}
}

func TestSessionRepository(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := NewSessionRepository(db.SQL, time.Hour)
	ctx := context.Background()

	req := planner.Request{Age: 33, Sex: "male", Budget: 1000, Store: "seven"}
	if err := repo.SaveLastRequest(ctx, "7", req); err != nil {
		t.Fatalf("SaveLastRequest failed: %v", err)
	}
	req.Budget = 1200
	if err := repo.SaveLastRequest(ctx, "7", req); err != nil {
		t.Fatalf("SaveLastRequest upsert failed: %v", err)
	}

	got, err := repo.LastRequest(ctx, "7", time.Now())
	if err != nil || got == nil {
		t.Fatalf("Expected a stored request, got %v / %v", got, err)
	}
	if got.Budget != 1200 || got.UserID != "7" {
		t.Errorf("Unexpected request %+v", got)
	}

	if got, _ := repo.LastRequest(ctx, "7", time.Now().Add(2*time.Hour)); got != nil {
		t.Errorf("Expected the session to expire, got %+v", got)
	}
	if got, _ := repo.LastRequest(ctx, "8", time.Now()); got != nil {
		t.Errorf("Expected no session for another user, got %+v", got)
	}

	n, err := repo.CleanupExpired(ctx, time.Now().Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Errorf("Expected one expired session removed, got %d / %v", n, err)
	}
}
