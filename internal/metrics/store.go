package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"konbini-planner/internal/shared"
)

// Plan run outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeInfeasible = "infeasible"
	OutcomeNoPlan     = "no_plan"
	OutcomeTimeout    = "timeout"
)

// PlanMetric records one pipeline run.
type PlanMetric struct {
	Store     string
	Intake    int
	Deviation int
	Price     int
	Outcome   string
	Latency   time.Duration
	Timestamp time.Time
}

// ExecutionMetric records metadata for a single model call.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Recorder receives plan runs and model usage.
type Recorder interface {
	RecordPlan(ctx context.Context, m PlanMetric) error
	RecordMeta(meta shared.AgentMeta) error
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordPlan saves a plan run.
func (s *Store) RecordPlan(ctx context.Context, m PlanMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_runs (store, intake, deviation, price, outcome, latency_ms, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Store, m.Intake, m.Deviation, m.Price, m.Outcome, m.Latency.Milliseconds(), stamp(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record plan run: %w", err)
	}
	return nil
}

// Record saves a model call.
func (s *Store) Record(m ExecutionMetric) error {
	_, err := s.db.Exec(
		`INSERT INTO llm_usage (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, stamp(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record llm usage: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.AgentMeta.
func (s *Store) RecordMeta(meta shared.AgentMeta) error {
	if meta.Usage.Empty() {
		return nil
	}
	return s.Record(MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// DailyUsage represents totals for a single day.
type DailyUsage struct {
	Date            string
	Plans           int
	Failures        int
	AvgDeviation    float64
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage returns per-day plan and model totals for the last N days,
// newest first.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := stamp(time.Now().AddDate(0, 0, -days))
	byDay := map[string]*DailyUsage{}
	var order []string
	get := func(day string) *DailyUsage {
		if u, ok := byDay[day]; ok {
			return u
		}
		u := &DailyUsage{Date: day}
		byDay[day] = u
		order = append(order, day)
		return u
	}

	rows, err := s.db.Query(`
		SELECT substr(timestamp, 1, 10) AS day,
		       COUNT(*),
		       SUM(CASE WHEN outcome = 'ok' THEN 0 ELSE 1 END),
		       AVG(CASE WHEN outcome = 'ok' THEN deviation END)
		FROM plan_runs WHERE timestamp >= ?
		GROUP BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan runs: %w", err)
	}
	for rows.Next() {
		var day string
		var count, failures int
		var avg sql.NullFloat64
		if err := rows.Scan(&day, &count, &failures, &avg); err != nil {
			rows.Close()
			return nil, err
		}
		u := get(day)
		u.Plans, u.Failures = count, failures
		if avg.Valid {
			u.AvgDeviation = avg.Float64
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens)
		FROM llm_usage WHERE timestamp >= ?
		GROUP BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query llm usage: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var count int
		var prompt, completion sql.NullInt64
		if err := rows.Scan(&day, &count, &prompt, &completion); err != nil {
			return nil, err
		}
		u := get(day)
		u.TotalExecution = count
		u.TotalPrompt = int(prompt.Int64)
		u.TotalCompletion = int(completion.Int64)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]DailyUsage, 0, len(order))
	for _, day := range order {
		results = append(results, *byDay[day])
	}
	slices.SortFunc(results, func(a, b DailyUsage) int { return strings.Compare(b.Date, a.Date) })
	return results, nil
}

// Cleanup removes records older than the specified number of days and
// returns how many rows were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := stamp(time.Now().AddDate(0, 0, -olderThanDays))

	var total int64
	for _, q := range []string{
		`DELETE FROM plan_runs WHERE timestamp < ?`,
		`DELETE FROM llm_usage WHERE timestamp < ?`,
	} {
		res, err := s.db.Exec(q, threshold)
		if err != nil {
			return total, fmt.Errorf("failed to clean up metrics: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// MapUsage converts token usage to an ExecutionMetric.
func MapUsage(agentName string, usage shared.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}

// stamp renders timestamps as sortable UTC text so range filters compare lexically.
func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
