// Package planner turns a validated request into a priced day of meals.
// It owns the request boundary, the worker pool around the optimizer and
// the optional collaborators (history, metrics, advisor).
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/intake"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/optimizer"
	"konbini-planner/internal/shared"
)

// Tolerance is the deviation above which a plan carries a warning.
const Tolerance = 100

// Result is a finished plan and how it was reached.
type Result struct {
	ID            string            `json:"id"`
	Store         string            `json:"store"`
	Budget        int               `json:"daily_budget"`
	Estimate      intake.Estimate   `json:"estimate"`
	Plan          optimizer.DayPlan `json:"plan"`
	Split         optimizer.Split   `json:"split"`
	Deviation     int               `json:"deviation"`
	BaseDeviation int               `json:"base_deviation"`
	Delta         int               `json:"delta"`
	Warnings      []string          `json:"warnings,omitempty"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Commenter writes a short note on a finished plan.
type Commenter interface {
	Comment(ctx context.Context, est intake.Estimate, plan optimizer.DayPlan) (string, shared.AgentMeta, error)
}

// History persists results per user.
type History interface {
	Save(ctx context.Context, userID string, res *Result) error
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]Result, error)
}

// Option configures a Planner.
type Option func(*Planner)

// WithHistory stores every successful result of an identified user.
func WithHistory(h History) Option {
	return func(p *Planner) { p.history = h }
}

// WithRecorder reports every run.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Planner) { p.recorder = r }
}

// WithCommenter attaches a note to every successful result.
func WithCommenter(c Commenter) Option {
	return func(p *Planner) { p.commenter = c }
}

// WithOptions overrides the search tuning.
func WithOptions(opts optimizer.Options) Option {
	return func(p *Planner) { p.opts = opts }
}

// WithPool sets the number of concurrent computations and the per-request timeout.
func WithPool(workers int, timeout time.Duration) Option {
	return func(p *Planner) {
		if workers > 0 {
			p.workers = int64(workers)
		}
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// Planner runs plan requests against one catalog.
type Planner struct {
	catalog   *catalog.Catalog
	opts      optimizer.Options
	history   History
	recorder  metrics.Recorder
	commenter Commenter

	workers int64
	timeout time.Duration
	sem     *semaphore.Weighted

	now    func() time.Time
	logger zerolog.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(cat *catalog.Catalog, opts ...Option) *Planner {
	p := &Planner{
		catalog: cat,
		opts:    optimizer.DefaultOptions(),
		workers: 1,
		timeout: 10 * time.Second,
		now:     time.Now,
		logger:  log.With().Str("component", "planner").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	p.sem = semaphore.NewWeighted(p.workers)
	return p
}

// Catalog returns the catalog the planner reads.
func (p *Planner) Catalog() *catalog.Catalog {
	return p.catalog
}

type computation struct {
	estimate intake.Estimate
	outcome  optimizer.Outcome
	plan     optimizer.DayPlan
	err      error
}

// Plan validates req, runs the optimizer on a pooled worker and decorates
// the result. A run that outlives the timeout returns an error wrapping
// context.DeadlineExceeded; the computation finishes in the background and
// its result is dropped.
func (p *Planner) Plan(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	today := p.now()

	profile, err := req.Validate(p.catalog, today)
	if err != nil {
		p.record(ctx, req.Store, 0, nil, metrics.OutcomeInvalid, start)
		return nil, err
	}
	est := intake.Calculate(profile, today)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.record(context.WithoutCancel(ctx), req.Store, est.Intake, nil, metrics.OutcomeTimeout, start)
		return nil, fmt.Errorf("waiting for a planner worker: %w", err)
	}

	done := make(chan computation, 1)
	go func() {
		defer p.sem.Release(1)
		done <- p.compute(req, est)
	}()

	var c computation
	select {
	case c = <-done:
	case <-ctx.Done():
		p.logger.Warn().Str("store", req.Store).Dur("timeout", p.timeout).Msg("plan computation timed out")
		p.record(context.WithoutCancel(ctx), req.Store, est.Intake, nil, metrics.OutcomeTimeout, start)
		return nil, fmt.Errorf("plan computation: %w", ctx.Err())
	}

	if c.err != nil {
		outcome := metrics.OutcomeNoPlan
		if errors.Is(c.err, ErrInfeasibleCatalog) {
			outcome = metrics.OutcomeInfeasible
		}
		p.record(ctx, req.Store, est.Intake, nil, outcome, start)
		p.logger.Info().Str("store", req.Store).Int("budget", req.Budget).Int("intake", est.Intake).Err(c.err).Msg("no plan")
		return nil, c.err
	}

	res := newResult(req, c, today)
	if p.commenter != nil {
		note, meta, err := p.commenter.Comment(ctx, est, res.Plan)
		if err != nil {
			p.logger.Warn().Err(err).Msg("advisor failed, continuing without a note")
		} else {
			res.Note = note
		}
		if p.recorder != nil {
			if err := p.recorder.RecordMeta(meta); err != nil {
				p.logger.Error().Err(err).Msg("failed to record advisor usage")
			}
		}
	}

	if p.history != nil && req.UserID != "" {
		if err := p.history.Save(ctx, req.UserID, res); err != nil {
			p.logger.Error().Err(err).Str("user", req.UserID).Msg("failed to save plan history")
		}
	}

	p.record(ctx, req.Store, est.Intake, res, metrics.OutcomeOK, start)
	p.logger.Info().
		Str("store", req.Store).
		Int("intake", est.Intake).
		Int("deviation", res.Deviation).
		Stringer("split", res.Split).
		Int("price", res.Plan.Price).
		Dur("latency", time.Since(start)).
		Msg("plan computed")
	return res, nil
}

// History returns the most recent results of a user, newest first.
func (p *Planner) History(ctx context.Context, userID string, limit int) ([]Result, error) {
	if p.history == nil {
		return nil, nil
	}
	return p.history.ListRecentByUserID(ctx, userID, limit)
}

func (p *Planner) compute(req Request, est intake.Estimate) computation {
	c := computation{estimate: est}
	c.outcome, c.plan, c.err = Solve(p.catalog.ForStore(req.Store), est.Intake, req.Budget, p.opts)
	return c
}

// Solve is the synchronous pipeline: per-slot pools, split search, then
// filler refinement of the winning plan.
func Solve(items []catalog.Item, target, budget int, opts optimizer.Options) (optimizer.Outcome, optimizer.DayPlan, error) {
	var pools optimizer.Pools
	for _, s := range catalog.MealSlots {
		pool := catalog.Pool(items, s)
		if len(pool) == 0 {
			return optimizer.Outcome{}, optimizer.DayPlan{}, fmt.Errorf("%w: nothing for %s", ErrInfeasibleCatalog, s)
		}
		combos := optimizer.Generate(pool, budget, optimizer.MaxItems)
		switch s {
		case catalog.SlotBreakfast:
			pools.Breakfast = combos
		case catalog.SlotLunch:
			pools.Lunch = combos
		case catalog.SlotDinner:
			pools.Dinner = combos
		}
	}

	outcome := optimizer.Search(pools, target, budget, opts)
	if !outcome.Found() {
		return outcome, optimizer.DayPlan{}, ErrNoFeasiblePlan
	}

	refined := optimizer.Refine(*outcome.Plan, catalog.Fillers(items), target, budget, optimizer.DefaultMaxAdditions)
	return outcome, refined, nil
}

func newResult(req Request, c computation, now time.Time) *Result {
	target := c.estimate.Intake
	res := &Result{
		ID:            uuid.NewString(),
		Store:         req.Store,
		Budget:        req.Budget,
		Estimate:      c.estimate,
		Plan:          c.plan,
		Split:         c.outcome.Split,
		Deviation:     c.plan.Deviation(target),
		BaseDeviation: c.outcome.Deviation,
		Delta:         c.plan.Calories - target,
		CreatedAt:     now.UTC(),
	}
	if res.Deviation > Tolerance {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("plan is %+d kcal away from the %d kcal target; try a higher budget or another store", res.Delta, target))
	}
	return res
}

func (p *Planner) record(ctx context.Context, store string, target int, res *Result, outcome string, start time.Time) {
	if p.recorder == nil {
		return
	}
	m := metrics.PlanMetric{
		Store:     store,
		Intake:    target,
		Outcome:   outcome,
		Latency:   time.Since(start),
		Timestamp: time.Now(),
	}
	if res != nil {
		m.Deviation = res.Deviation
		m.Price = res.Plan.Price
	}
	if err := p.recorder.RecordPlan(ctx, m); err != nil {
		p.logger.Error().Err(err).Msg("failed to record plan metric")
	}
}
