package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const createdAtLayout = "2006-01-02 15:04:05.000000000"

// PlanRepository is a database-backed repository for plan results.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a result for userID.
func (r *PlanRepository) Save(ctx context.Context, userID string, res *Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode plan %s: %w", res.ID, err)
	}

	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plans (id, user_id, store, plan_data, created_at) VALUES (?, ?, ?, ?, ?)`,
		res.ID, userID, res.Store, data, createdAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", res.ID, err)
	}
	return nil
}

// ListRecentByUserID retrieves the N most recent results for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]Result, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_data FROM plans WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var res Result
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("failed to decode stored plan: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
