package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/estudai/smart-plan-api/internal/models"
)

// PlanRepository handles persistence for study plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new repository instance.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const planColumns = "id, user_id, name, start_date, end_date, status, settings, total_sessions, total_minutes, sessions_per_day, created_at, updated_at"

// Create persists a new plan, optionally inside an enclosing transaction.
func (r *PlanRepository) Create(ctx context.Context, exec sqlx.ExtContext, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	const query = `
INSERT INTO plans (id, user_id, name, start_date, end_date, status, settings, total_sessions, total_minutes, sessions_per_day, created_at, updated_at)
VALUES (:id, :user_id, :name, :start_date, :end_date, :status, :settings, :total_sessions, :total_minutes, :sessions_per_day, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

// FindByID returns a plan by id.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	query := fmt.Sprintf("SELECT %s FROM plans WHERE id = $1", planColumns)
	var plan models.Plan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByUser returns the user's plans with pagination, optionally filtered by status.
func (r *PlanRepository) ListByUser(ctx context.Context, userID string, status models.PlanStatus, page, pageSize int) ([]models.Plan, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	base := "FROM plans WHERE user_id = $1"
	args := []interface{}{userID}
	if status != "" {
		base += " AND status = $2"
		args = append(args, status)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", planColumns, base, pageSize, offset)
	var plans []models.Plan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list plans: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count plans: %w", err)
	}
	return plans, total, nil
}

// UpdateStatus transitions a plan's lifecycle state.
func (r *PlanRepository) UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error {
	const query = `UPDATE plans SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update plan status: plan %s not found", id)
	}
	return nil
}

// UpdateStats rewrites the aggregate counters kept on the plan row.
func (r *PlanRepository) UpdateStats(ctx context.Context, planID string, stats models.PlanStats) error {
	const query = `UPDATE plans SET total_sessions = $1, total_minutes = $2, sessions_per_day = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, stats.TotalSessions, stats.TotalMinutes, stats.SessionsPerDay, time.Now().UTC(), planID); err != nil {
		return fmt.Errorf("update plan stats: %w", err)
	}
	return nil
}

// Delete removes a plan. Sessions cascade at the database level.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}
