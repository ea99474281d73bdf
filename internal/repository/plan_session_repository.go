package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/estudai/smart-plan-api/internal/models"
)

// PlanSessionRepository handles persistence for plan sessions.
type PlanSessionRepository struct {
	db *sqlx.DB
}

// NewPlanSessionRepository creates a new repository instance.
func NewPlanSessionRepository(db *sqlx.DB) *PlanSessionRepository {
	return &PlanSessionRepository{db: db}
}

func (r *PlanSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const sessionColumns = "id, plan_id, title, discipline_id, subject_id, date, start_time, end_time, duration_minutes, is_revision, original_session_id, metadata, created_at, updated_at"

const insertSessionQuery = `
INSERT INTO plan_sessions (id, plan_id, title, discipline_id, subject_id, date, start_time, end_time, duration_minutes, is_revision, original_session_id, metadata, created_at, updated_at)
VALUES (:id, :plan_id, :title, :discipline_id, :subject_id, :date, :start_time, :end_time, :duration_minutes, :is_revision, :original_session_id, :metadata, :created_at, :updated_at)`

// BulkInsertMain inserts main sessions and returns the assigned ids in input
// order.
func (r *PlanSessionRepository) BulkInsertMain(ctx context.Context, tx *sqlx.Tx, sessions []models.PlanSession) ([]string, error) {
	if len(sessions) == 0 {
		return nil, nil
	}
	target := r.exec(tx)
	now := time.Now().UTC()

	ids := make([]string, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, insertSessionQuery, session); err != nil {
			return nil, fmt.Errorf("insert main session: %w", err)
		}
		ids = append(ids, session.ID)
	}
	return ids, nil
}

// BulkInsertRevisions inserts revision sessions. Callers must have rewritten
// original_session_id to a persisted main session id first.
func (r *PlanSessionRepository) BulkInsertRevisions(ctx context.Context, tx *sqlx.Tx, sessions []models.PlanSession) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(tx)
	now := time.Now().UTC()

	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, insertSessionQuery, session); err != nil {
			return fmt.Errorf("insert revision session: %w", err)
		}
	}
	return nil
}

// Create persists a single manually added session.
func (r *PlanSessionRepository) Create(ctx context.Context, session *models.PlanSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, insertSessionQuery, session); err != nil {
		return fmt.Errorf("create plan session: %w", err)
	}
	return nil
}

// FindByID returns a session by id.
func (r *PlanSessionRepository) FindByID(ctx context.Context, id string) (*models.PlanSession, error) {
	query := fmt.Sprintf("SELECT %s FROM plan_sessions WHERE id = $1", sessionColumns)
	var session models.PlanSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionFilter narrows ListByPlan results.
type SessionFilter struct {
	From         *models.PlainDate
	To           *models.PlainDate
	Revisions    string
	SubjectID    string
	DisciplineID string
}

// ListByPlan returns a plan's sessions ordered by date and start time.
func (r *PlanSessionRepository) ListByPlan(ctx context.Context, planID string, filter SessionFilter) ([]models.PlanSession, error) {
	base := "FROM plan_sessions WHERE plan_id = $1"
	args := []interface{}{planID}
	var conditions []string

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	switch filter.Revisions {
	case "only":
		conditions = append(conditions, "is_revision = TRUE")
	case "exclude":
		conditions = append(conditions, "is_revision = FALSE")
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DisciplineID != "" {
		conditions = append(conditions, fmt.Sprintf("discipline_id = $%d", len(args)+1))
		args = append(args, filter.DisciplineID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, start_time ASC", sessionColumns, base)
	var sessions []models.PlanSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list plan sessions: %w", err)
	}
	return sessions, nil
}

// Update rewrites a session's mutable fields.
func (r *PlanSessionRepository) Update(ctx context.Context, session *models.PlanSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE plan_sessions
SET date = :date, start_time = :start_time, end_time = :end_time, duration_minutes = :duration_minutes, metadata = :metadata, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update plan session: %w", err)
	}
	return nil
}

// Delete removes a session. When the session is a main session its revisions
// are removed in the same statement set.
func (r *PlanSessionRepository) Delete(ctx context.Context, id string, cascadeRevisions bool) error {
	if cascadeRevisions {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM plan_sessions WHERE original_session_id = $1`, id); err != nil {
			return fmt.Errorf("delete revision sessions: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plan_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete plan session: %w", err)
	}
	return nil
}
