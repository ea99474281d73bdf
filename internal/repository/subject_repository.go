package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/estudai/smart-plan-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = "id, discipline_id, title, difficulty, importance, due_date, created_at, updated_at"

// ListByIDs returns subjects matching the given ids, preserving no particular
// order beyond creation time.
func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id IN (%s) ORDER BY created_at ASC",
		subjectColumns, strings.Join(placeholders, ", "))

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects by ids: %w", err)
	}
	return subjects, nil
}

// ListByDisciplines returns all subjects under the given disciplines.
func (r *SubjectRepository) ListByDisciplines(ctx context.Context, disciplineIDs []string) ([]models.Subject, error) {
	if len(disciplineIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(disciplineIDs))
	args := make([]interface{}, len(disciplineIDs))
	for i, id := range disciplineIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE discipline_id IN (%s) ORDER BY created_at ASC",
		subjectColumns, strings.Join(placeholders, ", "))

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects by disciplines: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}
