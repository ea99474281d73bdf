package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/estudai/smart-plan-api/internal/models"
)

// DisciplineRepository handles persistence for disciplines.
type DisciplineRepository struct {
	db *sqlx.DB
}

// NewDisciplineRepository creates a new repository instance.
func NewDisciplineRepository(db *sqlx.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// FindByID returns a discipline by id.
func (r *DisciplineRepository) FindByID(ctx context.Context, id string) (*models.Discipline, error) {
	const query = `SELECT id, name, created_at, updated_at FROM disciplines WHERE id = $1`
	var discipline models.Discipline
	if err := r.db.GetContext(ctx, &discipline, query, id); err != nil {
		return nil, err
	}
	return &discipline, nil
}

// List returns all disciplines ordered by name.
func (r *DisciplineRepository) List(ctx context.Context) ([]models.Discipline, error) {
	const query = `SELECT id, name, created_at, updated_at FROM disciplines ORDER BY name ASC`
	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	return disciplines, nil
}
