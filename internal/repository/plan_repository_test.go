package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudai/smart-plan-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sqlxDB.Close() })
	return sqlxDB, mock
}

var planRowColumns = []string{
	"id", "user_id", "name", "start_date", "end_date", "status", "settings",
	"total_sessions", "total_minutes", "sessions_per_day", "created_at", "updated_at",
}

func planRow(id string) []driver.Value {
	now := time.Now().UTC()
	return []driver.Value{
		id, "user-1", "Exam prep",
		time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		"active", []byte(`{}`), 4, 114, 0.5, now, now,
	}
}

func TestPlanRepositoryCreateAssignsIDAndTimestamps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectExec("INSERT INTO plans").WillReturnResult(sqlmock.NewResult(0, 1))

	plan := &models.Plan{
		UserID:    "user-1",
		Name:      "Exam prep",
		StartDate: models.PlainDate{Year: 2026, Month: time.March, Day: 2},
		EndDate:   models.PlainDate{Year: 2026, Month: time.March, Day: 9},
		Status:    models.PlanStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), nil, plan))

	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.False(t, plan.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM plans WHERE id = \$1`).
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows(planRowColumns).AddRow(planRow("plan-1")...))

	plan, err := repo.FindByID(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, "2026-03-02", plan.StartDate.String())
	assert.Equal(t, models.PlanStatusActive, plan.Status)
	assert.Equal(t, 114, plan.TotalMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryListByUserFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM plans WHERE user_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs("user-1", models.PlanStatusActive).
		WillReturnRows(sqlmock.NewRows(planRowColumns).AddRow(planRow("plan-1")...))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM plans WHERE user_id = \$1 AND status = \$2`).
		WithArgs("user-1", models.PlanStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	plans, total, err := repo.ListByUser(context.Background(), "user-1", models.PlanStatusActive, 0, 0)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectExec(`UPDATE plans SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(models.PlanStatusCompleted, sqlmock.AnyArg(), "plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "plan-1", models.PlanStatusCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateStatusMissingPlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectExec(`UPDATE plans SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.PlanStatusArchived)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPlanRepositoryUpdateStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectExec(`UPDATE plans SET total_sessions = \$1, total_minutes = \$2, sessions_per_day = \$3`).
		WithArgs(3, 108, 0.4, sqlmock.AnyArg(), "plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stats := models.PlanStats{TotalSessions: 3, TotalMinutes: 108, SessionsPerDay: 0.4}
	require.NoError(t, repo.UpdateStats(context.Background(), "plan-1", stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlanRepository(db)

	mock.ExpectExec(`DELETE FROM plans WHERE id = \$1`).
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "plan-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
