package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subjectRowColumns = []string{
	"id", "discipline_id", "title", "difficulty", "importance", "due_date", "created_at", "updated_at",
}

func TestSubjectRepositoryListByIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubjectRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM subjects WHERE id IN \(\$1, \$2\) ORDER BY created_at ASC`).
		WithArgs("subj-1", "subj-2").
		WillReturnRows(sqlmock.NewRows(subjectRowColumns).
			AddRow("subj-1", "disc-1", "Thermodynamics", "high", "high",
				time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), now, now).
			AddRow("subj-2", "disc-1", "Optics", "medium", "low", nil, now, now))

	subjects, err := repo.ListByIDs(context.Background(), []string{"subj-1", "subj-2"})
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	require.NotNil(t, subjects[0].DueDate)
	assert.Equal(t, "2026-03-09", subjects[0].DueDate.String())
	assert.Nil(t, subjects[1].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByIDsEmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubjectRepository(db)

	subjects, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDPreservesNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM subjects WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows), "callers detect missing subjects through sql.ErrNoRows")
}
