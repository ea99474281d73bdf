package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PlanStatus tracks the lifecycle of a study plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusArchived  PlanStatus = "archived"
)

// Valid reports whether the status is a known lifecycle state.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusActive, PlanStatusCompleted, PlanStatusArchived:
		return true
	}
	return false
}

// Plan is a date-bounded container of generated study sessions.
type Plan struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	Name          string         `db:"name" json:"name"`
	StartDate     PlainDate      `db:"start_date" json:"start_date"`
	EndDate       PlainDate      `db:"end_date" json:"end_date"`
	Status        PlanStatus     `db:"status" json:"status"`
	Settings      types.JSONText `db:"settings" json:"settings,omitempty"`
	TotalSessions int            `db:"total_sessions" json:"total_sessions"`
	TotalMinutes  int            `db:"total_minutes" json:"total_minutes"`
	SessionsPerDay float64       `db:"sessions_per_day" json:"sessions_per_day"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// PlanStats is the aggregate summary recomputed after every session mutation.
type PlanStats struct {
	TotalSessions  int     `json:"total_sessions"`
	TotalMinutes   int     `json:"total_minutes"`
	SessionsPerDay float64 `json:"sessions_per_day"`
}

// SessionCompletion records how a session was actually studied.
type SessionCompletion struct {
	CompletedAt           time.Time `json:"completedAt"`
	ActualDurationMinutes int       `json:"actualDurationMinutes"`
}

// SessionMetadata is the tagged metadata structure stored alongside each
// session. It replaces the free-form blob the legacy system serialized.
type SessionMetadata struct {
	RevisionInterval  *int               `json:"revisionInterval,omitempty"`
	SubjectDifficulty string             `json:"subjectDifficulty,omitempty"`
	SubjectImportance string             `json:"subjectImportance,omitempty"`
	Completion        *SessionCompletion `json:"completion,omitempty"`
}

// Encode serializes the metadata for storage.
func (m SessionMetadata) Encode() (types.JSONText, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return types.JSONText(payload), nil
}

// DecodeSessionMetadata parses stored metadata; empty input yields the zero value.
func DecodeSessionMetadata(raw types.JSONText) (SessionMetadata, error) {
	var meta SessionMetadata
	if len(raw) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return SessionMetadata{}, err
	}
	return meta, nil
}

// PlanSession is a single scheduled study block. Revisions reference the main
// session they reinforce through OriginalSessionID.
type PlanSession struct {
	ID                string         `db:"id" json:"id"`
	PlanID            string         `db:"plan_id" json:"plan_id"`
	Title             string         `db:"title" json:"title"`
	DisciplineID      string         `db:"discipline_id" json:"discipline_id"`
	SubjectID         string         `db:"subject_id" json:"subject_id"`
	Date              PlainDate      `db:"date" json:"date"`
	StartTime         string         `db:"start_time" json:"start_time"`
	EndTime           string         `db:"end_time" json:"end_time"`
	DurationMinutes   int            `db:"duration_minutes" json:"duration_minutes"`
	IsRevision        bool           `db:"is_revision" json:"is_revision"`
	OriginalSessionID *string        `db:"original_session_id" json:"original_session_id,omitempty"`
	Metadata          types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
