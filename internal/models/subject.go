package models

import "time"

// Subject difficulty and importance levels as stored in the database.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Subject is a study topic belonging to a discipline. Difficulty and
// importance drive the priority score used by the plan generator.
type Subject struct {
	ID           string     `db:"id" json:"id"`
	DisciplineID string     `db:"discipline_id" json:"discipline_id"`
	Title        string     `db:"title" json:"title"`
	Difficulty   string     `db:"difficulty" json:"difficulty"`
	Importance   string     `db:"importance" json:"importance"`
	DueDate      *PlainDate `db:"due_date" json:"due_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Discipline groups subjects under a common area of study.
type Discipline struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LevelValue maps a difficulty/importance string to its numeric weight.
// Unrecognized or empty values fall back to medium.
func LevelValue(level string) int {
	switch level {
	case LevelLow:
		return 1
	case LevelHigh:
		return 3
	default:
		return 2
	}
}
