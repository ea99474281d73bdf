package dto

// AvailabilityWindowRequest is one weekly study window. Day uses 0=Sunday.
// Windows whose end precedes their start cross midnight.
type AvailabilityWindowRequest struct {
	Day       int    `json:"day" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// SessionDurationBounds constrains per-session length in minutes.
type SessionDurationBounds struct {
	Min int `json:"min" validate:"omitempty,min=5"`
	Max int `json:"max" validate:"omitempty,min=5"`
}

// RevisionSettings tunes spaced-repetition generation.
type RevisionSettings struct {
	Enabled            bool   `json:"enabled"`
	DurationPercentage int    `json:"durationPercentage" validate:"omitempty,min=1,max=100"`
	Strategy           string `json:"strategy" validate:"omitempty,oneof=next-available adjust-interval skip strict-days"`
}

// GeneratePlanRequest instructs the planner to build a full study plan. At
// least one of SubjectIDs and DisciplineIDs must be non-empty.
type GeneratePlanRequest struct {
	Name             string                      `json:"name" validate:"required,min=1,max=120"`
	StartDate        string                      `json:"startDate" validate:"required,len=10"`
	EndDate          string                      `json:"endDate" validate:"required,len=10"`
	SubjectIDs       []string                    `json:"subjectIds" validate:"omitempty,dive,required"`
	DisciplineIDs    []string                    `json:"disciplineIds" validate:"omitempty,dive,required"`
	Availability     []AvailabilityWindowRequest `json:"availability" validate:"omitempty,dive"`
	DailyMinutes     int                         `json:"dailyMinutes" validate:"omitempty,min=15"`
	SessionDuration  SessionDurationBounds       `json:"sessionDuration"`
	Revisions        RevisionSettings            `json:"revisions"`
	ActivateOnCreate bool                        `json:"activateOnCreate"`
}

// PlanWarning surfaces degraded placements (forced slots, dropped revisions).
type PlanWarning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Subject string `json:"subjectId,omitempty"`
	Date    string `json:"date,omitempty"`
}

// GeneratePlanResponse returns the persisted plan with its aggregates.
type GeneratePlanResponse struct {
	PlanID         string        `json:"planId"`
	Status         string        `json:"status"`
	TotalSessions  int           `json:"totalSessions"`
	TotalMinutes   int           `json:"totalMinutes"`
	SessionsPerDay float64       `json:"sessionsPerDay"`
	Warnings       []PlanWarning `json:"warnings,omitempty"`
}

// PlanListQuery filters plan summaries.
type PlanListQuery struct {
	Status   string `form:"status" json:"status" validate:"omitempty,oneof=draft active completed archived"`
	Page     int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" json:"pageSize" validate:"omitempty,min=1,max=100"`
}

// UpdatePlanStatusRequest transitions a plan's lifecycle state.
type UpdatePlanStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active completed archived"`
}

// CreateSessionRequest appends a manual session to an existing plan.
type CreateSessionRequest struct {
	SubjectID       string `json:"subjectId" validate:"required"`
	Date            string `json:"date" validate:"required,len=10"`
	StartTime       string `json:"startTime" validate:"required,len=5"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=5"`
}

// UpdateSessionRequest mutates a scheduled session. Nil fields are untouched.
type UpdateSessionRequest struct {
	Date                  *string `json:"date" validate:"omitempty,len=10"`
	StartTime             *string `json:"startTime" validate:"omitempty,len=5"`
	DurationMinutes       *int    `json:"durationMinutes" validate:"omitempty,min=5"`
	Completed             *bool   `json:"completed"`
	ActualDurationMinutes *int    `json:"actualDurationMinutes" validate:"omitempty,min=1"`
}

// SessionListQuery filters a plan's sessions.
type SessionListQuery struct {
	From       string `form:"from" json:"from" validate:"omitempty,len=10"`
	To         string `form:"to" json:"to" validate:"omitempty,len=10"`
	Revisions  string `form:"revisions" json:"revisions" validate:"omitempty,oneof=only exclude"`
	SubjectID  string `form:"subjectId" json:"subjectId"`
	Discipline string `form:"disciplineId" json:"disciplineId"`
}

// ExportQuery selects the download format for a plan export.
type ExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}
