package models

// RevisionStrategy decides how a revision whose ideal date falls on an
// unavailable weekday is resolved.
type RevisionStrategy string

const (
	// RevisionNextAvailable pushes the revision forward to the next available day.
	RevisionNextAvailable RevisionStrategy = "next-available"
	// RevisionAdjustInterval moves the revision to the chronologically nearest
	// available day, searching in both directions.
	RevisionAdjustInterval RevisionStrategy = "adjust-interval"
	// RevisionSkip drops revisions that would land on unavailable days.
	RevisionSkip RevisionStrategy = "skip"
	// RevisionStrictDays only schedules revisions on configured weekdays.
	// Behaviour matches RevisionSkip; the distinction is kept for API parity.
	RevisionStrictDays RevisionStrategy = "strict-days"
)

// Valid reports whether the strategy is one of the closed set.
func (s RevisionStrategy) Valid() bool {
	switch s {
	case RevisionNextAvailable, RevisionAdjustInterval, RevisionSkip, RevisionStrictDays:
		return true
	}
	return false
}
