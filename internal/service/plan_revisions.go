package service

import (
	"math"

	"github.com/estudai/smart-plan-api/internal/models"
)

// revisionOffsets are the nominal spaced-repetition intervals in days.
var revisionOffsets = []int{1, 3, 7, 14, 30}

const minRevisionMinutes = 15

// revisionDraft pairs an unsaved revision session with the index of the main
// session it reinforces. The real id is only known after the main batch is
// persisted.
type revisionDraft struct {
	session   models.PlanSession
	mainIndex int
}

// revisionPlanner resolves revision dates under the configured conflict
// strategy and allocates slots for them.
type revisionPlanner struct {
	allocator  *slotAllocator
	walker     dayWalker
	strategy   models.RevisionStrategy
	percentage int
}

func newRevisionPlanner(allocator *slotAllocator, walker dayWalker, strategy models.RevisionStrategy, percentage int) *revisionPlanner {
	if !strategy.Valid() {
		strategy = models.RevisionNextAvailable
	}
	if percentage <= 0 {
		percentage = 30
	}
	return &revisionPlanner{
		allocator:  allocator,
		walker:     walker,
		strategy:   strategy,
		percentage: percentage,
	}
}

// planFor emits revision drafts for one main session. A revision that cannot
// find a date or a free slot is dropped on its own; the remaining offsets and
// the main session are unaffected.
func (p *revisionPlanner) planFor(main models.PlanSession, mainIndex int, subject rankedSubject) []revisionDraft {
	drafts := make([]revisionDraft, 0, len(revisionOffsets))
	for _, offset := range revisionOffsets {
		ideal := main.Date.AddDays(offset)
		if ideal.After(p.walker.planEnd) {
			continue
		}

		date, ok := p.resolveDate(ideal)
		if !ok {
			continue
		}

		duration := revisionDuration(main.DurationMinutes, p.percentage)
		slot, ok := p.allocator.allocate(date, duration)
		if !ok {
			continue
		}

		interval := offset
		meta := models.SessionMetadata{
			RevisionInterval:  &interval,
			SubjectDifficulty: subject.Difficulty,
			SubjectImportance: subject.Importance,
		}
		encoded, err := meta.Encode()
		if err != nil {
			continue
		}

		drafts = append(drafts, revisionDraft{
			mainIndex: mainIndex,
			session: models.PlanSession{
				PlanID:          main.PlanID,
				Title:           main.Title,
				DisciplineID:    main.DisciplineID,
				SubjectID:       main.SubjectID,
				Date:            date,
				StartTime:       formatClock(slot.Start),
				EndTime:         formatClock(slot.End),
				DurationMinutes: duration,
				IsRevision:      true,
				Metadata:        encoded,
			},
		})
	}
	return drafts
}

func (p *revisionPlanner) resolveDate(ideal models.PlainDate) (models.PlainDate, bool) {
	if p.walker.qualifies(ideal) {
		return ideal, true
	}
	switch p.strategy {
	case models.RevisionNextAvailable:
		return p.walker.forward(ideal)
	case models.RevisionAdjustInterval:
		return p.walker.nearest(ideal)
	default:
		// skip and strict-days never search for an alternative date.
		return models.PlainDate{}, false
	}
}

func revisionDuration(mainMinutes, percentage int) int {
	duration := int(math.Round(float64(mainMinutes) * float64(percentage) / 100))
	if duration < minRevisionMinutes {
		return minRevisionMinutes
	}
	return duration
}
