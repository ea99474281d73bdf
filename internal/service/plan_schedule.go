package service

import (
	"fmt"
	"sort"

	"github.com/estudai/smart-plan-api/internal/models"
)

const minutesPerDay = 24 * 60

// parseClock converts an "HH:MM" string into minutes since midnight.
func parseClock(raw string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// timeRange is a half-open [Start,End) interval in minutes since midnight.
type timeRange struct {
	Start int
	End   int
}

func (r timeRange) overlaps(other timeRange) bool {
	return !(r.End <= other.Start || r.Start >= other.End)
}

// durationMinutes treats End < Start as a window crossing midnight.
func (r timeRange) durationMinutes() int {
	if r.End < r.Start {
		return (minutesPerDay - r.Start) + r.End
	}
	return r.End - r.Start
}

// availabilityWindow is one recurring weekly study window. Day uses 0=Sunday.
type availabilityWindow struct {
	Day   int
	Start int
	End   int
}

const (
	defaultWindowStart = 18 * 60
	defaultWindowEnd   = 20 * 60
)

// weeklyAvailability indexes recurring windows by weekday. An empty input is
// not an error: every weekday gets a single evening window instead.
type weeklyAvailability struct {
	windows map[int][]timeRange
}

func newWeeklyAvailability(input []availabilityWindow) *weeklyAvailability {
	a := &weeklyAvailability{windows: make(map[int][]timeRange)}
	if len(input) == 0 {
		for day := 0; day < 7; day++ {
			a.windows[day] = []timeRange{{Start: defaultWindowStart, End: defaultWindowEnd}}
		}
		return a
	}
	for _, w := range input {
		if w.Day < 0 || w.Day > 6 {
			continue
		}
		a.windows[w.Day] = append(a.windows[w.Day], timeRange{Start: w.Start, End: w.End})
	}
	for day := range a.windows {
		sort.Slice(a.windows[day], func(i, j int) bool {
			return a.windows[day][i].Start < a.windows[day][j].Start
		})
	}
	return a
}

func (a *weeklyAvailability) windowsFor(day int) []timeRange {
	return a.windows[day]
}

func (a *weeklyAvailability) hasDay(day int) bool {
	return len(a.windows[day]) > 0
}

func (a *weeklyAvailability) dayCount() int {
	count := 0
	for day := 0; day < 7; day++ {
		if a.hasDay(day) {
			count++
		}
	}
	return count
}

func (a *weeklyAvailability) totalWeeklyMinutes() int {
	total := 0
	for _, ranges := range a.windows {
		for _, r := range ranges {
			total += r.durationMinutes()
		}
	}
	return total
}

// usedSlotRegistry records occupied intervals per date. Built fresh for every
// generation run; never shared between runs.
type usedSlotRegistry struct {
	slots map[models.PlainDate][]timeRange
}

func newUsedSlotRegistry() *usedSlotRegistry {
	return &usedSlotRegistry{slots: make(map[models.PlainDate][]timeRange)}
}

func (r *usedSlotRegistry) fits(date models.PlainDate, candidate timeRange) bool {
	for _, existing := range r.slots[date] {
		if candidate.overlaps(existing) {
			return false
		}
	}
	return true
}

func (r *usedSlotRegistry) register(date models.PlainDate, slot timeRange) {
	list := append(r.slots[date], slot)
	sort.Slice(list, func(i, j int) bool { return list[i].Start < list[j].Start })
	r.slots[date] = list
}

// slotAllocator finds the earliest free interval of the requested duration on
// a given date. Candidates are tried tier by tier inside each window: hour
// marks first, then half-hour marks, the window start itself, the remaining
// quarter-hour grid, and finally any 5-minute offset from the window start.
type slotAllocator struct {
	availability *weeklyAvailability
	registry     *usedSlotRegistry
}

func newSlotAllocator(availability *weeklyAvailability, registry *usedSlotRegistry) *slotAllocator {
	return &slotAllocator{availability: availability, registry: registry}
}

func (s *slotAllocator) allocate(date models.PlainDate, duration int) (timeRange, bool) {
	if duration <= 0 {
		return timeRange{}, false
	}
	for _, window := range s.availability.windowsFor(date.Weekday()) {
		if slot, ok := s.allocateInWindow(date, window, duration); ok {
			return slot, true
		}
	}
	return timeRange{}, false
}

func (s *slotAllocator) allocateInWindow(date models.PlainDate, window timeRange, duration int) (timeRange, bool) {
	for c := alignUp(window.Start, 60); c+duration <= window.End; c += 60 {
		if slot, ok := s.tryCandidate(date, window, c, duration); ok {
			return slot, true
		}
	}

	halfHour := alignUp(window.Start, 30)
	if halfHour%60 == 0 {
		halfHour += 30
	}
	for c := halfHour; c+duration <= window.End; c += 60 {
		if slot, ok := s.tryCandidate(date, window, c, duration); ok {
			return slot, true
		}
	}

	if slot, ok := s.tryCandidate(date, window, window.Start, duration); ok {
		return slot, true
	}

	for c := alignUp(window.Start, 15); c+duration <= window.End; c += 15 {
		if c%30 == 0 {
			continue
		}
		if slot, ok := s.tryCandidate(date, window, c, duration); ok {
			return slot, true
		}
	}

	windowLength := window.End - window.Start
	for i := 0; i <= windowLength-duration; i += 5 {
		c := window.Start + i
		if c%15 == 0 {
			continue
		}
		if slot, ok := s.tryCandidate(date, window, c, duration); ok {
			return slot, true
		}
	}

	return timeRange{}, false
}

func (s *slotAllocator) tryCandidate(date models.PlainDate, window timeRange, start, duration int) (timeRange, bool) {
	candidate := timeRange{Start: start, End: start + duration}
	if candidate.Start < window.Start || candidate.End > window.End {
		return timeRange{}, false
	}
	if !s.registry.fits(date, candidate) {
		return timeRange{}, false
	}
	s.registry.register(date, candidate)
	return candidate, true
}

func alignUp(value, step int) int {
	if rem := value % step; rem != 0 {
		return value + step - rem
	}
	return value
}

// maxWalkAttempts bounds the day-by-day scan before falling back to the
// weekday-offset computation.
const maxWalkAttempts = 14

// dayWalker locates dates inside the plan range whose weekday has at least
// one availability window.
type dayWalker struct {
	availability *weeklyAvailability
	planStart    models.PlainDate
	planEnd      models.PlainDate
}

func (w dayWalker) qualifies(date models.PlainDate) bool {
	if date.Before(w.planStart) || date.After(w.planEnd) {
		return false
	}
	return w.availability.hasDay(date.Weekday())
}

func (w dayWalker) clamp(date models.PlainDate) models.PlainDate {
	if date.Before(w.planStart) {
		return w.planStart
	}
	if date.After(w.planEnd) {
		return w.planEnd
	}
	return date
}

func (w dayWalker) forward(from models.PlainDate) (models.PlainDate, bool) {
	return w.walk(from, 1)
}

func (w dayWalker) backward(from models.PlainDate) (models.PlainDate, bool) {
	return w.walk(from, -1)
}

func (w dayWalker) walk(from models.PlainDate, step int) (models.PlainDate, bool) {
	if w.qualifies(from) {
		return from, true
	}

	visited := make(map[models.PlainDate]bool, maxWalkAttempts)
	cursor := from
	for attempt := 0; attempt < maxWalkAttempts; attempt++ {
		cursor = cursor.AddDays(step)
		if visited[cursor] {
			break
		}
		visited[cursor] = true
		if w.qualifies(cursor) {
			return cursor, true
		}
	}

	offset, ok := w.nearestWeekdayOffset(from.Weekday(), step)
	if !ok {
		return models.PlainDate{}, false
	}
	return w.clamp(from.AddDays(offset * step)), true
}

// nearestWeekdayOffset returns the smallest number of days, in the walking
// direction, to reach any available weekday. A zero offset maps to a full
// week because the starting day itself already failed to qualify.
func (w dayWalker) nearestWeekdayOffset(fromWeekday, step int) (int, bool) {
	best := -1
	for day := 0; day < 7; day++ {
		if !w.availability.hasDay(day) {
			continue
		}
		var offset int
		if step >= 0 {
			offset = ((day - fromWeekday) % 7 + 7) % 7
		} else {
			offset = ((fromWeekday - day) % 7 + 7) % 7
		}
		if offset == 0 {
			offset = 7
		}
		if best == -1 || offset < best {
			best = offset
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// nearest returns whichever of the forward and backward results sits closer
// to the starting date. Ties favor the forward result.
func (w dayWalker) nearest(from models.PlainDate) (models.PlainDate, bool) {
	fwd, okF := w.forward(from)
	bwd, okB := w.backward(from)
	switch {
	case okF && okB:
		fwdGap := from.DaysUntil(fwd)
		bwdGap := bwd.DaysUntil(from)
		if fwdGap < 0 {
			fwdGap = -fwdGap
		}
		if bwdGap < 0 {
			bwdGap = -bwdGap
		}
		if bwdGap < fwdGap {
			return bwd, true
		}
		return fwd, true
	case okF:
		return fwd, true
	case okB:
		return bwd, true
	}
	return models.PlainDate{}, false
}
