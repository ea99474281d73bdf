package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudai/smart-plan-api/internal/models"
)

func mustDate(t *testing.T, value string) models.PlainDate {
	t.Helper()
	date, err := models.ParsePlainDate(value)
	require.NoError(t, err)
	return date
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		minutes int
		wantErr bool
	}{
		{raw: "18:00", minutes: 1080},
		{raw: "09:05", minutes: 545},
		{raw: "00:00", minutes: 0},
		{raw: "23:59", minutes: 1439},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tc := range tests {
		minutes, err := parseClock(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.minutes, minutes, tc.raw)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "18:00", formatClock(1080))
	assert.Equal(t, "09:05", formatClock(545))
	assert.Equal(t, "00:00", formatClock(0))
}

func TestWeeklyAvailabilityDefaultsToEveryEvening(t *testing.T) {
	availability := newWeeklyAvailability(nil)

	assert.Equal(t, 7, availability.dayCount())
	for day := 0; day < 7; day++ {
		windows := availability.windowsFor(day)
		require.Len(t, windows, 1)
		assert.Equal(t, timeRange{Start: defaultWindowStart, End: defaultWindowEnd}, windows[0])
	}
	assert.Equal(t, 7*120, availability.totalWeeklyMinutes())
}

func TestWeeklyAvailabilityCountsMidnightCrossingWindows(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 5, Start: 23 * 60, End: 60},
	})

	assert.Equal(t, 1, availability.dayCount())
	assert.Equal(t, 120, availability.totalWeeklyMinutes())
}

func TestWeeklyAvailabilitySortsWindowsAndSkipsInvalidDays(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 19 * 60, End: 20 * 60},
		{Day: 1, Start: 8 * 60, End: 9 * 60},
		{Day: 9, Start: 10 * 60, End: 11 * 60},
	})

	windows := availability.windowsFor(1)
	require.Len(t, windows, 2)
	assert.Equal(t, 8*60, windows[0].Start)
	assert.Equal(t, 19*60, windows[1].Start)
	assert.Equal(t, 1, availability.dayCount())
}

func TestSlotAllocatorPrefersHourThenHalfHourMarks(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18*60 + 10, End: 20 * 60},
	})
	allocator := newSlotAllocator(availability, newUsedSlotRegistry())
	monday := mustDate(t, "2026-03-02")

	first, ok := allocator.allocate(monday, 30)
	require.True(t, ok)
	assert.Equal(t, timeRange{Start: 19 * 60, End: 19*60 + 30}, first)

	second, ok := allocator.allocate(monday, 30)
	require.True(t, ok)
	assert.Equal(t, timeRange{Start: 18*60 + 30, End: 19 * 60}, second)

	third, ok := allocator.allocate(monday, 30)
	require.True(t, ok)
	assert.Equal(t, timeRange{Start: 19*60 + 30, End: 20 * 60}, third)

	_, ok = allocator.allocate(monday, 30)
	assert.False(t, ok, "remaining gap before 18:30 is too short")
}

func TestSlotAllocatorFallsBackToWindowStart(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18*60 + 10, End: 18*60 + 40},
	})
	allocator := newSlotAllocator(availability, newUsedSlotRegistry())
	monday := mustDate(t, "2026-03-02")

	slot, ok := allocator.allocate(monday, 30)
	require.True(t, ok)
	assert.Equal(t, timeRange{Start: 18*60 + 10, End: 18*60 + 40}, slot)
}

func TestSlotAllocatorNeverOverlapsRegisteredSlots(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18 * 60, End: 20 * 60},
	})
	allocator := newSlotAllocator(availability, newUsedSlotRegistry())
	monday := mustDate(t, "2026-03-02")

	var placed []timeRange
	for {
		slot, ok := allocator.allocate(monday, 40)
		if !ok {
			break
		}
		placed = append(placed, slot)
	}

	require.NotEmpty(t, placed)
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			assert.False(t, placed[i].overlaps(placed[j]), "slots %v and %v overlap", placed[i], placed[j])
		}
	}
}

func TestSlotAllocatorRejectsUnavailableDayAndZeroDuration(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18 * 60, End: 20 * 60},
	})
	allocator := newSlotAllocator(availability, newUsedSlotRegistry())

	_, ok := allocator.allocate(mustDate(t, "2026-03-03"), 30)
	assert.False(t, ok, "tuesday has no windows")

	_, ok = allocator.allocate(mustDate(t, "2026-03-02"), 0)
	assert.False(t, ok)
}

func TestDayWalkerForwardAndBackward(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18 * 60, End: 20 * 60},
	})
	walker := dayWalker{
		availability: availability,
		planStart:    mustDate(t, "2026-03-02"),
		planEnd:      mustDate(t, "2026-03-15"),
	}

	forward, ok := walker.forward(mustDate(t, "2026-03-03"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-09", forward.String())

	backward, ok := walker.backward(mustDate(t, "2026-03-11"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-09", backward.String())

	same, ok := walker.forward(mustDate(t, "2026-03-09"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-09", same.String(), "a qualifying date is returned unchanged")
}

func TestDayWalkerNearestPrefersCloserDateAndForwardOnTies(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18 * 60, End: 20 * 60},
		{Day: 5, Start: 18 * 60, End: 20 * 60},
	})
	walker := dayWalker{
		availability: availability,
		planStart:    mustDate(t, "2026-03-02"),
		planEnd:      mustDate(t, "2026-03-15"),
	}

	// Tuesday sits one day after Monday and three before Friday.
	nearest, ok := walker.nearest(mustDate(t, "2026-03-03"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", nearest.String())

	// Wednesday is equidistant; the forward candidate wins.
	nearest, ok = walker.nearest(mustDate(t, "2026-03-04"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-06", nearest.String())
}

func TestDayWalkerClampsWeekdayFallbackIntoPlanRange(t *testing.T) {
	availability := newWeeklyAvailability([]availabilityWindow{
		{Day: 1, Start: 18 * 60, End: 20 * 60},
	})
	walker := dayWalker{
		availability: availability,
		planStart:    mustDate(t, "2026-03-02"),
		planEnd:      mustDate(t, "2026-03-08"),
	}

	// The next Monday lies past the plan end, so the weekday fallback fires
	// and the result is clamped to the last plan day.
	resolved, ok := walker.forward(mustDate(t, "2026-03-03"))
	require.True(t, ok)
	assert.Equal(t, "2026-03-08", resolved.String())
}

func TestDayWalkerFailsWithoutAvailableWeekdays(t *testing.T) {
	walker := dayWalker{
		availability: &weeklyAvailability{windows: map[int][]timeRange{}},
		planStart:    mustDate(t, "2026-03-02"),
		planEnd:      mustDate(t, "2026-03-15"),
	}

	_, ok := walker.forward(mustDate(t, "2026-03-03"))
	assert.False(t, ok)

	_, ok = walker.nearest(mustDate(t, "2026-03-03"))
	assert.False(t, ok)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 1080, alignUp(1080, 60))
	assert.Equal(t, 1140, alignUp(1090, 60))
	assert.Equal(t, 85, alignUp(84, 5))
}
