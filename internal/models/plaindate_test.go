package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainDate(t *testing.T) {
	date, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, PlainDate{Year: 2026, Month: time.March, Day: 2}, date)

	_, err = ParsePlainDate("02/03/2026")
	assert.Error(t, err)

	_, err = ParsePlainDate("2026-13-40")
	assert.Error(t, err)
}

func TestPlainDateWeekday(t *testing.T) {
	sunday, err := ParsePlainDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, sunday.Weekday())

	monday, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, monday.Weekday())

	saturday, err := ParsePlainDate("2026-03-07")
	require.NoError(t, err)
	assert.Equal(t, 6, saturday.Weekday())
}

func TestPlainDateAddDaysCrossesBoundaries(t *testing.T) {
	date, err := ParsePlainDate("2026-02-27")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", date.AddDays(3).String())
	assert.Equal(t, "2026-02-24", date.AddDays(-3).String())

	yearEnd, err := ParsePlainDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2027-01-01", yearEnd.AddDays(1).String())
}

func TestPlainDateDaysUntil(t *testing.T) {
	start, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)
	end, err := ParsePlainDate("2026-03-09")
	require.NoError(t, err)

	assert.Equal(t, 7, start.DaysUntil(end))
	assert.Equal(t, -7, end.DaysUntil(start))
	assert.Equal(t, 0, start.DaysUntil(start))
}

func TestPlainDateOrdering(t *testing.T) {
	earlier, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)
	later, err := ParsePlainDate("2026-03-03")
	require.NoError(t, err)

	assert.True(t, earlier.Before(later))
	assert.True(t, later.After(earlier))
	assert.False(t, earlier.After(earlier))
	assert.False(t, earlier.Before(earlier))
}

func TestPlainDateJSONRoundTrip(t *testing.T) {
	date, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)

	payload, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-02"`, string(payload))

	var decoded PlainDate
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, date, decoded)

	assert.Error(t, json.Unmarshal([]byte(`42`), &decoded))
}

func TestPlainDateScan(t *testing.T) {
	var date PlainDate

	require.NoError(t, date.Scan(time.Date(2026, time.March, 2, 15, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-02", date.String())

	require.NoError(t, date.Scan([]byte("2026-03-09")))
	assert.Equal(t, "2026-03-09", date.String())

	require.NoError(t, date.Scan("2026-03-10"))
	assert.Equal(t, "2026-03-10", date.String())

	require.NoError(t, date.Scan(nil))
	assert.True(t, date.IsZero())

	assert.Error(t, date.Scan(42))
}

func TestPlainDateValue(t *testing.T) {
	date, err := ParsePlainDate("2026-03-02")
	require.NoError(t, err)

	value, err := date.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), value)
}
