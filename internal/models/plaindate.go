package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const plainDateLayout = "2006-01-02"

// PlainDate is a naive calendar date with no time-of-day and no location.
// The planner walks and compares dates without ever consulting a timezone.
type PlainDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) PlainDate {
	year, month, day := t.Date()
	return PlainDate{Year: year, Month: month, Day: day}
}

// ParsePlainDate parses a "YYYY-MM-DD" string.
func ParsePlainDate(raw string) (PlainDate, error) {
	t, err := time.Parse(plainDateLayout, raw)
	if err != nil {
		return PlainDate{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

func (d PlainDate) String() string {
	return d.toTime().Format(plainDateLayout)
}

func (d PlainDate) IsZero() bool {
	return d == PlainDate{}
}

// Weekday returns the day of week with Sunday = 0.
func (d PlainDate) Weekday() int {
	return int(d.toTime().Weekday())
}

// AddDays returns the date shifted by n calendar days.
func (d PlainDate) AddDays(n int) PlainDate {
	return DateOf(d.toTime().AddDate(0, 0, n))
}

func (d PlainDate) Before(other PlainDate) bool {
	return d.toTime().Before(other.toTime())
}

func (d PlainDate) After(other PlainDate) bool {
	return d.toTime().After(other.toTime())
}

// DaysUntil returns the whole-day distance to other; negative when other is
// in the past.
func (d PlainDate) DaysUntil(other PlainDate) int {
	return int(other.toTime().Sub(d.toTime()) / (24 * time.Hour))
}

func (d PlainDate) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d PlainDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *PlainDate) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date payload %s", data)
	}
	parsed, err := ParsePlainDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d PlainDate) Value() (driver.Value, error) {
	return d.toTime(), nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *PlainDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = PlainDate{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		parsed, err := ParsePlainDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParsePlainDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("unsupported date source %T", src)
	}
}
