// Package period implements PeriodCalendar: normalization, ordering and
// "current period" derivation for the YYYY-MM billing tokens used
// throughout the debt engine and allocator.
package period

import (
	"errors"
	"regexp"
	"time"

	"github.com/sepelio/nucleo/internal/clock"
)

// Period is a normalized YYYY-MM billing-month token. The zero value is not
// a valid period; always obtain one via Normalize or Now.
type Period string

var pattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrInvalidPeriod is returned when the input text is not a well-formed
// YYYY-MM token.
var ErrInvalidPeriod = errors.New("invalid_period")

// Calendar derives "now" from a fixed civil timezone, never from UTC
// directly, per spec §4.1.
type Calendar struct {
	loc   *time.Location
	clock clock.Clock
}

// NewCalendar builds a Calendar for the given IANA civil timezone (e.g.
// "America/Argentina/Mendoza"). It fails closed: an unknown timezone name is
// a configuration error, not a silent UTC fallback.
func NewCalendar(timezone string, c clock.Clock) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = clock.System
	}
	return &Calendar{loc: loc, clock: c}, nil
}

// Now returns the current period in the calendar's civil timezone.
func (c *Calendar) Now() Period {
	t := c.clock.Now().In(c.loc)
	return Period(t.Format("2006-01"))
}

// Of returns the period containing t, evaluated in the calendar's civil
// timezone.
func (c *Calendar) Of(t time.Time) Period {
	return Period(t.In(c.loc).Format("2006-01"))
}

// Normalize validates and returns p as a Period, or ErrInvalidPeriod.
func Normalize(text string) (Period, error) {
	if !pattern.MatchString(text) {
		return "", ErrInvalidPeriod
	}
	return Period(text), nil
}

// Bounds returns the civil-timezone [start, end) instant range a period
// covers: start is midnight of its first day, end is midnight of the
// following period's first day.
func (c *Calendar) Bounds(p Period) (time.Time, time.Time) {
	start, err := time.ParseInLocation("2006-01", string(p), c.loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	return start, start.AddDate(0, 1, 0)
}

// MustNormalize panics on invalid input; reserved for compile-time literals
// in tests and seed data.
func MustNormalize(text string) Period {
	p, err := Normalize(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Compare returns -1, 0, or 1 as a is before, equal to, or after b,
// lexicographic on the normalized YYYY-MM form (totally ordered per spec).
func Compare(a, b Period) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether a sorts strictly before b.
func (a Period) Before(b Period) bool { return Compare(a, b) < 0 }

// After reports whether a sorts strictly after b.
func (a Period) After(b Period) bool { return Compare(a, b) > 0 }

// String returns the YYYY-MM token.
func (a Period) String() string { return string(a) }

// Year returns the four-digit calendar year component.
func (a Period) Year() int {
	t, _ := time.Parse("2006-01", string(a))
	return t.Year()
}

// AddMonths returns the period shifted by n calendar months (n may be
// negative).
func (a Period) AddMonths(n int) Period {
	t, err := time.Parse("2006-01", string(a))
	if err != nil {
		return a
	}
	return Period(t.AddDate(0, n, 0).Format("2006-01"))
}

// MonthsBetween returns the integer number of calendar months from a to b
// (positive when b is after a).
func MonthsBetween(a, b Period) int {
	ta, errA := time.Parse("2006-01", string(a))
	tb, errB := time.Parse("2006-01", string(b))
	if errA != nil || errB != nil {
		return 0
	}
	return (tb.Year()-ta.Year())*12 + int(tb.Month()-ta.Month())
}

// Range returns every period from start to end inclusive, ascending. If
// start sorts after end, the result is empty.
func Range(start, end Period) []Period {
	if start.After(end) {
		return nil
	}
	n := MonthsBetween(start, end)
	out := make([]Period, 0, n+1)
	cur := start
	for i := 0; i <= n; i++ {
		out = append(out, cur)
		cur = cur.AddMonths(1)
	}
	return out
}
