package schedule

import (
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// DateLayout is the YYYY-MM-DD layout used for local-date keys.
const DateLayout = "2006-01-02"

// Calendar performs date arithmetic in the facility time zone.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar for loc. A nil loc means time.Local.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the facility time zone.
func (c Calendar) Location() *time.Location { return c.location() }

func (c Calendar) location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// DateOnly returns local midnight of the calendar day containing t.
func (c Calendar) DateOnly(t time.Time) time.Time {
	l := t.In(c.location())
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.location())
}

// FormatDate renders t as YYYY-MM-DD using local calendar fields, so an
// instant just after local midnight never lands on the previous UTC day.
func (c Calendar) FormatDate(t time.Time) string {
	return t.In(c.location()).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as local midnight.
func (c Calendar) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, c.location())
}

// FormatClock renders the local wall-clock time of t as HH:MM.
func (c Calendar) FormatClock(t time.Time) string {
	return t.In(c.location()).Format("15:04")
}

// ISOWeekday returns the local weekday of t with Monday=1 through Sunday=7.
func (c Calendar) ISOWeekday(t time.Time) int {
	wd := int(t.In(c.location()).Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DaysBetween returns the number of calendar days from a to b. It counts
// local dates, so DST transitions never produce fractional days.
func (c Calendar) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(c.location()).Date()
	by, bm, bd := b.In(c.location()).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// AddDays returns local midnight n calendar days after t's date.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	l := t.In(c.location())
	return time.Date(l.Year(), l.Month(), l.Day()+n, 0, 0, 0, 0, c.location())
}

// EndOfDay returns the last representable instant of t's local day.
func (c Calendar) EndOfDay(t time.Time) time.Time {
	return c.AddDays(t, 1).Add(-time.Nanosecond)
}

// AtClock returns t's local date at the given HH:MM wall-clock time. ok is
// false, and t is returned unchanged, if clock does not parse.
func (c Calendar) AtClock(t time.Time, clock string) (at time.Time, ok bool) {
	h, m, ok := models.ParseClock(clock)
	if !ok {
		return t, false
	}
	l := t.In(c.location())
	return time.Date(l.Year(), l.Month(), l.Day(), h, m, 0, 0, c.location()), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonthsClamped adds n months to t, clamping the day to the target
// month's length instead of overflowing into the month after.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
