package schedule

import (
	"sort"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// ProjectNextDue returns the next nominal due instant after from, ignoring
// completions. Non-recurring tasks return from unchanged.
//
// The projected day gets the first listed specific time, or the default time
// for monitoring tasks; document tasks without specific times keep the time
// of day carried over from from.
func (e *Engine) ProjectNextDue(task models.TaskDefinition, from time.Time) time.Time {
	if !task.IsRecurring {
		return from
	}

	n := interval(task)
	base := from.In(e.location())

	var next time.Time
	switch task.FrequencyUnit {
	case models.FrequencyHourly:
		return base.Add(time.Duration(n) * time.Hour)
	case models.FrequencyDaily:
		next = base.AddDate(0, 0, n)
	case models.FrequencyWeekly:
		if len(task.SpecificDaysOfWeek) > 0 {
			next = e.nextListedWeekday(base, task.SpecificDaysOfWeek)
		} else {
			next = base.AddDate(0, 0, 7*n)
		}
	case models.FrequencyMonthly:
		if len(task.SpecificDaysOfMonth) > 0 {
			next = nextListedMonthDay(base, task.SpecificDaysOfMonth, n)
		} else {
			next = addMonthsClamped(base, n)
		}
	case models.FrequencyYearly:
		next = addMonthsClamped(base, 12*n)
	default:
		next = base.AddDate(0, 0, n)
	}

	return e.applyTimeOfDay(task, next)
}

// nextListedWeekday scans the seven days after base for the first listed ISO
// weekday. The 7-day fallback is unreachable for a non-empty, valid set.
func (e *Engine) nextListedWeekday(base time.Time, days []int) time.Time {
	wd := e.ISOWeekday(base)
	for i := 1; i <= 7; i++ {
		candidate := (wd-1+i)%7 + 1
		if containsInt(days, candidate) {
			return base.AddDate(0, 0, i)
		}
	}
	return base.AddDate(0, 0, 7)
}

// nextListedMonthDay picks the smallest listed day after base's day that
// exists in base's month. Otherwise it moves n months ahead to the smallest
// listed day, clamped to that month's length.
func nextListedMonthDay(base time.Time, days []int, n int) time.Time {
	var listed []int
	for _, d := range days {
		if d >= 1 && d <= 31 {
			listed = append(listed, d)
		}
	}
	if len(listed) == 0 {
		return addMonthsClamped(base, n)
	}
	sort.Ints(listed)

	h, mi, s, ns := base.Hour(), base.Minute(), base.Second(), base.Nanosecond()
	loc := base.Location()

	last := daysIn(base.Year(), base.Month())
	for _, d := range listed {
		if d > base.Day() && d <= last {
			return time.Date(base.Year(), base.Month(), d, h, mi, s, ns, loc)
		}
	}

	first := time.Date(base.Year(), base.Month()+time.Month(n), 1, h, mi, s, ns, loc)
	day := listed[0]
	if l := daysIn(first.Year(), first.Month()); day > l {
		day = l
	}
	return time.Date(first.Year(), first.Month(), day, h, mi, s, ns, loc)
}
