package schedule

import (
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// maxOccurrenceSpan bounds OccurrencesBetween.
const maxOccurrenceSpan = 366

// IsScheduledOn reports whether the local calendar day containing date is a
// nominal occurrence of task, regardless of completions.
//
// Daily tasks with an interval above one count from their anchor: the last
// completion date when it precedes date, otherwise the creation date, so a
// late completion shifts later occurrences forward. Weekly and monthly tasks
// occur only on their listed days, never before the creation date, and ignore
// the interval. Hourly and yearly tasks are never reported as scheduled here.
func (e *Engine) IsScheduledOn(task models.TaskDefinition, date time.Time) bool {
	day := e.DateOnly(date)

	switch task.FrequencyUnit {
	case models.FrequencyDaily:
		n := interval(task)
		if n == 1 {
			return true
		}
		anchor, ok := e.dailyAnchor(task, day)
		if !ok {
			return false
		}
		diff := e.DaysBetween(anchor, day)
		return diff >= 0 && diff%n == 0

	case models.FrequencyWeekly:
		if len(task.SpecificDaysOfWeek) == 0 {
			return false
		}
		if day.Before(e.DateOnly(task.CreatedAt)) {
			return false
		}
		return containsInt(task.SpecificDaysOfWeek, e.ISOWeekday(day))

	case models.FrequencyMonthly:
		if len(task.SpecificDaysOfMonth) == 0 {
			return false
		}
		if day.Before(e.DateOnly(task.CreatedAt)) {
			return false
		}
		return containsInt(task.SpecificDaysOfMonth, day.Day())
	}

	return false
}

// HasOccurrenceRule reports whether IsScheduledOn can ever be true for task:
// daily tasks, and weekly or monthly tasks with listed days.
func (e *Engine) HasOccurrenceRule(task models.TaskDefinition) bool {
	switch task.FrequencyUnit {
	case models.FrequencyDaily:
		return interval(task) == 1 || !task.CreatedAt.IsZero() || task.LastCompletedAt != nil
	case models.FrequencyWeekly:
		return len(task.SpecificDaysOfWeek) > 0
	case models.FrequencyMonthly:
		return len(task.SpecificDaysOfMonth) > 0
	}
	return false
}

func (e *Engine) dailyAnchor(task models.TaskDefinition, day time.Time) (time.Time, bool) {
	if task.LastCompletedAt != nil {
		last := e.DateOnly(*task.LastCompletedAt)
		if last.Before(day) {
			return last, true
		}
	}
	if task.CreatedAt.IsZero() {
		return time.Time{}, false
	}
	return e.DateOnly(task.CreatedAt), true
}

// OccurrencesBetween returns local midnight of every occurrence day in the
// inclusive range [from, to]. At most 366 days are examined.
func (e *Engine) OccurrencesBetween(task models.TaskDefinition, from, to time.Time) []time.Time {
	span := e.DaysBetween(from, to)
	if span < 0 {
		return nil
	}
	if span >= maxOccurrenceSpan {
		span = maxOccurrenceSpan - 1
	}
	var days []time.Time
	for i := 0; i <= span; i++ {
		day := e.AddDays(from, i)
		if e.IsScheduledOn(task, day) {
			days = append(days, day)
		}
	}
	return days
}
