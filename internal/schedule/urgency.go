package schedule

import (
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// Urgency is the derived due state of a task at a moment in time.
type Urgency string

const (
	UrgencyOverdue      Urgency = "overdue"
	UrgencyPendingToday Urgency = "pending_today"
	UrgencyDueSoon      Urgency = "due_soon"
	UrgencyScheduled    Urgency = "scheduled"
)

// Urgencies lists all states from most to least urgent.
func Urgencies() []Urgency {
	return []Urgency{UrgencyOverdue, UrgencyPendingToday, UrgencyDueSoon, UrgencyScheduled}
}

// Rank orders urgencies; lower is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyPendingToday:
		return 1
	case UrgencyDueSoon:
		return 2
	default:
		return 3
	}
}

// Assessment is a classification plus the details callers usually display.
type Assessment struct {
	Urgency     Urgency    `json:"urgency"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	DaysOverdue int        `json:"days_overdue,omitempty"`
}

// Classify returns the most urgent state task satisfies at now, checking
// overdue, then pending today, then due soon. lookup may be nil.
func (e *Engine) Classify(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) Urgency {
	switch {
	case e.IsOverdue(task, now, lookup):
		return UrgencyOverdue
	case e.IsPendingToday(task, now, lookup):
		return UrgencyPendingToday
	case e.IsDueSoon(task, now, lookup):
		return UrgencyDueSoon
	default:
		return UrgencyScheduled
	}
}

// Assess classifies task and reports its due instant and, when overdue, how
// many calendar days it is late.
func (e *Engine) Assess(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) Assessment {
	a := Assessment{Urgency: e.Classify(task, now, lookup)}
	if task.NextDueAt != nil {
		due := *task.NextDueAt
		a.DueAt = &due
		if a.Urgency == UrgencyOverdue {
			a.DaysOverdue = e.DaysBetween(due, now)
		}
	}
	return a
}

// IsOverdue reports whether task's due date (document) or due instant
// (monitoring) is before today.
func (e *Engine) IsOverdue(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) bool {
	due, ok := e.outstanding(task, now, lookup)
	if !ok {
		return false
	}
	if task.Category() == models.CategoryDocument {
		return e.DateOnly(due).Before(e.DateOnly(now))
	}
	return due.Before(e.DateOnly(now))
}

// IsPendingToday reports whether task falls due today.
func (e *Engine) IsPendingToday(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) bool {
	due, ok := e.outstanding(task, now, lookup)
	if !ok {
		return false
	}
	if task.Category() == models.CategoryDocument {
		return e.DateOnly(due).Equal(e.DateOnly(now))
	}
	return !due.Before(e.DateOnly(now)) && !due.After(e.EndOfDay(now))
}

// IsDueSoon reports whether task falls due between tomorrow and the horizon:
// DueSoonDays days for document tasks, now+24h for monitoring tasks.
func (e *Engine) IsDueSoon(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) bool {
	due, ok := e.outstanding(task, now, lookup)
	if !ok {
		return false
	}
	if task.Category() == models.CategoryDocument {
		d := e.DaysBetween(now, due)
		return d >= 1 && d <= e.dueSoonDays
	}
	tomorrow := e.AddDays(now, 1)
	return !due.Before(tomorrow) && !due.After(now.Add(24*time.Hour))
}

// outstanding applies the preconditions shared by every urgent state and
// returns the due instant when the task may still be urgent.
func (e *Engine) outstanding(task models.TaskDefinition, now time.Time, lookup *CompletionLookup) (time.Time, bool) {
	if task.NextDueAt == nil {
		return time.Time{}, false
	}
	due := *task.NextDueAt

	if !e.cutoff.IsZero() && !e.DateOnly(due).After(e.cutoff) {
		return time.Time{}, false
	}

	if lookup.HasOccurrence(task, due) || lookup.HasAnyOn(task, now) {
		return time.Time{}, false
	}

	if task.Category() == models.CategoryDocument {
		if task.LastCompletedAt != nil && !e.DateOnly(*task.LastCompletedAt).Before(e.DateOnly(due)) {
			return time.Time{}, false
		}
		return due, true
	}

	if task.LastCompletedAt != nil && !task.LastCompletedAt.Before(due) {
		return time.Time{}, false
	}
	return due, true
}
