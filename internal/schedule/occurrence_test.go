package schedule

import (
	"testing"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

func TestIsScheduledOn_DailyEveryDay(t *testing.T) {
	e := newTestEngine()
	task := dailyTask(1)
	task.CreatedAt = time.Time{}

	for _, d := range []time.Time{day(2020, time.January, 1), day(2026, time.October, 16)} {
		if !e.IsScheduledOn(task, d) {
			t.Errorf("daily N=1 should be scheduled on %s", e.FormatDate(d))
		}
	}
}

func TestIsScheduledOn_DailyAnchorsOnLastCompletion(t *testing.T) {
	e := newTestEngine()
	task := dailyTask(3)
	task.CreatedAt = at(2026, time.October, 1, 9, 0)
	task.LastCompletedAt = ptr(at(2026, time.October, 5, 14, 0))

	tests := []struct {
		date time.Time
		want bool
	}{
		// Before the completion the creation date anchors: 1, 4, 7...
		{day(2026, time.October, 4), true},
		{day(2026, time.October, 5), false},
		// After the completion the schedule restarts from the 5th.
		{day(2026, time.October, 6), false},
		{day(2026, time.October, 7), false},
		{day(2026, time.October, 8), true},
		{day(2026, time.October, 11), true},
	}
	for _, tt := range tests {
		if got := e.IsScheduledOn(task, tt.date); got != tt.want {
			t.Errorf("IsScheduledOn(%s) = %v, want %v", e.FormatDate(tt.date), got, tt.want)
		}
	}
}

func TestIsScheduledOn_DailyWithoutAnchor(t *testing.T) {
	e := newTestEngine()
	task := dailyTask(2)
	task.CreatedAt = time.Time{}

	if e.IsScheduledOn(task, day(2026, time.October, 16)) {
		t.Error("daily N=2 with no creation date or completion should never be scheduled")
	}
}

func TestIsScheduledOn_Weekly(t *testing.T) {
	e := newTestEngine()
	task := models.TaskDefinition{
		ID:                 "w",
		PatientID:          "p",
		TaskType:           models.TaskTypeWeight,
		FrequencyUnit:      models.FrequencyWeekly,
		FrequencyValue:     1,
		SpecificDaysOfWeek: []int{1, 3, 5},
		IsRecurring:        true,
		CreatedAt:          at(2026, time.October, 12, 9, 0),
	}

	tests := []struct {
		date time.Time
		want bool
	}{
		{day(2026, time.October, 9), false}, // Friday before creation
		{day(2026, time.October, 12), true},
		{day(2026, time.October, 13), false},
		{day(2026, time.October, 14), true},
		{day(2026, time.October, 16), true},
		{day(2026, time.October, 18), false},
	}
	for _, tt := range tests {
		if got := e.IsScheduledOn(task, tt.date); got != tt.want {
			t.Errorf("IsScheduledOn(%s) = %v, want %v", e.FormatDate(tt.date), got, tt.want)
		}
	}

	task.SpecificDaysOfWeek = nil
	if e.IsScheduledOn(task, day(2026, time.October, 12)) {
		t.Error("weekly task without listed days should not be scheduled")
	}
}

func TestIsScheduledOn_Monthly(t *testing.T) {
	e := newTestEngine()
	task := models.TaskDefinition{
		ID:                  "m",
		PatientID:           "p",
		TaskType:            models.TaskTypeCatheterChange,
		FrequencyUnit:       models.FrequencyMonthly,
		FrequencyValue:      1,
		SpecificDaysOfMonth: []int{1, 15},
		IsRecurring:         true,
		CreatedAt:           at(2026, time.October, 10, 9, 0),
	}

	tests := []struct {
		date time.Time
		want bool
	}{
		{day(2026, time.October, 1), false},
		{day(2026, time.October, 15), true},
		{day(2026, time.October, 16), false},
		{day(2026, time.November, 1), true},
	}
	for _, tt := range tests {
		if got := e.IsScheduledOn(task, tt.date); got != tt.want {
			t.Errorf("IsScheduledOn(%s) = %v, want %v", e.FormatDate(tt.date), got, tt.want)
		}
	}
}

func TestIsScheduledOn_UnhandledUnits(t *testing.T) {
	e := newTestEngine()
	for _, unit := range []models.FrequencyUnit{models.FrequencyHourly, models.FrequencyYearly, "fortnightly"} {
		task := dailyTask(1)
		task.FrequencyUnit = unit
		if e.IsScheduledOn(task, day(2026, time.October, 16)) {
			t.Errorf("%s tasks should never be reported as scheduled", unit)
		}
	}
}

func TestOccurrencesBetween(t *testing.T) {
	e := newTestEngine()
	task := models.TaskDefinition{
		TaskType:           models.TaskTypeWeight,
		FrequencyUnit:      models.FrequencyWeekly,
		FrequencyValue:     1,
		SpecificDaysOfWeek: []int{2, 4},
		IsRecurring:        true,
		CreatedAt:          at(2026, time.October, 12, 9, 0),
	}

	got := e.OccurrencesBetween(task, day(2026, time.October, 12), at(2026, time.October, 25, 23, 0))
	want := []string{"2026-10-13", "2026-10-15", "2026-10-20", "2026-10-22"}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if s := e.FormatDate(got[i]); s != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, s, want[i])
		}
	}

	if got := e.OccurrencesBetween(task, day(2026, time.October, 25), day(2026, time.October, 12)); got != nil {
		t.Errorf("reversed range should yield nil, got %v", got)
	}
}

func TestOccurrencesBetween_Bounded(t *testing.T) {
	e := newTestEngine()
	got := e.OccurrencesBetween(dailyTask(1), day(2020, time.January, 1), day(2030, time.January, 1))
	if len(got) != maxOccurrenceSpan {
		t.Errorf("got %d days, want %d", len(got), maxOccurrenceSpan)
	}
}

func TestHasOccurrenceRule(t *testing.T) {
	e := newTestEngine()

	weekly := dailyTask(1)
	weekly.FrequencyUnit = models.FrequencyWeekly
	weeklyDays := weekly
	weeklyDays.SpecificDaysOfWeek = []int{3}
	hourly := dailyTask(1)
	hourly.FrequencyUnit = models.FrequencyHourly

	tests := []struct {
		name string
		task models.TaskDefinition
		want bool
	}{
		{"daily", dailyTask(2), true},
		{"weekly without days", weekly, false},
		{"weekly with days", weeklyDays, true},
		{"hourly", hourly, false},
	}
	for _, tt := range tests {
		if got := e.HasOccurrenceRule(tt.task); got != tt.want {
			t.Errorf("%s: HasOccurrenceRule = %v, want %v", tt.name, got, tt.want)
		}
	}
}
