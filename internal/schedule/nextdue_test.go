package schedule

import (
	"testing"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

func TestProjectNextDue(t *testing.T) {
	e := newTestEngine()

	monitoring := func(unit models.FrequencyUnit, n int) models.TaskDefinition {
		return models.TaskDefinition{
			TaskType:       models.TaskTypeVitalSigns,
			FrequencyUnit:  unit,
			FrequencyValue: n,
			IsRecurring:    true,
		}
	}

	tests := []struct {
		name string
		task func() models.TaskDefinition
		from time.Time
		want time.Time
	}{
		{
			name: "non-recurring returns from",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyDaily, 1)
				t.IsRecurring = false
				return t
			},
			from: at(2026, time.October, 16, 14, 30),
			want: at(2026, time.October, 16, 14, 30),
		},
		{
			name: "hourly keeps wall clock",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyHourly, 4) },
			from: at(2026, time.October, 16, 22, 15),
			want: at(2026, time.October, 17, 2, 15),
		},
		{
			name: "daily gets default time",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyDaily, 2) },
			from: at(2026, time.October, 16, 14, 30),
			want: at(2026, time.October, 18, 8, 0),
		},
		{
			name: "daily uses first listed time",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyDaily, 1)
				t.SpecificTimes = []string{"20:00", "08:00"}
				return t
			},
			from: at(2026, time.October, 16, 14, 30),
			want: at(2026, time.October, 17, 20, 0),
		},
		{
			name: "weekly listed days wrap to Monday",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyWeekly, 1)
				t.SpecificDaysOfWeek = []int{1, 3, 5}
				return t
			},
			from: at(2026, time.October, 16, 9, 0),
			want: at(2026, time.October, 19, 8, 0),
		},
		{
			name: "weekly listed days midweek",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyWeekly, 1)
				t.SpecificDaysOfWeek = []int{5, 1, 3}
				return t
			},
			from: at(2026, time.October, 14, 9, 0),
			want: at(2026, time.October, 16, 8, 0),
		},
		{
			name: "weekly single day moves a full week",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyWeekly, 1)
				t.SpecificDaysOfWeek = []int{5}
				return t
			},
			from: at(2026, time.October, 16, 9, 0),
			want: at(2026, time.October, 23, 8, 0),
		},
		{
			name: "weekly without days uses interval",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyWeekly, 2) },
			from: at(2026, time.October, 16, 9, 0),
			want: at(2026, time.October, 30, 8, 0),
		},
		{
			name: "monthly listed days roll into next month",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyMonthly, 1)
				t.SpecificDaysOfMonth = []int{1, 15}
				return t
			},
			from: at(2026, time.October, 20, 10, 0),
			want: at(2026, time.November, 1, 8, 0),
		},
		{
			name: "monthly listed days later this month",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyMonthly, 1)
				t.SpecificDaysOfMonth = []int{15, 1}
				return t
			},
			from: at(2026, time.October, 10, 10, 0),
			want: at(2026, time.October, 15, 8, 0),
		},
		{
			name: "monthly skips a day the month lacks",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyMonthly, 1)
				t.SpecificDaysOfMonth = []int{31}
				return t
			},
			from: at(2026, time.November, 10, 10, 0),
			want: at(2026, time.December, 31, 8, 0),
		},
		{
			name: "monthly clamps in a short month",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyMonthly, 1)
				t.SpecificDaysOfMonth = []int{31}
				return t
			},
			from: at(2027, time.January, 31, 10, 0),
			want: at(2027, time.February, 28, 8, 0),
		},
		{
			name: "monthly without days clamps",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyMonthly, 1) },
			from: at(2026, time.January, 31, 10, 0),
			want: at(2026, time.February, 28, 8, 0),
		},
		{
			name: "yearly from leap day",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyYearly, 1) },
			from: at(2024, time.February, 29, 10, 0),
			want: at(2025, time.February, 28, 8, 0),
		},
		{
			name: "document task keeps time of day",
			task: func() models.TaskDefinition {
				t := monitoring(models.FrequencyMonthly, 6)
				t.TaskType = models.TaskTypeRestraintConsent
				return t
			},
			from: at(2026, time.October, 16, 14, 30),
			want: at(2027, time.April, 16, 14, 30),
		},
		{
			name: "malformed interval reads as one",
			task: func() models.TaskDefinition { return monitoring(models.FrequencyDaily, 0) },
			from: at(2026, time.October, 16, 14, 30),
			want: at(2026, time.October, 17, 8, 0),
		},
		{
			name: "unknown unit falls back to days",
			task: func() models.TaskDefinition { return monitoring("fortnightly", 3) },
			from: at(2026, time.October, 16, 14, 30),
			want: at(2026, time.October, 19, 8, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ProjectNextDue(tt.task(), tt.from)
			if !got.Equal(tt.want) {
				t.Errorf("ProjectNextDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectNextDue_CustomDefaultTime(t *testing.T) {
	e := New(Options{Location: testLoc, DefaultTime: "7:30"})
	task := dailyTask(1)

	got := e.ProjectNextDue(task, at(2026, time.October, 16, 14, 0))
	if !got.Equal(at(2026, time.October, 17, 7, 30)) {
		t.Errorf("ProjectNextDue = %v, want 2026-10-17 07:30", got)
	}
}

func TestProjectNextDue_UnparsableSpecificTime(t *testing.T) {
	e := newTestEngine()
	from := at(2026, time.October, 16, 14, 25)

	monitoring := dailyTask(1)
	monitoring.SpecificTimes = []string{"25:99"}
	if got := e.ProjectNextDue(monitoring, from); !got.Equal(at(2026, time.October, 17, 8, 0)) {
		t.Errorf("monitoring task: ProjectNextDue = %v, want default time 2026-10-17 08:00", got)
	}

	document := dailyTask(1)
	document.TaskType = models.TaskTypeRestraintConsent
	document.SpecificTimes = []string{"noon"}
	if got := e.ProjectNextDue(document, from); !got.Equal(at(2026, time.October, 17, 14, 25)) {
		t.Errorf("document task: ProjectNextDue = %v, want carried-over time 2026-10-17 14:25", got)
	}
}
