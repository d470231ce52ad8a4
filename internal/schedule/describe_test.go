package schedule

import (
	"testing"

	"github.com/valter-silva-au/careclock/pkg/models"
)

func TestDescribeFrequency(t *testing.T) {
	tests := []struct {
		name string
		task models.TaskDefinition
		want string
	}{
		{"one-time", models.TaskDefinition{FrequencyUnit: models.FrequencyDaily}, "one-time"},
		{"daily", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyDaily, FrequencyValue: 1}, "daily"},
		{"every 2 days", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyDaily, FrequencyValue: 2}, "every 2 days"},
		{"every 4 hours", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyHourly, FrequencyValue: 4}, "every 4 hours"},
		{
			"weekly on days",
			models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyWeekly, FrequencyValue: 1, SpecificDaysOfWeek: []int{5, 1, 3}},
			"weekly on Mon, Wed, Fri",
		},
		{"every 2 weeks", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyWeekly, FrequencyValue: 2}, "every 2 weeks"},
		{
			"monthly on days",
			models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyMonthly, FrequencyValue: 1, SpecificDaysOfMonth: []int{15, 1}},
			"monthly on day 1, 15",
		},
		{"every 6 months", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyMonthly, FrequencyValue: 6}, "every 6 months"},
		{"yearly", models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyYearly, FrequencyValue: 1}, "yearly"},
		{"unscheduled", models.TaskDefinition{IsRecurring: true}, "unscheduled"},
		{
			"with times",
			models.TaskDefinition{IsRecurring: true, FrequencyUnit: models.FrequencyDaily, FrequencyValue: 1, SpecificTimes: []string{"08:00", "20:00"}},
			"daily at 08:00, 20:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeFrequency(tt.task); got != tt.want {
				t.Errorf("DescribeFrequency = %q, want %q", got, tt.want)
			}
		})
	}
}
