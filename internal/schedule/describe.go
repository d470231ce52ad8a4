package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valter-silva-au/careclock/pkg/models"
)

var isoWeekdayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DescribeFrequency renders a task's recurrence rule for display, for example
// "every 2 days", "weekly on Mon, Wed" or "daily at 08:00, 20:00".
func DescribeFrequency(task models.TaskDefinition) string {
	desc := describeRule(task)
	if len(task.SpecificTimes) > 0 {
		desc += " at " + strings.Join(task.SpecificTimes, ", ")
	}
	return desc
}

func describeRule(task models.TaskDefinition) string {
	if !task.IsRecurring {
		return "one-time"
	}
	n := interval(task)

	switch task.FrequencyUnit {
	case models.FrequencyHourly:
		return every(n, "hourly", "hours")
	case models.FrequencyDaily:
		return every(n, "daily", "days")
	case models.FrequencyWeekly:
		if len(task.SpecificDaysOfWeek) > 0 {
			days := sortedCopy(task.SpecificDaysOfWeek)
			names := make([]string, 0, len(days))
			for _, d := range days {
				if d >= 1 && d <= 7 {
					names = append(names, isoWeekdayNames[d])
				}
			}
			return "weekly on " + strings.Join(names, ", ")
		}
		return every(n, "weekly", "weeks")
	case models.FrequencyMonthly:
		if len(task.SpecificDaysOfMonth) > 0 {
			days := sortedCopy(task.SpecificDaysOfMonth)
			parts := make([]string, len(days))
			for i, d := range days {
				parts[i] = fmt.Sprintf("%d", d)
			}
			return "monthly on day " + strings.Join(parts, ", ")
		}
		return every(n, "monthly", "months")
	case models.FrequencyYearly:
		return every(n, "yearly", "years")
	}

	if task.FrequencyUnit == "" {
		return "unscheduled"
	}
	return string(task.FrequencyUnit)
}

func every(n int, single, plural string) string {
	if n == 1 {
		return single
	}
	return fmt.Sprintf("every %d %s", n, plural)
}

func sortedCopy(values []int) []int {
	out := append([]int(nil), values...)
	sort.Ints(out)
	return out
}
