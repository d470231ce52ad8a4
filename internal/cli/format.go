package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

var (
	urgencyOverdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	urgencyTodayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	urgencySoonStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	urgencyScheduledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const displayTimeLayout = "2006-01-02 15:04"

// Accepted layouts for user supplied instants, in the facility time zone.
var inputTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func errNotInitialized(what string) error {
	return fmt.Errorf("%s not initialized", what)
}

// parseLocalTime parses s in the facility time zone. Date-only values mean
// the start of that day.
func parseLocalTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", s)
}

func styleForUrgency(u schedule.Urgency) lipgloss.Style {
	switch u {
	case schedule.UrgencyOverdue:
		return urgencyOverdueStyle
	case schedule.UrgencyPendingToday:
		return urgencyTodayStyle
	case schedule.UrgencyDueSoon:
		return urgencySoonStyle
	default:
		return urgencyScheduledStyle
	}
}

func urgencyLabel(u schedule.Urgency) string {
	switch u {
	case schedule.UrgencyOverdue:
		return "OVERDUE"
	case schedule.UrgencyPendingToday:
		return "TODAY"
	case schedule.UrgencyDueSoon:
		return "SOON"
	default:
		return "OK"
	}
}

func formatDue(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(displayTimeLayout)
}

func taskLabel(t models.TaskDefinition) string {
	if t.Title != "" {
		return t.Title
	}
	return strings.ReplaceAll(string(t.TaskType), "_", " ")
}

func boardLine(e core.BoardEntry, loc *time.Location) string {
	label := fmt.Sprintf("[%-7s]", urgencyLabel(e.Assessment.Urgency))
	line := fmt.Sprintf("%s %-10s %-28s due %-16s %s",
		styleForUrgency(e.Assessment.Urgency).Render(label),
		e.Task.PatientID,
		taskLabel(e.Task),
		formatDue(e.Assessment.DueAt, loc),
		e.Frequency,
	)
	if e.Assessment.DaysOverdue > 0 {
		line += fmt.Sprintf(" (%dd late)", e.Assessment.DaysOverdue)
	}
	return line
}

func parseTaskTypes(values []string) ([]models.TaskType, error) {
	var types []models.TaskType
	for _, v := range values {
		tt := models.TaskType(strings.TrimSpace(v))
		if !tt.Valid() {
			return nil, fmt.Errorf("unknown task type %q", v)
		}
		types = append(types, tt)
	}
	return types, nil
}

func taskTypeNames() []string {
	all := models.AllTaskTypes()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = string(t)
	}
	return names
}
