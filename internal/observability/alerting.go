package observability

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionTaskOverdue    = "task_overdue"
	ConditionTaskDueToday   = "task_due_today"
	ConditionTaskDueSoon    = "task_due_soon"
	ConditionOverdueBacklog = "overdue_backlog"
)

// Urgency values as reported by an UrgencySource.
const (
	UrgencyOverdue      = "overdue"
	UrgencyPendingToday = "pending_today"
	UrgencyDueSoon      = "due_soon"
	UrgencyScheduled    = "scheduled"
)

// FacilityOverdueAlertID identifies the facility-wide overdue backlog alert.
const FacilityOverdueAlertID = "facility-overdue"

const alertTimeLayout = "2006-01-02 15:04"

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      string        `json:"task_id,omitempty"`
	PatientID   string        `json:"patient_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	IncludeDueSoon bool `yaml:"include_due_soon" json:"include_due_soon"`
	MaxOverdue     int  `yaml:"max_overdue" json:"max_overdue"`
}

// DefaultAlertThresholds returns the default alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		IncludeDueSoon: true,
		MaxOverdue:     10,
	}
}

// UrgencyItem is one task's due state as seen by the alert engine.
type UrgencyItem struct {
	TaskID      string
	PatientID   string
	TaskType    string
	Title       string
	Urgency     string // overdue, pending_today, due_soon or scheduled
	DueAt       *time.Time
	DaysOverdue int
}

// UrgencySource supplies the current urgency of every task.
type UrgencySource interface {
	Urgencies(ctx context.Context, now time.Time) ([]UrgencyItem, error)
}

// AlertEngine turns the urgency board into alerts.
type AlertEngine interface {
	Evaluate(ctx context.Context, now time.Time) ([]Alert, error)
}

type alertEngine struct {
	source     UrgencySource
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine over source.
func NewAlertEngine(source UrgencySource, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		source:     source,
		thresholds: thresholds,
	}
}

// Evaluate returns alerts ordered as the source orders its items, followed
// by the facility-wide overdue alert when it fires.
func (ae *alertEngine) Evaluate(ctx context.Context, now time.Time) ([]Alert, error) {
	items, err := ae.source.Urgencies(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("evaluating alerts: %w", err)
	}

	var alerts []Alert
	overdue := 0
	for _, item := range items {
		var a Alert
		switch item.Urgency {
		case UrgencyOverdue:
			overdue++
			a = Alert{
				ID:        "overdue-" + item.TaskID,
				Condition: ConditionTaskOverdue,
				Severity:  SeverityHigh,
				Message:   fmt.Sprintf("%s is %s overdue (due %s)", describeItem(item), plural(item.DaysOverdue, "day"), formatDue(item.DueAt)),
			}
		case UrgencyPendingToday:
			a = Alert{
				ID:        "today-" + item.TaskID,
				Condition: ConditionTaskDueToday,
				Severity:  SeverityMedium,
				Message:   fmt.Sprintf("%s is due today (%s)", describeItem(item), formatDue(item.DueAt)),
			}
		case UrgencyDueSoon:
			if !ae.thresholds.IncludeDueSoon {
				continue
			}
			a = Alert{
				ID:        "soon-" + item.TaskID,
				Condition: ConditionTaskDueSoon,
				Severity:  SeverityLow,
				Message:   fmt.Sprintf("%s is due soon (%s)", describeItem(item), formatDue(item.DueAt)),
			}
		default:
			continue
		}
		a.TaskID = item.TaskID
		a.PatientID = item.PatientID
		a.TriggeredAt = now
		alerts = append(alerts, a)
	}

	if overdue > ae.thresholds.MaxOverdue {
		alerts = append(alerts, Alert{
			ID:          FacilityOverdueAlertID,
			Condition:   ConditionOverdueBacklog,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("%d tasks are overdue, exceeding the maximum of %d", overdue, ae.thresholds.MaxOverdue),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}

func describeItem(item UrgencyItem) string {
	what := item.Title
	if what == "" {
		what = strings.ReplaceAll(item.TaskType, "_", " ")
	}
	return fmt.Sprintf("%s for patient %s", what, item.PatientID)
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "no due date"
	}
	return due.Format(alertTimeLayout)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// CountBySeverity tallies alerts per severity.
func CountBySeverity(alerts []Alert) map[AlertSeverity]int {
	counts := make(map[AlertSeverity]int, 3)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}
