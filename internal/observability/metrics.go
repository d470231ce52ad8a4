package observability

import (
	"fmt"
	"time"
)

// EventAlertsNotified is written when an alert summary is sent to a notifier.
const EventAlertsNotified = "alerts.notified"

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	TasksCreated        int            `json:"tasks_created"`
	TasksRemoved        int            `json:"tasks_removed"`
	CompletionsRecorded int            `json:"completions_recorded"`
	CompletionsByType   map[string]int `json:"completions_by_type"`
	CompletionsByStaff  map[string]int `json:"completions_by_staff"`
	GapScans            int            `json:"gap_scans"`
	Reconciliations     int            `json:"reconciliations"`
	DueDatesMoved       int            `json:"due_dates_moved"`
	AlertsNotified      int            `json:"alerts_notified"`
	EventCount          int            `json:"event_count"`
	OldestEvent         *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent         *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		CompletionsByType:  make(map[string]int),
		CompletionsByStaff: make(map[string]int),
		EventCount:         len(events),
	}

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.removed":
			m.TasksRemoved++
		case "task.completed":
			m.CompletionsRecorded++
			if taskType, ok := event.Data["task_type"].(string); ok {
				m.CompletionsByType[taskType]++
			}
			if by, ok := event.Data["recorded_by"].(string); ok && by != "" {
				m.CompletionsByStaff[by]++
			}
		case "task.gap_scanned":
			m.GapScans++
		case "task.reconciled":
			m.Reconciliations++
			if changed, ok := event.Data["changed"].(bool); ok && changed {
				m.DueDatesMoved++
			}
		case EventAlertsNotified:
			// JSON numbers decode as float64.
			switch n := event.Data["count"].(type) {
			case float64:
				m.AlertsNotified += int(n)
			case int:
				m.AlertsNotified += n
			}
		}
	}

	return m, nil
}
