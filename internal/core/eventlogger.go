package core

// EventLogger is the subset of the observability event log that the
// ScheduleManager writes to.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Event types written by the ScheduleManager.
const (
	EventTaskCreated    = "task.created"
	EventTaskRemoved    = "task.removed"
	EventTaskCompleted  = "task.completed"
	EventTaskGapScanned = "task.gap_scanned"
	EventTaskReconciled = "task.reconciled"
)
