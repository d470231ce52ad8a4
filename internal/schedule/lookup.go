package schedule

import (
	"context"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// CompletionQuery identifies the task whose completions are wanted. Records
// match by TaskID, or by the (PatientID, TaskType) pair for rows written
// before completions carried a task reference.
type CompletionQuery struct {
	TaskID    string
	PatientID string
	TaskType  models.TaskType
}

// QueryFor builds the completion query for task.
func QueryFor(task models.TaskDefinition) CompletionQuery {
	return CompletionQuery{
		TaskID:    task.ID,
		PatientID: task.PatientID,
		TaskType:  task.TaskType,
	}
}

// Matches reports whether r belongs to the queried task by either key.
func (q CompletionQuery) Matches(r models.CompletionRecord) bool {
	if q.TaskID != "" && r.TaskID == q.TaskID {
		return true
	}
	return q.PatientID != "" && r.PatientID == q.PatientID && r.TaskType == q.TaskType
}

// CompletionSource is the read-only view of completion history the gap scan
// needs. CompletionsOn returns every record on date's local calendar day that
// matches q by task ID or by (patient, task type).
type CompletionSource interface {
	CompletionsOn(ctx context.Context, q CompletionQuery, date time.Time) ([]models.CompletionRecord, error)
}

// TaskKey is the first-stage lookup key: task ID plus local date, and
// optionally an HH:MM time.
func TaskKey(taskID, date, clock string) string {
	k := "task|" + taskID + "|" + date
	if clock != "" {
		k += "|" + clock
	}
	return k
}

// LegacyKey is the second-stage lookup key used for records without a task
// reference: patient, task type, local date and optional HH:MM time.
func LegacyKey(patientID string, taskType models.TaskType, date, clock string) string {
	k := "legacy|" + patientID + "|" + string(taskType) + "|" + date
	if clock != "" {
		k += "|" + clock
	}
	return k
}

// CompletionLookup is a prebuilt set of completions used by the urgency
// classifier. A nil *CompletionLookup behaves as an empty set.
type CompletionLookup struct {
	cal  Calendar
	keys map[string]struct{}
}

// NewCompletionLookup indexes records under both key stages, each at date and
// at date+time granularity.
func NewCompletionLookup(cal Calendar, records []models.CompletionRecord) *CompletionLookup {
	l := &CompletionLookup{cal: cal, keys: make(map[string]struct{}, len(records)*4)}
	for _, r := range records {
		l.Add(r)
	}
	return l
}

// Add indexes one record.
func (l *CompletionLookup) Add(r models.CompletionRecord) {
	date := l.cal.FormatDate(r.RecordedAt)
	clock := l.cal.FormatClock(r.RecordedAt)
	if r.TaskID != "" {
		l.keys[TaskKey(r.TaskID, date, "")] = struct{}{}
		l.keys[TaskKey(r.TaskID, date, clock)] = struct{}{}
	}
	if r.PatientID != "" {
		l.keys[LegacyKey(r.PatientID, r.TaskType, date, "")] = struct{}{}
		l.keys[LegacyKey(r.PatientID, r.TaskType, date, clock)] = struct{}{}
	}
}

// Len returns the number of indexed keys.
func (l *CompletionLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.keys)
}

// HasOccurrence reports whether the occurrence at `at` was completed: same
// local date, and for tasks with specific times the same HH:MM.
func (l *CompletionLookup) HasOccurrence(task models.TaskDefinition, at time.Time) bool {
	if l == nil {
		return false
	}
	clock := ""
	if len(task.SpecificTimes) > 0 {
		clock = l.cal.FormatClock(at)
	}
	return l.has(task, l.cal.FormatDate(at), clock)
}

// HasAnyOn reports whether any completion for task exists on day's local date.
func (l *CompletionLookup) HasAnyOn(task models.TaskDefinition, day time.Time) bool {
	if l == nil {
		return false
	}
	return l.has(task, l.cal.FormatDate(day), "")
}

func (l *CompletionLookup) has(task models.TaskDefinition, date, clock string) bool {
	if task.ID != "" {
		if _, ok := l.keys[TaskKey(task.ID, date, clock)]; ok {
			return true
		}
	}
	if task.PatientID != "" {
		if _, ok := l.keys[LegacyKey(task.PatientID, task.TaskType, date, clock)]; ok {
			return true
		}
	}
	return false
}
