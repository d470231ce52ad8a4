package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// ErrInvalidTask is returned when a new task definition fails validation.
var ErrInvalidTask = errors.New("invalid task definition")

// CreateTaskOpts describes a new task definition.
type CreateTaskOpts struct {
	PatientID           string
	TaskType            models.TaskType
	Title               string
	FrequencyUnit       models.FrequencyUnit
	FrequencyValue      int
	SpecificTimes       []string
	SpecificDaysOfWeek  []int
	SpecificDaysOfMonth []int
	IsRecurring         bool
	// FirstDueAt overrides the initial due instant. When nil a one-time task
	// is due immediately and a recurring task at its first projected slot.
	FirstDueAt *time.Time
	Notes      string
}

// RecordCompletionOpts describes a documented execution of a task.
type RecordCompletionOpts struct {
	// At is the occurrence being documented. Zero means now.
	At    time.Time
	By    string
	Notes string
}

// CompletionResult is the stored record and the task after its due state
// was advanced.
type CompletionResult struct {
	Record models.CompletionRecord `json:"record"`
	Task   models.TaskDefinition   `json:"task"`
}

// BoardOpts filters the urgency board.
type BoardOpts struct {
	PatientID string
	Types     []models.TaskType
	// Now is the evaluation instant. Zero means the current time.
	Now time.Time
}

// BoardEntry is one task on the urgency board.
type BoardEntry struct {
	Task       models.TaskDefinition `json:"task"`
	Assessment schedule.Assessment   `json:"assessment"`
	Frequency  string                `json:"frequency"`
}

// ScheduleManager is the service layer over the scheduling engine.
type ScheduleManager interface {
	CreateTask(ctx context.Context, opts CreateTaskOpts) (*models.TaskDefinition, error)
	GetTask(ctx context.Context, taskID string) (*models.TaskDefinition, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error)
	RemoveTask(ctx context.Context, taskID string) error
	RecordCompletion(ctx context.Context, taskID string, opts RecordCompletionOpts) (*CompletionResult, error)
	History(ctx context.Context, taskID string, limit int) ([]models.CompletionRecord, error)
	Board(ctx context.Context, opts BoardOpts) ([]BoardEntry, error)
	FindGap(ctx context.Context, taskID string, start time.Time, maxDays int) (time.Time, error)
	Reconcile(ctx context.Context, taskID string, now time.Time) (*models.TaskDefinition, error)
	Occurrences(ctx context.Context, taskID string, from, to time.Time) ([]time.Time, error)
	Engine() *schedule.Engine
}

type scheduleManager struct {
	engine      *schedule.Engine
	tasks       TaskStore
	completions CompletionStore
	events      EventLogger
	now         func() time.Time
}

// NewScheduleManager creates a ScheduleManager. events may be nil.
func NewScheduleManager(engine *schedule.Engine, tasks TaskStore, completions CompletionStore, events EventLogger) ScheduleManager {
	return &scheduleManager{
		engine:      engine,
		tasks:       tasks,
		completions: completions,
		events:      events,
		now:         time.Now,
	}
}

func (m *scheduleManager) Engine() *schedule.Engine { return m.engine }

func (m *scheduleManager) CreateTask(ctx context.Context, opts CreateTaskOpts) (*models.TaskDefinition, error) {
	now := m.now()
	task := models.TaskDefinition{
		ID:                  uuid.Must(uuid.NewV7()).String(),
		PatientID:           opts.PatientID,
		TaskType:            opts.TaskType,
		Title:               opts.Title,
		FrequencyUnit:       opts.FrequencyUnit,
		FrequencyValue:      opts.FrequencyValue,
		SpecificDaysOfWeek:  opts.SpecificDaysOfWeek,
		SpecificDaysOfMonth: opts.SpecificDaysOfMonth,
		IsRecurring:         opts.IsRecurring,
		CreatedAt:           now,
		Notes:               opts.Notes,
	}
	if task.FrequencyValue == 0 {
		task.FrequencyValue = 1
	}
	for _, s := range opts.SpecificTimes {
		if c := models.NormalizeClock(s); c != "" {
			task.SpecificTimes = append(task.SpecificTimes, c)
		} else {
			task.SpecificTimes = append(task.SpecificTimes, s)
		}
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("creating task: %w: %v", ErrInvalidTask, err)
	}

	var due time.Time
	switch {
	case opts.FirstDueAt != nil:
		due = *opts.FirstDueAt
	case !task.IsRecurring:
		due = now
	default:
		due = m.engine.ProjectNextDue(task, now)
	}
	task.NextDueAt = &due

	if err := m.tasks.AddTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	m.logEvent(EventTaskCreated, map[string]any{
		"task_id":     task.ID,
		"patient_id":  task.PatientID,
		"task_type":   string(task.TaskType),
		"frequency":   schedule.DescribeFrequency(task),
		"next_due_at": due.Format(time.RFC3339),
	})
	return &task, nil
}

func (m *scheduleManager) GetTask(ctx context.Context, taskID string) (*models.TaskDefinition, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return task, nil
}

func (m *scheduleManager) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error) {
	tasks, err := m.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (m *scheduleManager) RemoveTask(ctx context.Context, taskID string) error {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("removing task: %w", err)
	}
	if err := m.tasks.RemoveTask(ctx, taskID); err != nil {
		return fmt.Errorf("removing task: %w", err)
	}
	m.logEvent(EventTaskRemoved, map[string]any{
		"task_id":    taskID,
		"patient_id": task.PatientID,
		"task_type":  string(task.TaskType),
	})
	return nil
}

// RecordCompletion stores a completion and advances the task. The new due
// instant is computed from the latest completion on record, so a backdated
// entry never moves the schedule backwards. Tasks with several daily time
// slots are rescanned so a remaining slot on the same day stays due.
func (m *scheduleManager) RecordCompletion(ctx context.Context, taskID string, opts RecordCompletionOpts) (*CompletionResult, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("recording completion: %w", err)
	}

	now := m.now()
	at := opts.At
	if at.IsZero() {
		at = now
	}

	rec := models.CompletionRecord{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TaskID:     task.ID,
		PatientID:  task.PatientID,
		TaskType:   task.TaskType,
		RecordedAt: at,
		RecordedBy: opts.By,
		Notes:      opts.Notes,
		CreatedAt:  now,
	}
	if err := m.completions.AddCompletion(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording completion: %w", err)
	}

	if task.LastCompletedAt == nil || at.After(*task.LastCompletedAt) {
		last := at
		task.LastCompletedAt = &last
	}

	if task.IsRecurring {
		base := *task.LastCompletedAt
		var next time.Time
		if len(task.SpecificTimes) > 0 && m.engine.HasOccurrenceRule(*task) {
			next, err = m.engine.FindFirstMissingOccurrence(ctx, *task, base, m.completions, 0)
			if err != nil {
				return nil, fmt.Errorf("recording completion: %w", err)
			}
		} else {
			next = m.engine.ProjectNextDue(*task, base)
		}
		task.NextDueAt = &next
	}

	if err := m.tasks.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("recording completion: updating task: %w", err)
	}

	data := map[string]any{
		"task_id":       task.ID,
		"patient_id":    task.PatientID,
		"task_type":     string(task.TaskType),
		"completion_id": rec.ID,
		"recorded_at":   at.Format(time.RFC3339),
	}
	if rec.RecordedBy != "" {
		data["recorded_by"] = rec.RecordedBy
	}
	if task.NextDueAt != nil {
		data["next_due_at"] = task.NextDueAt.Format(time.RFC3339)
	}
	m.logEvent(EventTaskCompleted, data)

	return &CompletionResult{Record: rec, Task: *task}, nil
}

func (m *scheduleManager) History(ctx context.Context, taskID string, limit int) ([]models.CompletionRecord, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	records, err := m.completions.CompletionsFor(ctx, schedule.QueryFor(*task), limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return records, nil
}

// Board classifies every matching task at opts.Now. The completion lookup
// covers the gap-scan window up to the end of today. Entries are ordered by
// urgency, then due instant, then patient.
func (m *scheduleManager) Board(ctx context.Context, opts BoardOpts) ([]BoardEntry, error) {
	now := opts.Now
	if now.IsZero() {
		now = m.now()
	}

	tasks, err := m.tasks.ListTasks(ctx, models.TaskFilter{PatientID: opts.PatientID, Types: opts.Types})
	if err != nil {
		return nil, fmt.Errorf("building board: %w", err)
	}

	from := m.engine.AddDays(now, -m.engine.MaxScanDays())
	records, err := m.completions.CompletionsBetween(ctx, from, m.engine.EndOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("building board: loading completions: %w", err)
	}
	lookup := schedule.NewCompletionLookup(m.engine.Calendar, records)

	entries := make([]BoardEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, BoardEntry{
			Task:       t,
			Assessment: m.engine.Assess(t, now, lookup),
			Frequency:  schedule.DescribeFrequency(t),
		})
	}
	SortBoard(entries)
	return entries, nil
}

// SortBoard orders entries most urgent first. Tasks without a due instant
// sort last within their urgency.
func SortBoard(entries []BoardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ra, rb := a.Assessment.Urgency.Rank(), b.Assessment.Urgency.Rank(); ra != rb {
			return ra < rb
		}
		da, db := a.Assessment.DueAt, b.Assessment.DueAt
		switch {
		case da != nil && db != nil && !da.Equal(*db):
			return da.Before(*db)
		case da != nil && db == nil:
			return true
		case da == nil && db != nil:
			return false
		}
		if a.Task.PatientID != b.Task.PatientID {
			return a.Task.PatientID < b.Task.PatientID
		}
		return a.Task.ID < b.Task.ID
	})
}

func (m *scheduleManager) FindGap(ctx context.Context, taskID string, start time.Time, maxDays int) (time.Time, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return time.Time{}, fmt.Errorf("finding gap: %w", err)
	}
	if start.IsZero() {
		start = m.now()
	}
	gap, err := m.engine.FindFirstMissingOccurrence(ctx, *task, start, m.completions, maxDays)
	if err != nil {
		return time.Time{}, fmt.Errorf("finding gap: %w", err)
	}
	m.logEvent(EventTaskGapScanned, map[string]any{
		"task_id":       task.ID,
		"start":         m.engine.FormatDate(start),
		"max_days":      maxDays,
		"first_missing": gap.Format(time.RFC3339),
	})
	return gap, nil
}

// Reconcile recomputes NextDueAt from completion history: the first missed
// occurrence at or after the earlier of the stored due instant and now, never
// looking back further than the gap-scan window. Tasks without a day-based
// occurrence rule are left unchanged.
func (m *scheduleManager) Reconcile(ctx context.Context, taskID string, now time.Time) (*models.TaskDefinition, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("reconciling task: %w", err)
	}
	if now.IsZero() {
		now = m.now()
	}
	if !task.IsRecurring || !m.engine.HasOccurrenceRule(*task) {
		m.logEvent(EventTaskReconciled, map[string]any{"task_id": task.ID, "changed": false})
		return task, nil
	}

	start := now
	if task.NextDueAt != nil && task.NextDueAt.Before(start) {
		start = *task.NextDueAt
	}
	if floor := m.engine.AddDays(now, -m.engine.MaxScanDays()); start.Before(floor) {
		start = floor
	}

	next, err := m.engine.FindFirstMissingOccurrence(ctx, *task, start, m.completions, 0)
	if err != nil {
		return nil, fmt.Errorf("reconciling task: %w", err)
	}

	changed := task.NextDueAt == nil || !task.NextDueAt.Equal(next)
	if changed {
		previous := task.NextDueAt
		task.NextDueAt = &next
		if err := m.tasks.UpdateTask(ctx, *task); err != nil {
			return nil, fmt.Errorf("reconciling task: updating task: %w", err)
		}
		data := map[string]any{
			"task_id":     task.ID,
			"changed":     true,
			"next_due_at": next.Format(time.RFC3339),
		}
		if previous != nil {
			data["previous_due_at"] = previous.Format(time.RFC3339)
		}
		m.logEvent(EventTaskReconciled, data)
	} else {
		m.logEvent(EventTaskReconciled, map[string]any{"task_id": task.ID, "changed": false})
	}
	return task, nil
}

func (m *scheduleManager) Occurrences(ctx context.Context, taskID string, from, to time.Time) ([]time.Time, error) {
	task, err := m.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing occurrences: %w", err)
	}
	return m.engine.OccurrencesBetween(*task, from, to), nil
}

// logEvent emits an event if an EventLogger is configured.
func (m *scheduleManager) logEvent(eventType string, data map[string]any) {
	if m.events != nil {
		_ = m.events.LogEvent(eventType, data)
	}
}
