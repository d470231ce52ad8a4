package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/observability"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

var errNotMocked = errors.New("not mocked")

// scheduleMgrMock implements core.ScheduleManager with optional function fields.
type scheduleMgrMock struct {
	engine *schedule.Engine

	createFn      func(opts core.CreateTaskOpts) (*models.TaskDefinition, error)
	getFn         func(id string) (*models.TaskDefinition, error)
	listFn        func(filter models.TaskFilter) ([]models.TaskDefinition, error)
	removeFn      func(id string) error
	completeFn    func(id string, opts core.RecordCompletionOpts) (*core.CompletionResult, error)
	historyFn     func(id string, limit int) ([]models.CompletionRecord, error)
	boardFn       func(opts core.BoardOpts) ([]core.BoardEntry, error)
	gapFn         func(id string, start time.Time, maxDays int) (time.Time, error)
	reconcileFn   func(id string, now time.Time) (*models.TaskDefinition, error)
	occurrencesFn func(id string, from, to time.Time) ([]time.Time, error)
}

func newScheduleMgrMock() *scheduleMgrMock {
	return &scheduleMgrMock{engine: schedule.New(schedule.Options{Location: time.UTC})}
}

func (m *scheduleMgrMock) CreateTask(_ context.Context, opts core.CreateTaskOpts) (*models.TaskDefinition, error) {
	if m.createFn == nil {
		return nil, errNotMocked
	}
	return m.createFn(opts)
}

func (m *scheduleMgrMock) GetTask(_ context.Context, id string) (*models.TaskDefinition, error) {
	if m.getFn == nil {
		return nil, errNotMocked
	}
	return m.getFn(id)
}

func (m *scheduleMgrMock) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error) {
	if m.listFn == nil {
		return nil, errNotMocked
	}
	return m.listFn(filter)
}

func (m *scheduleMgrMock) RemoveTask(_ context.Context, id string) error {
	if m.removeFn == nil {
		return errNotMocked
	}
	return m.removeFn(id)
}

func (m *scheduleMgrMock) RecordCompletion(_ context.Context, id string, opts core.RecordCompletionOpts) (*core.CompletionResult, error) {
	if m.completeFn == nil {
		return nil, errNotMocked
	}
	return m.completeFn(id, opts)
}

func (m *scheduleMgrMock) History(_ context.Context, id string, limit int) ([]models.CompletionRecord, error) {
	if m.historyFn == nil {
		return nil, errNotMocked
	}
	return m.historyFn(id, limit)
}

func (m *scheduleMgrMock) Board(_ context.Context, opts core.BoardOpts) ([]core.BoardEntry, error) {
	if m.boardFn == nil {
		return nil, errNotMocked
	}
	return m.boardFn(opts)
}

func (m *scheduleMgrMock) FindGap(_ context.Context, id string, start time.Time, maxDays int) (time.Time, error) {
	if m.gapFn == nil {
		return time.Time{}, errNotMocked
	}
	return m.gapFn(id, start, maxDays)
}

func (m *scheduleMgrMock) Reconcile(_ context.Context, id string, now time.Time) (*models.TaskDefinition, error) {
	if m.reconcileFn == nil {
		return nil, errNotMocked
	}
	return m.reconcileFn(id, now)
}

func (m *scheduleMgrMock) Occurrences(_ context.Context, id string, from, to time.Time) ([]time.Time, error) {
	if m.occurrencesFn == nil {
		return nil, errNotMocked
	}
	return m.occurrencesFn(id, from, to)
}

func (m *scheduleMgrMock) Engine() *schedule.Engine { return m.engine }

type alertsMock struct {
	evaluateFn func(now time.Time) ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate(_ context.Context, now time.Time) ([]observability.Alert, error) {
	return m.evaluateFn(now)
}

type notifierMock struct {
	notifyFn func(alerts []observability.Alert) error
}

func (m *notifierMock) Notify(_ context.Context, alerts []observability.Alert) error {
	return m.notifyFn(alerts)
}

type metricsMock struct {
	calculateFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calculateFn(since)
}

type eventLogMock struct {
	written []observability.Event
}

func (m *eventLogMock) Write(e observability.Event) error {
	m.written = append(m.written, e)
	return nil
}

func (m *eventLogMock) Read(_ observability.EventFilter) ([]observability.Event, error) {
	return m.written, nil
}

func (m *eventLogMock) Close() error { return nil }

var cliNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

// useScheduleMgr installs mgr and a fixed clock for the duration of the test.
func useScheduleMgr(t *testing.T, mgr core.ScheduleManager) {
	t.Helper()
	origMgr, origNow := ScheduleMgr, nowFunc
	ScheduleMgr = mgr
	nowFunc = func() time.Time { return cliNow }
	t.Cleanup(func() {
		ScheduleMgr = origMgr
		nowFunc = origNow
	})
}

// runCmd runs cmd's RunE with output captured.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func sampleTask() models.TaskDefinition {
	due := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	return models.TaskDefinition{
		ID:             "task-1",
		PatientID:      "P-100",
		TaskType:       models.TaskTypeVitalSigns,
		FrequencyUnit:  models.FrequencyDaily,
		FrequencyValue: 1,
		SpecificTimes:  []string{"08:00", "20:00"},
		IsRecurring:    true,
		CreatedAt:      time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		NextDueAt:      &due,
	}
}
