// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the care schedule as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/observability"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// Server wraps careclock services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	scheduleMgr core.ScheduleManager
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	now         func() time.Time
}

// NewServer creates an MCP server. metricsCalc and alertEngine may be nil
// if the event log is unavailable.
func NewServer(scheduleMgr core.ScheduleManager, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		scheduleMgr: scheduleMgr,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		now:         time.Now,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "careclock", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID                  string   `json:"id"`
	PatientID           string   `json:"patient_id"`
	TaskType            string   `json:"task_type"`
	Category            string   `json:"category"`
	Title               string   `json:"title,omitempty"`
	Frequency           string   `json:"frequency"`
	IsRecurring         bool     `json:"is_recurring"`
	SpecificTimes       []string `json:"specific_times,omitempty"`
	SpecificDaysOfWeek  []int    `json:"specific_days_of_week,omitempty"`
	SpecificDaysOfMonth []int    `json:"specific_days_of_month,omitempty"`
	CreatedAt           string   `json:"created_at"`
	LastCompletedAt     string   `json:"last_completed_at,omitempty"`
	NextDueAt           string   `json:"next_due_at,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier"`
}

type listTasksInput struct {
	PatientID string `json:"patient_id,omitempty" jsonschema:"only tasks for this patient"`
	TaskType  string `json:"task_type,omitempty" jsonschema:"only tasks of this type (e.g. vital_signs, blood_sugar, restraint_consent)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type getBoardInput struct {
	PatientID        string `json:"patient_id,omitempty" jsonschema:"only tasks for this patient"`
	At               string `json:"at,omitempty" jsonschema:"evaluate at this local time (YYYY-MM-DD HH:MM); defaults to now"`
	IncludeScheduled bool   `json:"include_scheduled,omitempty" jsonschema:"also return tasks that are not yet due"`
}

type boardEntryOutput struct {
	TaskID      string `json:"task_id"`
	PatientID   string `json:"patient_id"`
	TaskType    string `json:"task_type"`
	Title       string `json:"title,omitempty"`
	Urgency     string `json:"urgency"`
	DueAt       string `json:"due_at,omitempty"`
	DaysOverdue int    `json:"days_overdue,omitempty"`
	Frequency   string `json:"frequency"`
}

type getBoardOutput struct {
	Entries []boardEntryOutput `json:"entries"`
	Counts  map[string]int     `json:"counts"`
	At      string             `json:"at"`
}

type recordCompletionInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier"`
	At     string `json:"at,omitempty" jsonschema:"the occurrence being documented (YYYY-MM-DD HH:MM local); defaults to now"`
	By     string `json:"by,omitempty" jsonschema:"staff member who carried out the task"`
	Notes  string `json:"notes,omitempty" jsonschema:"free-text notes"`
}

type recordCompletionOutput struct {
	CompletionID string `json:"completion_id"`
	RecordedAt   string `json:"recorded_at"`
	NextDueAt    string `json:"next_due_at,omitempty"`
	Message      string `json:"message"`
}

type findMissingInput struct {
	TaskID  string `json:"task_id" jsonschema:"the task identifier"`
	From    string `json:"from,omitempty" jsonschema:"start of the scan (YYYY-MM-DD local); defaults to today"`
	MaxDays int    `json:"max_days,omitempty" jsonschema:"maximum number of days to scan; 0 uses the configured limit"`
}

type findMissingOutput struct {
	TaskID       string `json:"task_id"`
	FirstMissing string `json:"first_missing"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated        int            `json:"tasks_created"`
	TasksRemoved        int            `json:"tasks_removed"`
	CompletionsRecorded int            `json:"completions_recorded"`
	CompletionsByType   map[string]int `json:"completions_by_type"`
	GapScans            int            `json:"gap_scans"`
	Reconciliations     int            `json:"reconciliations"`
	DueDatesMoved       int            `json:"due_dates_moved"`
	AlertsNotified      int            `json:"alerts_notified"`
	EventCount          int            `json:"event_count"`
	OldestEvent         string         `json:"oldest_event,omitempty"`
	NewestEvent         string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id,omitempty"`
	PatientID   string `json:"patient_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List care task definitions, optionally filtered by patient and task type.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a care task definition by ID, including its frequency and next due time.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_board",
		Description: "Get the urgency board: tasks that are overdue, due today or due soon, most urgent first.",
	}, s.handleGetBoard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "record_completion",
		Description: "Record that a care task was carried out and advance its next due time.",
	}, s.handleRecordCompletion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "find_missing_occurrence",
		Description: "Find the first scheduled occurrence of a task that has no documented completion.",
	}, s.handleFindMissing)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active care alerts (overdue, due today, due soon, overdue backlog).",
	}, s.handleGetAlerts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated care activity metrics from the event log.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := models.TaskFilter{PatientID: input.PatientID}
	if input.TaskType != "" {
		tt := models.TaskType(input.TaskType)
		if !tt.Valid() {
			return errorResult(fmt.Sprintf("unknown task type %q", input.TaskType)), listTasksOutput{}, nil
		}
		filter.Types = []models.TaskType{tt}
	}

	tasks, err := s.scheduleMgr.ListTasks(ctx, filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = s.taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(ctx context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.scheduleMgr.GetTask(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	return nil, s.taskToOutput(*task), nil
}

func (s *Server) handleGetBoard(ctx context.Context, _ *gomcp.CallToolRequest, input getBoardInput) (*gomcp.CallToolResult, getBoardOutput, error) {
	now := s.now()
	if input.At != "" {
		at, err := s.parseLocalTime(input.At)
		if err != nil {
			return errorResult(err.Error()), emptyBoardOutput(), nil
		}
		now = at
	}

	entries, err := s.scheduleMgr.Board(ctx, core.BoardOpts{PatientID: input.PatientID, Now: now})
	if err != nil {
		return errorResult(fmt.Sprintf("building board: %s", err)), emptyBoardOutput(), nil
	}

	out := getBoardOutput{
		Entries: make([]boardEntryOutput, 0, len(entries)),
		Counts:  make(map[string]int),
		At:      s.formatTime(now),
	}
	for _, e := range entries {
		urgency := e.Assessment.Urgency
		out.Counts[string(urgency)]++
		if urgency == schedule.UrgencyScheduled && !input.IncludeScheduled {
			continue
		}
		entry := boardEntryOutput{
			TaskID:      e.Task.ID,
			PatientID:   e.Task.PatientID,
			TaskType:    string(e.Task.TaskType),
			Title:       e.Task.Title,
			Urgency:     string(urgency),
			DaysOverdue: e.Assessment.DaysOverdue,
			Frequency:   e.Frequency,
		}
		if e.Assessment.DueAt != nil {
			entry.DueAt = s.formatTime(*e.Assessment.DueAt)
		}
		out.Entries = append(out.Entries, entry)
	}
	return nil, out, nil
}

func (s *Server) handleRecordCompletion(ctx context.Context, _ *gomcp.CallToolRequest, input recordCompletionInput) (*gomcp.CallToolResult, recordCompletionOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), recordCompletionOutput{}, nil
	}

	opts := core.RecordCompletionOpts{By: input.By, Notes: input.Notes}
	if input.At != "" {
		at, err := s.parseLocalTime(input.At)
		if err != nil {
			return errorResult(err.Error()), recordCompletionOutput{}, nil
		}
		opts.At = at
	}

	result, err := s.scheduleMgr.RecordCompletion(ctx, input.TaskID, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("recording completion for %s: %s", input.TaskID, err)), recordCompletionOutput{}, nil
	}

	out := recordCompletionOutput{
		CompletionID: result.Record.ID,
		RecordedAt:   s.formatTime(result.Record.RecordedAt),
		Message:      fmt.Sprintf("recorded %s for patient %s", result.Task.TaskType, result.Task.PatientID),
	}
	if result.Task.NextDueAt != nil {
		out.NextDueAt = s.formatTime(*result.Task.NextDueAt)
	}
	return nil, out, nil
}

func (s *Server) handleFindMissing(ctx context.Context, _ *gomcp.CallToolRequest, input findMissingInput) (*gomcp.CallToolResult, findMissingOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), findMissingOutput{}, nil
	}
	if input.MaxDays < 0 {
		return errorResult("max_days must not be negative"), findMissingOutput{}, nil
	}

	engine := s.scheduleMgr.Engine()
	start := engine.DateOnly(s.now())
	if input.From != "" {
		from, err := s.parseLocalTime(input.From)
		if err != nil {
			return errorResult(err.Error()), findMissingOutput{}, nil
		}
		start = from
	}

	gap, err := s.scheduleMgr.FindGap(ctx, input.TaskID, start, input.MaxDays)
	if err != nil {
		return errorResult(fmt.Sprintf("finding missing occurrence for %s: %s", input.TaskID, err)), findMissingOutput{}, nil
	}
	return nil, findMissingOutput{TaskID: input.TaskID, FirstMissing: s.formatTime(gap)}, nil
}

func (s *Server) handleGetAlerts(ctx context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate(ctx, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TaskID:      a.TaskID,
			PatientID:   a.PatientID,
			TriggeredAt: s.formatTime(a.TriggeredAt),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(sinceStr, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:        metrics.TasksCreated,
		TasksRemoved:        metrics.TasksRemoved,
		CompletionsRecorded: metrics.CompletionsRecorded,
		CompletionsByType:   metrics.CompletionsByType,
		GapScans:            metrics.GapScans,
		Reconciliations:     metrics.Reconciliations,
		DueDatesMoved:       metrics.DueDatesMoved,
		AlertsNotified:      metrics.AlertsNotified,
		EventCount:          metrics.EventCount,
	}
	if out.CompletionsByType == nil {
		out.CompletionsByType = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) taskToOutput(t models.TaskDefinition) taskOutput {
	out := taskOutput{
		ID:                  t.ID,
		PatientID:           t.PatientID,
		TaskType:            string(t.TaskType),
		Category:            string(t.Category()),
		Title:               t.Title,
		Frequency:           schedule.DescribeFrequency(t),
		IsRecurring:         t.IsRecurring,
		SpecificTimes:       t.SpecificTimes,
		SpecificDaysOfWeek:  t.SpecificDaysOfWeek,
		SpecificDaysOfMonth: t.SpecificDaysOfMonth,
		CreatedAt:           s.formatTime(t.CreatedAt),
		Notes:               t.Notes,
	}
	if t.LastCompletedAt != nil {
		out.LastCompletedAt = s.formatTime(*t.LastCompletedAt)
	}
	if t.NextDueAt != nil {
		out.NextDueAt = s.formatTime(*t.NextDueAt)
	}
	return out
}

func (s *Server) formatTime(t time.Time) string {
	return t.In(s.scheduleMgr.Engine().Location()).Format(time.RFC3339)
}

var inputTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (s *Server) parseLocalTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	loc := s.scheduleMgr.Engine().Location()
	for _, layout := range inputTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", value)
}

func emptyBoardOutput() getBoardOutput {
	return getBoardOutput{Entries: []boardEntryOutput{}, Counts: make(map[string]int)}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{CompletionsByType: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a duration such as "7d", "30d" or "24h" into the time
// that far before now.
func parseSince(s string, now time.Time) (time.Time, error) {
	now = now.UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
