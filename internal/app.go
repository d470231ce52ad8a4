// Package internal provides the App struct that wires all components of
// careclock together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valter-silva-au/careclock/internal/cli"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/observability"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/internal/storage"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// EventLogFileName is the JSONL event log kept in the base path.
const EventLogFileName = ".careclock_events.jsonl"

// App holds all service dependencies for careclock.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Scheduling
	Engine      *schedule.Engine
	ScheduleMgr core.ScheduleManager

	// Storage layer
	Pool        *pgxpool.Pool
	Tasks       core.TaskStore
	Completions core.CompletionStore

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of careclock.
// basePath is the directory holding .careclock.yaml and the file-backed data.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	// A missing file already yields the defaults; a file that exists but
	// does not parse is an error.
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	opts, err := core.EngineOptions(cfg)
	if err != nil {
		return nil, err
	}
	app.Engine = schedule.New(opts)

	// --- Storage ---
	switch cfg.Storage.Backend {
	case "", "file":
		app.Tasks = storage.NewTaskFileStore(basePath)
		app.Completions = storage.NewCompletionFileStore(basePath, opts.Location)
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		pool, err := storage.Connect(context.Background(), cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.Pool = pool
		taskStore := storage.NewPgTaskStore(pool)
		completionStore := storage.NewPgCompletionStore(pool, opts.Location)
		app.Tasks = taskStore
		app.Completions = completionStore
		cli.InitStorage = func(ctx context.Context) error {
			if err := taskStore.EnsureTable(ctx); err != nil {
				return err
			}
			return completionStore.EnsureTable(ctx)
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// --- Event log ---
	eventLog, err := observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err == nil {
		app.EventLog = eventLog
	}
	// Non-fatal: commands work without an event log.

	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.ScheduleMgr = core.NewScheduleManager(app.Engine, app.Tasks, app.Completions, evtAdapter)

	// --- Alerts and metrics ---
	thresholds := observability.AlertThresholds{
		IncludeDueSoon: cfg.Alerts.IncludeDueSoon,
		MaxOverdue:     cfg.Alerts.MaxOverdue,
	}
	app.AlertEngine = observability.NewAlertEngine(&urgencySourceAdapter{mgr: app.ScheduleMgr}, thresholds)
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL, cfg.Facility.Name)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.FacilityName = cfg.Facility.Name
	cli.ScheduleMgr = app.ScheduleMgr
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier
	if app.Pool == nil {
		cli.InitStorage = nil
	}

	return app, nil
}

// Close releases resources held by the App. It is safe to call on an App
// whose pool or event log is nil.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the careclock data directory. CARECLOCK_HOME
// wins; otherwise the nearest ancestor holding .careclock.yaml, then the
// current directory.
func ResolveBasePath() string {
	if home := os.Getenv("CARECLOCK_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelInfo,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

// urgencySourceAdapter adapts core.ScheduleManager's board to
// observability.UrgencySource.
type urgencySourceAdapter struct {
	mgr core.ScheduleManager
}

func (a *urgencySourceAdapter) Urgencies(ctx context.Context, now time.Time) ([]observability.UrgencyItem, error) {
	entries, err := a.mgr.Board(ctx, core.BoardOpts{Now: now})
	if err != nil {
		return nil, err
	}
	items := make([]observability.UrgencyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, observability.UrgencyItem{
			TaskID:      e.Task.ID,
			PatientID:   e.Task.PatientID,
			TaskType:    string(e.Task.TaskType),
			Title:       e.Task.Title,
			Urgency:     string(e.Assessment.Urgency),
			DueAt:       e.Assessment.DueAt,
			DaysOverdue: e.Assessment.DaysOverdue,
		})
	}
	return items, nil
}
