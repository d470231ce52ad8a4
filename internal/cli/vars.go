package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath     string
	FacilityName string
	ScheduleMgr  core.ScheduleManager

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	// InitStorage prepares the storage backend schema. Nil for backends
	// that need no preparation.
	InitStorage func(ctx context.Context) error
)

// nowFunc is the clock used by commands. Tests replace it.
var nowFunc = time.Now

func requireScheduleMgr() error {
	if ScheduleMgr == nil {
		return errNotInitialized("schedule manager")
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
