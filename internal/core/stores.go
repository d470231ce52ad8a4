package core

import (
	"context"
	"time"

	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// TaskStore persists task definitions.
// This interface is defined locally in core to avoid importing storage.
type TaskStore interface {
	AddTask(ctx context.Context, task models.TaskDefinition) error
	UpdateTask(ctx context.Context, task models.TaskDefinition) error
	GetTask(ctx context.Context, taskID string) (*models.TaskDefinition, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error)
	RemoveTask(ctx context.Context, taskID string) error
}

// CompletionStore persists completion records and serves them to the gap
// scanner.
// This interface is defined locally in core to avoid importing storage.
type CompletionStore interface {
	schedule.CompletionSource
	AddCompletion(ctx context.Context, rec models.CompletionRecord) error
	CompletionsBetween(ctx context.Context, from, to time.Time) ([]models.CompletionRecord, error)
	CompletionsFor(ctx context.Context, q schedule.CompletionQuery, limit int) ([]models.CompletionRecord, error)
}
