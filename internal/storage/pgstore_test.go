package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// testPool connects to CARECLOCK_TEST_DSN or skips the test.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("CARECLOCK_TEST_DSN")
	if dsn == "" {
		t.Skip("CARECLOCK_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestConnect_EmptyDSN(t *testing.T) {
	if _, err := Connect(context.Background(), ""); err == nil {
		t.Error("expected error for empty DSN")
	}
}

func TestPgTaskStore_RoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPgTaskStore(pool)
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	patient := "pg-" + id
	task := sampleTask(id, patient, models.TaskTypeBloodSugar)
	t.Cleanup(func() { _ = store.RemoveTask(ctx, id) })

	if err := store.AddTask(ctx, task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	got, err := store.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.TaskType != task.TaskType || len(got.SpecificDaysOfWeek) != 3 || len(got.SpecificTimes) != 2 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !got.NextDueAt.Equal(*task.NextDueAt) {
		t.Errorf("NextDueAt = %v, want %v", got.NextDueAt, task.NextDueAt)
	}

	last := time.Date(2026, time.October, 16, 8, 0, 0, 0, testLoc)
	task.LastCompletedAt = &last
	if err := store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	listed, err := store.ListTasks(ctx, models.TaskFilter{PatientID: patient})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(listed) != 1 || listed[0].LastCompletedAt == nil {
		t.Errorf("ListTasks = %+v", listed)
	}

	if err := store.RemoveTask(ctx, id); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if _, err := store.GetTask(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask after remove: err = %v, want ErrNotFound", err)
	}
}

func TestPgCompletionStore_CompletionsOn(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPgCompletionStore(pool, testLoc)
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	taskID := uuid.Must(uuid.NewV7()).String()
	patient := "pg-" + taskID
	day := time.Date(2026, time.October, 15, 0, 0, 0, 0, testLoc)
	for _, r := range []models.CompletionRecord{
		rec(uuid.Must(uuid.NewV7()).String(), taskID, patient, models.TaskTypeWeight, day.Add(8*time.Hour)),
		rec(uuid.Must(uuid.NewV7()).String(), "", patient, models.TaskTypeWeight, day.Add(20*time.Hour)),
		rec(uuid.Must(uuid.NewV7()).String(), taskID, patient, models.TaskTypeWeight, day.Add(25*time.Hour)),
	} {
		if err := store.AddCompletion(ctx, r); err != nil {
			t.Fatalf("AddCompletion: %v", err)
		}
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM care_completions WHERE patient_id = $1`, patient)
	})

	q := schedule.CompletionQuery{TaskID: taskID, PatientID: patient, TaskType: models.TaskTypeWeight}
	got, err := store.CompletionsOn(ctx, q, day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("CompletionsOn: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records on the day, want 2", len(got))
	}

	history, err := store.CompletionsFor(ctx, schedule.CompletionQuery{TaskID: taskID}, 1)
	if err != nil {
		t.Fatalf("CompletionsFor: %v", err)
	}
	if len(history) != 1 || !history[0].RecordedAt.Equal(day.Add(25*time.Hour)) {
		t.Errorf("CompletionsFor = %+v", history)
	}
}
