package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/pkg/models"
)

func TestCompleteCmd(t *testing.T) {
	mgr := newScheduleMgrMock()
	var gotID string
	var gotOpts core.RecordCompletionOpts
	mgr.completeFn = func(id string, opts core.RecordCompletionOpts) (*core.CompletionResult, error) {
		gotID, gotOpts = id, opts
		task := sampleTask()
		next := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)
		task.NextDueAt = &next
		return &core.CompletionResult{
			Record: models.CompletionRecord{ID: "c1", TaskID: id, RecordedAt: opts.At},
			Task:   task,
		}, nil
	}
	useScheduleMgr(t, mgr)

	completeAt, completeBy, completeNotes = "2026-10-16 08:00", "nurse-a", "late entry"
	defer func() { completeAt, completeBy, completeNotes = "", "", "" }()

	out, err := runCmd(t, completeCmd, "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "task-1" || gotOpts.By != "nurse-a" || gotOpts.Notes != "late entry" {
		t.Errorf("unexpected call id=%q opts=%+v", gotID, gotOpts)
	}
	if !gotOpts.At.Equal(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected At %v", gotOpts.At)
	}
	if !strings.Contains(out, "Recorded vital signs for patient P-100 at 2026-10-16 08:00") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "Next due: 2026-10-16 20:00") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCompleteCmd_DefaultsToNow(t *testing.T) {
	mgr := newScheduleMgrMock()
	var gotOpts core.RecordCompletionOpts
	mgr.completeFn = func(id string, opts core.RecordCompletionOpts) (*core.CompletionResult, error) {
		gotOpts = opts
		return &core.CompletionResult{Record: models.CompletionRecord{RecordedAt: cliNow}, Task: sampleTask()}, nil
	}
	useScheduleMgr(t, mgr)

	if _, err := runCmd(t, completeCmd, "task-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotOpts.At.IsZero() {
		t.Errorf("expected zero At so the manager uses now, got %v", gotOpts.At)
	}
}

func TestCompleteCmd_InvalidAt(t *testing.T) {
	useScheduleMgr(t, newScheduleMgrMock())

	completeAt = "yesterday"
	defer func() { completeAt = "" }()

	_, err := runCmd(t, completeCmd, "task-1")
	if err == nil || !strings.Contains(err.Error(), "--at") {
		t.Fatalf("expected --at parse error, got %v", err)
	}
}

func TestCompleteCmd_ManagerError(t *testing.T) {
	useScheduleMgr(t, newScheduleMgrMock())

	_, err := runCmd(t, completeCmd, "task-1")
	if err == nil || !strings.Contains(err.Error(), "recording completion") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
