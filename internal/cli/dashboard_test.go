package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/observability"
)

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.activePanel != panelOverdue {
		t.Errorf("expected activePanel = %d, got %d", panelOverdue, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.Init() == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_KeyQ(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected tea.Quit command from q key")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDashboardModel_KeyTabCycles(t *testing.T) {
	var m tea.Model = newDashboardModel()

	want := []int{panelToday, panelSoon, panelAlerts, panelOverdue}
	for i, w := range want {
		var cmd tea.Cmd
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if cmd != nil {
			t.Error("expected no command from tab key")
		}
		if got := m.(dashboardModel).activePanel; got != w {
			t.Errorf("after tab %d: panel = %d, want %d", i+1, got, w)
		}
	}
}

func TestDashboardModel_KeyShiftTab(t *testing.T) {
	m := newDashboardModel()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := updated.(dashboardModel).activePanel; got != panelAlerts {
		t.Errorf("expected panel %d after shift+tab from 0, got %d", panelAlerts, got)
	}
}

func TestDashboardModel_KeyR(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if !updated.(dashboardModel).loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a command (loadData) from r key")
	}
}

func TestDashboardModel_RefreshTick(t *testing.T) {
	m := newDashboardModel()

	_, cmd := m.Update(refreshTickMsg(cliNow))
	if cmd == nil {
		t.Error("expected reload and next tick after refresh tick")
	}
}

func TestDashboardModel_DataLoadedAndView(t *testing.T) {
	m := newDashboardModel()

	updated, _ := m.Update(dataLoadedMsg{
		overdue: []boardRow{{patient: "P-1", task: "vital signs", due: "2026-10-13 08:00", late: 3}},
		today:   []boardRow{{patient: "P-2", task: "blood sugar", due: "2026-10-16 20:00"}},
		alerts:  []alertSnapshot{{severity: "high", message: "vital signs for patient P-1 is 3 days overdue"}},
		at:      cliNow,
	})
	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after data loaded")
	}
	if len(dm.overdue) != 1 || len(dm.today) != 1 || len(dm.soon) != 0 || len(dm.alerts) != 1 {
		t.Fatalf("unexpected model state %+v", dm)
	}

	updated, _ = dm.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := updated.(dashboardModel).View()
	for _, want := range []string{"Overdue (1)", "Due today (1)", "Due soon (0)", "Alerts", "P-1", "(3d)", "[HIGH]"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestDashboardModel_ErrorView(t *testing.T) {
	m := newDashboardModel()
	m.width = 80

	updated, _ := m.Update(dataLoadedMsg{err: errors.New("board unavailable")})
	view := updated.(dashboardModel).View()
	if !strings.Contains(view, "Error: board unavailable") {
		t.Errorf("expected error in view, got %q", view)
	}
}

func TestDashboardModel_ViewBeforeResize(t *testing.T) {
	if got := newDashboardModel().View(); got != "Loading..." {
		t.Errorf("expected Loading..., got %q", got)
	}
}

func TestLoadData(t *testing.T) {
	mgr := newScheduleMgrMock()
	mgr.boardFn = func(opts core.BoardOpts) ([]core.BoardEntry, error) {
		return sampleBoard(), nil
	}
	useScheduleMgr(t, mgr)

	origEngine := AlertEngine
	defer func() { AlertEngine = origEngine }()
	AlertEngine = &alertsMock{evaluateFn: func(now time.Time) ([]observability.Alert, error) {
		return []observability.Alert{
			{Severity: observability.SeverityLow, Message: "soon"},
			{Severity: observability.SeverityHigh, Message: "late"},
		}, nil
	}}

	msg, ok := loadData().(dataLoadedMsg)
	if !ok {
		t.Fatal("expected dataLoadedMsg")
	}
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if len(msg.overdue) != 1 || len(msg.today) != 1 || len(msg.soon) != 0 {
		t.Errorf("unexpected grouping overdue=%d today=%d soon=%d", len(msg.overdue), len(msg.today), len(msg.soon))
	}
	if msg.overdue[0].late != 3 {
		t.Errorf("expected 3 days late, got %d", msg.overdue[0].late)
	}
	if len(msg.alerts) != 2 || msg.alerts[0].severity != "high" {
		t.Errorf("expected alerts sorted high first, got %+v", msg.alerts)
	}
}

func TestLoadData_BoardError(t *testing.T) {
	useScheduleMgr(t, newScheduleMgrMock())

	msg := loadData().(dataLoadedMsg)
	if msg.err == nil || !strings.Contains(msg.err.Error(), "loading board") {
		t.Errorf("expected loading board error, got %v", msg.err)
	}
}
