package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/schedule"
)

// Dashboard panel indices.
const (
	panelOverdue = iota
	panelToday
	panelSoon
	panelAlerts
	panelCount
)

// dashboardRefresh is how often the dashboard reloads the board.
const dashboardRefresh = time.Minute

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	overdue []boardRow
	today   []boardRow
	soon    []boardRow
	alerts  []alertSnapshot
	loaded  time.Time

	loading bool
	err     error
}

type boardRow struct {
	patient string
	task    string
	due     string
	late    int
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	overdue []boardRow
	today   []boardRow
	soon    []boardRow
	alerts  []alertSnapshot
	at      time.Time
	err     error
}

type refreshTickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelOverdue,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(loadData, scheduleRefresh())
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(loadData, scheduleRefresh())

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.overdue = msg.overdue
		m.today = msg.today
		m.soon = msg.soon
		m.alerts = msg.alerts
		m.loaded = msg.at
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := " careclock "
	if FacilityName != "" {
		title += "- " + FacilityName + " "
	}
	header := titleStyle.Render(title)
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading board...\n\n%s", header, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", header, m.err, help)
	}

	panels := []string{
		m.renderBoardPanel("Overdue", m.overdue, urgencyOverdueStyle),
		m.renderBoardPanel("Due today", m.today, urgencyTodayStyle),
		m.renderBoardPanel("Due soon", m.soon, urgencySoonStyle),
		m.renderAlertsPanel(),
	}

	availableWidth := m.width - 2
	var body string
	if availableWidth > 160 {
		colWidth := availableWidth / panelCount
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, panels...)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	status := ""
	if !m.loaded.IsZero() {
		status = helpStyle.Render("updated " + m.loaded.Format("15:04:05"))
	}
	return fmt.Sprintf("%s %s\n\n%s\n\n%s", header, status, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderBoardPanel(title string, rows []boardRow, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(rows))))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString("  Nothing here.")
		return b.String()
	}
	for _, r := range rows {
		line := fmt.Sprintf("  %-10s %-24s %s", r.patient, r.task, r.due)
		if r.late > 0 {
			line += fmt.Sprintf(" (%dd)", r.late)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))
	return b.String()
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	ctx := context.Background()
	now := nowFunc()
	result := dataLoadedMsg{at: now}

	if ScheduleMgr != nil {
		entries, err := ScheduleMgr.Board(ctx, core.BoardOpts{Now: now})
		if err != nil {
			result.err = fmt.Errorf("loading board: %w", err)
			return result
		}
		loc := ScheduleMgr.Engine().Location()
		for _, e := range entries {
			row := boardRow{
				patient: e.Task.PatientID,
				task:    taskLabel(e.Task),
				due:     formatDue(e.Assessment.DueAt, loc),
				late:    e.Assessment.DaysOverdue,
			}
			switch e.Assessment.Urgency {
			case schedule.UrgencyOverdue:
				result.overdue = append(result.overdue, row)
			case schedule.UrgencyPendingToday:
				result.today = append(result.today, row)
			case schedule.UrgencyDueSoon:
				result.soon = append(result.soon, row)
			}
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate(ctx, now)
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})
		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI showing overdue, due today and due soon tasks",
	Long: `Launch an interactive terminal dashboard showing the urgency board and
active alerts. The board refreshes every minute.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
