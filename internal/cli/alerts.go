package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/observability"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active care alerts",
	Long: `Evaluate the urgency board and display the resulting alerts.

Overdue tasks raise high alerts, tasks due today medium alerts and tasks
due soon low alerts. A facility alert is raised when too many tasks are
overdue at once. Use --notify to also post the alerts to Slack.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return errNotInitialized("alert engine")
		}

		ctx := commandContext(cmd)
		now := nowFunc()
		alerts, err := AlertEngine.Evaluate(ctx, now)
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
		} else {
			fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
			for _, alert := range alerts {
				severity := styleForSeverity(string(alert.Severity)).Render("[" + strings.ToUpper(string(alert.Severity)) + "]")
				fmt.Fprintf(out, "  %s %s\n", severity, alert.Message)
			}
		}

		if !alertsNotify {
			return nil
		}
		if Notifier == nil {
			return fmt.Errorf("notifications not configured (set notifications.enabled and notifications.slack.webhook_url)")
		}
		if err := Notifier.Notify(ctx, alerts); err != nil {
			return fmt.Errorf("sending notifications: %w", err)
		}
		if EventLog != nil && len(alerts) > 0 {
			_ = EventLog.Write(observability.Event{
				Time:    now.UTC(),
				Level:   observability.LevelInfo,
				Type:    observability.EventAlertsNotified,
				Message: observability.EventAlertsNotified,
				Data:    map[string]any{"count": len(alerts)},
			})
		}
		fmt.Fprintf(out, "\nSent %d alert(s) to Slack.\n", len(alerts))
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Send alerts to the configured Slack webhook")
	rootCmd.AddCommand(alertsCmd)
}
