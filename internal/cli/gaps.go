package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	gapsFrom    string
	gapsMaxDays int
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <task-id>",
	Short: "Find the first scheduled occurrence with no recorded completion",
	Long: `Walk forward from --from (default today) and report the first scheduled
occurrence of the task that has no documented completion.

The scan stops after --max-days days; 0 uses the configured limit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		engine := ScheduleMgr.Engine()
		loc := engine.Location()

		start := engine.DateOnly(nowFunc())
		if gapsFrom != "" {
			t, err := parseLocalTime(gapsFrom, loc)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			start = t
		}

		gap, err := ScheduleMgr.FindGap(commandContext(cmd), args[0], start, gapsMaxDays)
		if err != nil {
			return fmt.Errorf("finding gap: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "First missing occurrence: %s\n", gap.In(loc).Format(displayTimeLayout))
		return nil
	},
}

func init() {
	gapsCmd.Flags().StringVar(&gapsFrom, "from", "", "Start of the scan (default today)")
	gapsCmd.Flags().IntVar(&gapsMaxDays, "max-days", 0, "Maximum number of days to scan")
	rootCmd.AddCommand(gapsCmd)
}
