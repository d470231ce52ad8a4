package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
)

var (
	completeAt    string
	completeBy    string
	completeNotes string
	completeJSON  bool
)

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Record that a care task was carried out",
	Long: `Record a completion for a task and advance its next-due time.

By default the completion is recorded for the current time. Use --at to
document a specific occurrence, for example a missed 08:00 vital signs
check entered later in the day:

  careclock complete 0192... --at "2026-10-16 08:00" --by nurse-a`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		loc := ScheduleMgr.Engine().Location()

		opts := core.RecordCompletionOpts{By: completeBy, Notes: completeNotes}
		if completeAt != "" {
			at, err := parseLocalTime(completeAt, loc)
			if err != nil {
				return fmt.Errorf("parsing --at: %w", err)
			}
			opts.At = at
		}

		result, err := ScheduleMgr.RecordCompletion(commandContext(cmd), args[0], opts)
		if err != nil {
			return fmt.Errorf("recording completion: %w", err)
		}

		out := cmd.OutOrStdout()
		if completeJSON {
			return writeJSON(out, result)
		}
		fmt.Fprintf(out, "Recorded %s for patient %s at %s\n",
			taskLabel(result.Task), result.Task.PatientID, result.Record.RecordedAt.In(loc).Format(displayTimeLayout))
		fmt.Fprintf(out, "  Next due: %s\n", formatDue(result.Task.NextDueAt, loc))
		return nil
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeAt, "at", "", "Occurrence being documented (default now)")
	completeCmd.Flags().StringVar(&completeBy, "by", "", "Staff member who carried out the task")
	completeCmd.Flags().StringVar(&completeNotes, "notes", "", "Free-text notes")
	completeCmd.Flags().BoolVar(&completeJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(completeCmd)
}
