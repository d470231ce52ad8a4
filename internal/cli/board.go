package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/schedule"
)

var (
	boardPatient string
	boardTypes   []string
	boardAt      string
	boardAll     bool
	boardJSON    bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show which care tasks are overdue, due today or due soon",
	Long: `Show the urgency board: every task classified as overdue, due today,
due soon or scheduled, most urgent first.

Scheduled tasks are hidden unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		loc := ScheduleMgr.Engine().Location()

		types, err := parseTaskTypes(boardTypes)
		if err != nil {
			return err
		}
		opts := core.BoardOpts{PatientID: boardPatient, Types: types, Now: nowFunc()}
		if boardAt != "" {
			at, err := parseLocalTime(boardAt, loc)
			if err != nil {
				return fmt.Errorf("parsing --at: %w", err)
			}
			opts.Now = at
		}

		entries, err := ScheduleMgr.Board(commandContext(cmd), opts)
		if err != nil {
			return fmt.Errorf("building board: %w", err)
		}
		if !boardAll {
			entries = actionableEntries(entries)
		}

		out := cmd.OutOrStdout()
		if boardJSON {
			return writeJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "Nothing due.")
			return nil
		}

		counts := make(map[schedule.Urgency]int)
		for _, e := range entries {
			counts[e.Assessment.Urgency]++
			fmt.Fprintln(out, boardLine(e, loc))
		}
		fmt.Fprintf(out, "\n%d overdue, %d due today, %d due soon\n",
			counts[schedule.UrgencyOverdue], counts[schedule.UrgencyPendingToday], counts[schedule.UrgencyDueSoon])
		return nil
	},
}

func actionableEntries(entries []core.BoardEntry) []core.BoardEntry {
	var kept []core.BoardEntry
	for _, e := range entries {
		if e.Assessment.Urgency != schedule.UrgencyScheduled {
			kept = append(kept, e)
		}
	}
	return kept
}

func init() {
	boardCmd.Flags().StringVar(&boardPatient, "patient", "", "Only tasks for this patient")
	boardCmd.Flags().StringSliceVar(&boardTypes, "type", nil, "Only these task types")
	boardCmd.Flags().StringVar(&boardAt, "at", "", "Evaluate the board at this time instead of now")
	boardCmd.Flags().BoolVar(&boardAll, "all", false, "Include tasks that are not yet due")
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "Output as JSON")
	_ = boardCmd.RegisterFlagCompletionFunc("type", completeTaskTypes)
	rootCmd.AddCommand(boardCmd)
}
