package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Storage backend commands",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the PostgreSQL tables and indexes",
	Long: `Create the care_tasks and care_completions tables and their indexes when
storage.backend is postgres. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if InitStorage == nil {
			fmt.Fprintln(out, "File storage needs no initialisation.")
			return nil
		}
		if err := InitStorage(commandContext(cmd)); err != nil {
			return fmt.Errorf("initialising storage: %w", err)
		}
		fmt.Fprintln(out, "Storage schema is ready.")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	rootCmd.AddCommand(dbCmd)
}
