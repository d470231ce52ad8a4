package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/careclock/internal/core"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage care task definitions (add, list, show, remove, reconcile, calendar)",
	Long: `Manage the recurring care tasks defined for each patient.

A task pairs a patient with a task type and a recurrence rule such as
"every day at 08:00 and 20:00" or "every week on Monday and Thursday".`,
}

var (
	taskAddPatient   string
	taskAddType      string
	taskAddTitle     string
	taskAddUnit      string
	taskAddEvery     int
	taskAddTimes     []string
	taskAddWeekdays  []int
	taskAddMonthDays []int
	taskAddOnce      bool
	taskAddFirstDue  string
	taskAddNotes     string
)

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Define a new care task for a patient",
	Long: `Define a new care task.

Examples:
  careclock task add --patient P-100 --type vital_signs --unit daily --times 08:00,20:00
  careclock task add --patient P-100 --type weight --unit weekly --weekdays 1
  careclock task add --patient P-100 --type catheter_change --unit monthly --monthdays 1,15
  careclock task add --patient P-100 --type end_of_life_plan --once --first-due 2026-12-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}

		opts := core.CreateTaskOpts{
			PatientID:           taskAddPatient,
			TaskType:            models.TaskType(taskAddType),
			Title:               taskAddTitle,
			FrequencyUnit:       models.FrequencyUnit(taskAddUnit),
			FrequencyValue:      taskAddEvery,
			SpecificTimes:       taskAddTimes,
			SpecificDaysOfWeek:  taskAddWeekdays,
			SpecificDaysOfMonth: taskAddMonthDays,
			IsRecurring:         !taskAddOnce,
			Notes:               taskAddNotes,
		}
		if taskAddFirstDue != "" {
			first, err := parseLocalTime(taskAddFirstDue, ScheduleMgr.Engine().Location())
			if err != nil {
				return fmt.Errorf("parsing --first-due: %w", err)
			}
			opts.FirstDueAt = &first
		}

		task, err := ScheduleMgr.CreateTask(commandContext(cmd), opts)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added task %s\n", task.ID)
		printTaskDetails(out, *task)
		return nil
	},
}

var (
	taskListPatient string
	taskListTypes   []string
	taskListJSON    bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List care task definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		types, err := parseTaskTypes(taskListTypes)
		if err != nil {
			return err
		}

		tasks, err := ScheduleMgr.ListTasks(commandContext(cmd), models.TaskFilter{PatientID: taskListPatient, Types: types})
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if taskListJSON {
			return writeJSON(out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		loc := ScheduleMgr.Engine().Location()
		fmt.Fprintf(out, "%-36s  %-10s  %-28s  %-16s  %s\n", "ID", "PATIENT", "TASK", "NEXT DUE", "FREQUENCY")
		for _, t := range tasks {
			fmt.Fprintf(out, "%-36s  %-10s  %-28s  %-16s  %s\n",
				t.ID, t.PatientID, taskLabel(t), formatDue(t.NextDueAt, loc), schedule.DescribeFrequency(t))
		}
		return nil
	},
}

var taskShowHistory int

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task definition and its recent completions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		ctx := commandContext(cmd)

		task, err := ScheduleMgr.GetTask(ctx, args[0])
		if err != nil {
			return fmt.Errorf("showing task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task %s\n", task.ID)
		printTaskDetails(out, *task)

		if taskShowHistory <= 0 {
			return nil
		}
		history, err := ScheduleMgr.History(ctx, task.ID, taskShowHistory)
		if err != nil {
			return fmt.Errorf("showing task history: %w", err)
		}
		fmt.Fprintln(out, "\n  Recent completions:")
		if len(history) == 0 {
			fmt.Fprintln(out, "    none recorded")
		}
		loc := ScheduleMgr.Engine().Location()
		for _, r := range history {
			line := "    " + r.RecordedAt.In(loc).Format(displayTimeLayout)
			if r.RecordedBy != "" {
				line += " by " + r.RecordedBy
			}
			if r.Notes != "" {
				line += " - " + r.Notes
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a task definition",
	Long: `Remove a task definition. Completion records already documented for
the task are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		if err := ScheduleMgr.RemoveTask(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("removing task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[0])
		return nil
	},
}

var taskReconcileAll bool

var taskReconcileCmd = &cobra.Command{
	Use:   "reconcile [task-id]",
	Short: "Recompute next-due times from the completion history",
	Long: `Recompute a task's next-due time as the first scheduled occurrence that
has no documented completion. Use --all to reconcile every task.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		if len(args) == 0 && !taskReconcileAll {
			return fmt.Errorf("specify a task id or --all")
		}
		ctx := commandContext(cmd)

		ids := args
		if taskReconcileAll {
			tasks, err := ScheduleMgr.ListTasks(ctx, models.TaskFilter{})
			if err != nil {
				return fmt.Errorf("reconciling tasks: %w", err)
			}
			ids = nil
			for _, t := range tasks {
				ids = append(ids, t.ID)
			}
		}

		out := cmd.OutOrStdout()
		loc := ScheduleMgr.Engine().Location()
		now := nowFunc()
		for _, id := range ids {
			task, err := ScheduleMgr.Reconcile(ctx, id, now)
			if err != nil {
				return fmt.Errorf("reconciling task %s: %w", id, err)
			}
			fmt.Fprintf(out, "%s  %-10s %-28s next due %s\n", task.ID, task.PatientID, taskLabel(*task), formatDue(task.NextDueAt, loc))
		}
		return nil
	},
}

var (
	taskCalendarFrom string
	taskCalendarDays int
)

var taskCalendarCmd = &cobra.Command{
	Use:   "calendar <task-id>",
	Short: "List the scheduled occurrences of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScheduleMgr(); err != nil {
			return err
		}
		engine := ScheduleMgr.Engine()
		loc := engine.Location()

		from := engine.DateOnly(nowFunc())
		if taskCalendarFrom != "" {
			t, err := parseLocalTime(taskCalendarFrom, loc)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			from = t
		}
		if taskCalendarDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		to := engine.EndOfDay(engine.AddDays(from, taskCalendarDays-1))

		occurrences, err := ScheduleMgr.Occurrences(commandContext(cmd), args[0], from, to)
		if err != nil {
			return fmt.Errorf("listing occurrences: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(occurrences) == 0 {
			fmt.Fprintln(out, "No scheduled occurrences in range.")
			return nil
		}
		for _, at := range occurrences {
			fmt.Fprintf(out, "  %s  %s\n", at.In(loc).Format("Mon"), at.In(loc).Format(displayTimeLayout))
		}
		return nil
	},
}

func printTaskDetails(out io.Writer, t models.TaskDefinition) {
	loc := ScheduleMgr.Engine().Location()
	fmt.Fprintf(out, "  Patient:   %s\n", t.PatientID)
	fmt.Fprintf(out, "  Type:      %s (%s)\n", t.TaskType, t.Category())
	if t.Title != "" {
		fmt.Fprintf(out, "  Title:     %s\n", t.Title)
	}
	fmt.Fprintf(out, "  Frequency: %s\n", schedule.DescribeFrequency(t))
	fmt.Fprintf(out, "  Next due:  %s\n", formatDue(t.NextDueAt, loc))
	fmt.Fprintf(out, "  Last done: %s\n", formatDue(t.LastCompletedAt, loc))
	if t.Notes != "" {
		fmt.Fprintf(out, "  Notes:     %s\n", t.Notes)
	}
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func completeTaskTypes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, name := range taskTypeNames() {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddPatient, "patient", "", "Patient identifier (required)")
	taskAddCmd.Flags().StringVar(&taskAddType, "type", "", "Task type: "+strings.Join(taskTypeNames(), ", "))
	taskAddCmd.Flags().StringVar(&taskAddTitle, "title", "", "Display title")
	taskAddCmd.Flags().StringVar(&taskAddUnit, "unit", string(models.FrequencyDaily), "Frequency unit: hourly, daily, weekly, monthly or yearly")
	taskAddCmd.Flags().IntVar(&taskAddEvery, "every", 1, "Recurrence interval in units")
	taskAddCmd.Flags().StringSliceVar(&taskAddTimes, "times", nil, "Times of day (HH:MM), comma separated")
	taskAddCmd.Flags().IntSliceVar(&taskAddWeekdays, "weekdays", nil, "ISO weekdays 1-7 (Monday=1) for weekly tasks")
	taskAddCmd.Flags().IntSliceVar(&taskAddMonthDays, "monthdays", nil, "Days of month 1-31 for monthly tasks")
	taskAddCmd.Flags().BoolVar(&taskAddOnce, "once", false, "Create a one-time task")
	taskAddCmd.Flags().StringVar(&taskAddFirstDue, "first-due", "", "First due time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	taskAddCmd.Flags().StringVar(&taskAddNotes, "notes", "", "Free-text notes")
	_ = taskAddCmd.MarkFlagRequired("patient")
	_ = taskAddCmd.MarkFlagRequired("type")
	_ = taskAddCmd.RegisterFlagCompletionFunc("type", completeTaskTypes)

	taskListCmd.Flags().StringVar(&taskListPatient, "patient", "", "Only tasks for this patient")
	taskListCmd.Flags().StringSliceVar(&taskListTypes, "type", nil, "Only these task types")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output as JSON")

	taskShowCmd.Flags().IntVar(&taskShowHistory, "history", 5, "Number of recent completions to show")

	taskReconcileCmd.Flags().BoolVar(&taskReconcileAll, "all", false, "Reconcile every task")

	taskCalendarCmd.Flags().StringVar(&taskCalendarFrom, "from", "", "First day (default today)")
	taskCalendarCmd.Flags().IntVar(&taskCalendarDays, "days", 7, "Number of days to list")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskRemoveCmd, taskReconcileCmd, taskCalendarCmd)
	rootCmd.AddCommand(taskCmd)
}
