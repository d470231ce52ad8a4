package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and where to install the
// completion script for one shell.
type shellCompletion struct {
	generate func(w io.Writer) error
	// target returns the install path under home. Nil means the shell has
	// no automatic install.
	target  func(home string) string
	loadCmd string
}

var completionShells = map[string]shellCompletion{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "careclock")
		},
		loadCmd: `eval "$(careclock completion bash)"`,
	},
	"zsh": {
		generate: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_careclock")
		},
		loadCmd: `eval "$(careclock completion zsh)"`,
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "careclock.fish")
		},
		loadCmd: "careclock completion fish | source",
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		loadCmd:  "careclock completion powershell | Out-String | Invoke-Expression",
	},
}

func supportedShells() []string {
	shells := make([]string, 0, len(completionShells))
	for name := range completionShells {
		shells = append(shells, name)
	}
	sort.Strings(shells)
	return shells
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print or install shell completions for careclock",
	Long: `Print the careclock completion script for a shell, or install it into
the user's completion directory with --install.

Supported shells: bash, fish, powershell, zsh`,
	ValidArgs: supportedShells(),
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into the user's completion directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := completionShells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: %v)", args[0], supportedShells())
	}

	if completionInstall {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		return installCompletion(cmd, args[0], shell, home)
	}

	// The hint goes to stderr so the script can be piped.
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "# Load in the current session with:\n#   %s\n", shell.loadCmd)
	return shell.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, shell shellCompletion, home string) error {
	if shell.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; add '%s' to your profile", name, shell.loadCmd)
	}
	target := shell.target(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := shell.generate(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	if name == "zsh" {
		_, _ = fmt.Fprintf(out, "Make sure %s is in your fpath.\n", filepath.Dir(target))
	}
	return nil
}
