package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ankitiscracked/mygit/internal/ui"
)

var (
	// Version information
	Version   = "0.0.1"
	BuildTime = "dev"
	GitCommit = "unknown"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	noColor bool
	verbose bool
	dir     string
}

var flags globalFlags

var rootCmd = newRootCmd()

type registrar func(*cobra.Command)

var registrars []registrar

func register(r registrar) {
	registrars = append(registrars, r)
	if rootCmd != nil {
		r(rootCmd)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mygit",
		Short: "mygit - a small local version control tool",
		Long: `mygit keeps full snapshots of a project in .mygit and tracks them on
named branches.

It provides:
  - Branches with a linear activity log each
  - Fast-forward merges when the active branch has not moved
  - Three-way merges with per-file conflict reporting`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor || os.Getenv("NO_COLOR") != "" {
				ui.Disable()
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug details to stderr")
	cmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", "", "Run as if started in this directory")
	return cmd
}

func NewRootCmd() *cobra.Command {
	flags = globalFlags{}
	cmd := newRootCmd()
	for _, r := range registrars {
		r(cmd)
	}
	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mygit version %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newVersionCmd()) })
}
