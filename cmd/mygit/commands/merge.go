package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/dag"
	"github.com/ankitiscracked/mygit/internal/merge"
	"github.com/ankitiscracked/mygit/internal/repo"
	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newMergeCmd()) })
}

func newMergeCmd() *cobra.Command {
	var strategy string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "merge <branchName>",
		Short: "Merge another branch into the active branch",
		Long: `Merge the named branch into the branch you have checked out.

If the active branch has not moved since the two branches forked, its
history is fast-forwarded to the other branch's tip and the working tree
is replaced with that snapshot.

Otherwise a three-way merge builds a new version from the common
ancestor: the active branch's changes are applied first, then the other
branch's. Files whose changes cannot be combined are reported and no
version is recorded; changes that did apply are left in the working tree
so you can finish the merge by hand and commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, args[0], strategy, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "File merge strategy: patch or diff3 (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

func runMerge(cmd *cobra.Command, name, strategy string, jsonOutput bool) error {
	h, err := openRepo(cmd)
	if err != nil {
		return err
	}

	var opts []merge.Option
	if strategy != "" {
		m, err := merge.MergerByName(strategy, h.Config().Merge.Context)
		if err != nil {
			return err
		}
		opts = append(opts, merge.WithMerger(m))
	}
	e, err := merge.New(h, opts...)
	if err != nil {
		return err
	}

	res, runErr := e.Run(name)
	out := cmd.OutOrStdout()

	if jsonOutput {
		return printMergeJSON(cmd, res, runErr)
	}

	if runErr != nil {
		return reportMergeError(cmd, h, name, res, runErr)
	}

	switch res.Relation {
	case dag.UpToDate:
		fmt.Fprintln(out, "Already up to date!")
	case dag.FastForward:
		fmt.Fprintf(out, "Updating %s..%s\n", dag.ShortID(res.ReceivingTip), dag.ShortID(res.IncomingTip))
		fmt.Fprintln(out, "Fast-forward")
		printFileStats(out, res.Files)
	case dag.ThreeWay:
		printFileStats(out, res.Files)
		fmt.Fprintln(out)
		fmt.Fprintln(out, dag.RenderDiagram(diagramFor(res, 0)))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s Merged %s into %s (%s)\n", ui.Green("✓"),
			ui.Branch(res.Incoming.Name), ui.Branch(res.Receiving.Name), ui.Version(string(res.Version)))
	}
	return nil
}

func reportMergeError(cmd *cobra.Command, h *repo.Handle, name string, res *merge.Result, err error) error {
	errOut := cmd.ErrOrStderr()
	name = strings.TrimSpace(name)

	switch {
	case errors.Is(err, branch.ErrUnknownBranch):
		fmt.Fprintf(errOut, "%s is unknown. See 'mygit branch --list' for available branches\n", name)
		if names, nerr := h.Branches().Names(); nerr == nil {
			if suggestions := suggestBranches(name, names); len(suggestions) > 0 {
				fmt.Fprintf(errOut, "\nDid you mean:\n")
				for _, s := range suggestions {
					fmt.Fprintf(errOut, "  %s\n", ui.Branch(s))
				}
			}
		}
	case errors.Is(err, merge.ErrNothingToMerge):
		fmt.Fprintln(errOut, ui.Red("Branch: "+name+" has nothing to merge."))
	case errors.Is(err, merge.ErrUnrelatedHistories):
		fmt.Fprintln(errOut, ui.Error("Branches have unrelated history and cannot be merged"))
	case errors.Is(err, store.ErrMissingSnapshot):
		fmt.Fprintln(errOut, ui.Red("Merge could not complete due to missing repository!"))
		fmt.Fprintf(errOut, "  %v\n", err)
	case errors.Is(err, merge.ErrConflicts) && res != nil:
		printConflicts(cmd, res)
	default:
		return err
	}

	cmd.SilenceErrors = true
	return SilentExit(1)
}

func printConflicts(cmd *cobra.Command, res *merge.Result) {
	out := cmd.OutOrStdout()
	report := res.Conflicts

	fmt.Fprintln(out, "Merge encountered conflicts in the following paths:")
	for _, p := range report.Paths() {
		fmt.Fprintf(out, "  %s\n", ui.Red(p))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Bold(report.FormatSummary()))
	fmt.Fprint(out, ui.Dim(report.Format()))
	fmt.Fprintln(out)
	fmt.Fprintln(out, dag.RenderDiagram(diagramFor(res, len(report.Paths()))))
	fmt.Fprintln(out)
	if res.ConflictsFile != "" {
		fmt.Fprintf(out, "Conflict details written to %s\n", res.ConflictsFile)
	}
	fmt.Fprintln(out, "Changes could not be merged for above path.")
	fmt.Fprintln(out, "You can manually apply changes then commit.")
}

func printFileStats(w io.Writer, files []merge.FileStat) {
	for _, f := range files {
		fmt.Fprintf(w, "%s: %s %s%s\n", f.Path, ui.DiffStat(f.Added, f.Removed),
			ui.Green(strings.Repeat("+", f.Added)), ui.Red(strings.Repeat("-", f.Removed)))
	}
}

func diagramFor(res *merge.Result, conflictCount int) dag.Diagram {
	return dag.Diagram{
		Receiving:     res.Receiving.Name,
		Incoming:      res.Incoming.Name,
		ReceivingTip:  res.ReceivingTip,
		IncomingTip:   res.IncomingTip,
		Ancestor:      res.Ancestor,
		Merged:        res.Version,
		Message:       res.Message,
		ConflictCount: conflictCount,
		Colorize:      ui.Enabled(),
	}
}

// suggestBranches returns up to three branch names close to name.
func suggestBranches(name string, names []string) []string {
	if name == "" {
		return nil
	}
	matches := fuzzy.Find(name, names)
	var out []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

type mergeJSON struct {
	*merge.Result
	Error string `json:"error,omitempty"`
}

func printMergeJSON(cmd *cobra.Command, res *merge.Result, runErr error) error {
	payload := mergeJSON{Result: res}
	if payload.Result == nil {
		payload.Result = &merge.Result{}
	}
	if runErr != nil {
		payload.Error = runErr.Error()
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	if runErr != nil {
		cmd.SilenceErrors = true
		return SilentExit(1)
	}
	return nil
}
