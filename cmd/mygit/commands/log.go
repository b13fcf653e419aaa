package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newLogCmd()) })
}

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [branch]",
		Short: "Show a branch's version history",
		Long: `Display the activity log of a branch, newest version first, with each
version's message. Defaults to the active branch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return runLog(cmd, name, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of versions to show (0 = all)")

	return cmd
}

func runLog(cmd *cobra.Command, name string, limit int) error {
	h, err := openRepo(cmd)
	if err != nil {
		return err
	}
	branches := h.Branches()

	var id branch.ID
	if name == "" {
		if id, err = branches.ActiveBranchID(); err != nil {
			return err
		}
		name = branches.Name(id)
	} else if id, err = branches.ResolveSystemName(name); err != nil {
		return err
	}

	log, err := branches.ActivityLog(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(log) == 0 {
		fmt.Fprintf(out, "Branch %s has no versions.\n", ui.Branch(name))
		return nil
	}

	head, _ := branches.ReadHead()
	for i, v := range log {
		if limit > 0 && i >= limit {
			fmt.Fprintln(out, ui.Dim(fmt.Sprintf("... %d more", len(log)-limit)))
			break
		}
		msg, err := h.Versions().Message(v)
		if err != nil {
			msg = ui.Red("(missing)")
		}
		msg, _, _ = strings.Cut(strings.TrimSpace(msg), "\n")

		line := ui.Version(string(v))
		if head.Branch == id && head.Version == v {
			line += " " + ui.Cyan("(HEAD)")
		}
		fmt.Fprintf(out, "%s %s\n", line, msg)
	}
	return nil
}
