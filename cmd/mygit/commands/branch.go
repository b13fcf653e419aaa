package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankitiscracked/mygit/internal/dag"
	"github.com/ankitiscracked/mygit/internal/ui"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newBranchCmd()) })
}

func newBranchCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List branches",
		Long:  "List every branch with its tip version. The active branch is marked with '*'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranchList(cmd)
		},
	}
	cmd.Flags().BoolVar(&list, "list", true, "List branches")

	return cmd
}

func runBranchList(cmd *cobra.Command) error {
	h, err := openRepo(cmd)
	if err != nil {
		return err
	}
	branches := h.Branches()

	mappings, err := branches.Mappings()
	if err != nil {
		return err
	}
	active, err := branches.ActiveBranchID()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range mappings {
		marker := "  "
		name := m.Name
		if m.ID == active {
			marker = "* "
			name = ui.Green(name)
		}
		tip := "(no versions)"
		if log, err := branches.ActivityLog(m.ID); err == nil && len(log) > 0 {
			tip = ui.Version(dag.ShortID(log[0]))
		}
		fmt.Fprintf(out, "%s%s %s\n", marker, name, ui.Dim(tip))
	}
	return nil
}
