package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankitiscracked/mygit/internal/config"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newConfigCmd()) })
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change repository settings",
		Long: `Show the effective settings from .mygit/config.toml, with defaults
filled in for anything the file leaves out.

Use 'set' to change a single setting.

Examples:
  mygit config                              # print effective settings
  mygit config set merge.strategy diff3     # merge files with diff3
  mygit config set merge.context 1          # lines of patch context
  mygit config set ignore.patterns "*.log,build/"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openRepo(cmd)
			if err != nil {
				return err
			}
			return config.Write(cmd.OutOrStdout(), h.Config())
		},
	}

	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: fmt.Sprintf(`Change one setting and save it to .mygit/config.toml.

Valid keys: %s`, strings.Join(config.Keys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openRepo(cmd)
			if err != nil {
				return err
			}
			cfg := h.Config()
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(h.ControlDir(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}
