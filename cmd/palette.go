package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zjrosen/glint/internal/config"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Manage the colors behind var(--name) rule colors",
}

var paletteListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the configured palette",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names := make([]string, 0, len(cfg.Render.Palette))
		for name := range cfg.Render.Palette {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, cfg.Render.Palette[name])
		}
		return nil
	},
}

var paletteSetCmd = &cobra.Command{
	Use:   "set NAME COLOR",
	Short: "Set a palette color in the config file",
	Long: `Set render.palette.NAME to COLOR (#hex) in the loaded config file. Rules
with color var(--NAME) use it. Comments in the file are kept.

Example:
  glint palette set accent '#FF8800'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configWritePath()
		palette, err := config.SetPaletteColor(path, cfg.Render.Palette, args[0], args[1])
		if err != nil {
			return err
		}
		cfg.Render.Palette = palette
		fmt.Fprintf(cmd.OutOrStdout(), "palette %s = %s (%s)\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	paletteCmd.AddCommand(paletteListCmd, paletteSetCmd)
	rootCmd.AddCommand(paletteCmd)
}
