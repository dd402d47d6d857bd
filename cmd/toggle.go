package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:       "toggle [on|off]",
	Short:     "Turn highlighting on or off everywhere",
	Long:      `Set the master highlighting switch. Without an argument the current state is flipped.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		enabled := !a.manager.Snapshot().Enabled
		if len(args) == 1 {
			enabled = args[0] == "on"
		}
		snap, err := a.manager.SetEnabled(cmd.Context(), enabled)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "highlighting %s\n", onOff(snap.Enabled))
		return nil
	}),
}

var textColorCmd = &cobra.Command{
	Use:   "text-color [COLOR|default]",
	Short: "Show or set the color of unhighlighted text",
	Long: `Show or set the default text color. COLOR is a #hex color or var(--name)
resolved through render.palette; "default" uses the terminal's color.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			color := a.manager.Snapshot().DefaultTextColor
			if color == "" {
				color = "default"
			}
			fmt.Fprintln(out, color)
			return nil
		}
		color := args[0]
		if color == "default" {
			color = ""
		}
		if _, err := a.manager.SetDefaultTextColor(cmd.Context(), color); err != nil {
			return err
		}
		fmt.Fprintf(out, "default text color set to %s\n", args[0])
		return nil
	}),
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(toggleCmd, textColorCmd)
}
