package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/glint/internal/json"
	"github.com/zjrosen/glint/internal/rules"
	"github.com/zjrosen/glint/internal/settings"
	"github.com/zjrosen/glint/internal/ui/markdown"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List and edit highlighting rules",
	Long: `List and edit the ordered rule list. Rules later in the list win where
matches overlap. Built-in rules can be edited and disabled but not removed
or moved; user rules always follow them.`,
}

var (
	rulesListRaw  bool
	rulesListJSON bool
	rulesListWrap int

	ruleInput    rules.PatternRule
	ruleDisabled bool

	doctorFix bool
)

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the rules in precedence order",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		snap := a.manager.Snapshot()
		if rulesListJSON {
			data, err := json.MarshalIndent(snap.Rules, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		diags := a.invalidRules(snap.Rules)
		if rulesListRaw {
			doc := markdown.Listing(snap.Rules, snap.Enabled, a.manager.IsBuiltin, diags)
			_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		}
		r, err := markdown.New(rulesListWrap)
		if err != nil {
			return err
		}
		out, err := r.RenderRules(snap.Rules, snap.Enabled, a.manager.IsBuiltin, diags)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}),
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a user rule",
	Long: `Append a user rule. Blank name, class and color are filled in
("Pattern N", custom-dj-highlight, #FFFFFF).

Example:
  glint rules add --regex 'TODO|FIXME' --color '#FF8800' --name Todos`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		r := ruleInput
		r.Enabled = !ruleDisabled
		if !cmd.Flags().Changed("flags") {
			r.Flags = rules.DefaultFlags
		}
		if err := a.engine.Validate(r); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}

		var added rules.PatternRule
		_, err := a.manager.Mutate(cmd.Context(), func(s *rules.Store) error {
			var err error
			added, err = s.Add(r)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), added.ID)
		return nil
	}),
}

var rulesEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of a rule",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		_, err := a.manager.Mutate(cmd.Context(), func(s *rules.Store) error {
			r, err := s.Get(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("name") {
				r.Name = ruleInput.Name
			}
			if f.Changed("regex") {
				r.Regex = ruleInput.Regex
			}
			if f.Changed("flags") {
				r.Flags = ruleInput.Flags
			}
			if f.Changed("class") {
				r.Class = ruleInput.Class
			}
			if f.Changed("color") {
				r.Color = ruleInput.Color
			}
			if f.Changed("group") {
				r.CaptureGroup = ruleInput.CaptureGroup
			}
			if f.Changed("disabled") {
				r.Enabled = !ruleDisabled
			}
			if err := a.engine.Validate(r); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			return s.Update(r)
		})
		return err
	}),
}

var rulesRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove a user rule",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		_, err := a.manager.Mutate(cmd.Context(), func(s *rules.Store) error {
			return s.Remove(args[0])
		})
		if errors.Is(err, rules.ErrBuiltin) {
			return fmt.Errorf("%w (use 'glint rules disable %s')", err, args[0])
		}
		return err
	}),
}

func setEnabledCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, err := a.manager.Mutate(cmd.Context(), func(s *rules.Store) error {
				for _, id := range args {
					if err := s.SetEnabled(id, enabled); err != nil {
						return err
					}
				}
				return nil
			})
			return err
		}),
	}
}

var rulesMoveCmd = &cobra.Command{
	Use:   "move ID INDEX",
	Short: "Move a user rule to a 0-based position",
	Long: `Move a user rule to INDEX in the list. The position is clamped to the
user section, which follows the built-in rules.

Built-in rules keep their default order and cannot be moved; every load
restores it. To let a user rule take precedence over a built-in one, keep it
anywhere in the user section (later rules win), or disable the built-in rule
with 'glint rules disable ID'.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[1], err)
		}
		_, err = a.manager.Mutate(cmd.Context(), func(s *rules.Store) error {
			return s.Move(args[0], index)
		})
		return err
	}),
}

var rulesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in rules, dropping user rules",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		_, err := a.manager.Reset(cmd.Context())
		return err
	}),
}

var rulesDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Show how the stored settings would be repaired",
	Long: `Compare the stored settings with their repaired form and list every
problem found. With --fix the repaired form is written back.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		out := cmd.OutOrStdout()
		raw, ok, err := a.kv.Get(cmd.Context(), settings.Key)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "no stored settings; built-in defaults are in use")
			return nil
		}

		report, err := settings.Doctor(raw, rules.Defaults())
		if err != nil {
			return err
		}
		if report.Clean() {
			fmt.Fprintln(out, "settings are healthy")
			return nil
		}
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "- %s\n", issue)
		}
		if report.Diff != "" {
			fmt.Fprintf(out, "\n%s", report.Diff)
		}
		if !doctorFix {
			return nil
		}
		if err := a.manager.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "repaired settings written")
		return nil
	}),
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write the rules as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		list := a.manager.Snapshot().Rules
		if len(args) == 0 || args[0] == "-" {
			return settings.Export(cmd.OutOrStdout(), list)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		if err := settings.Export(f, list); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}),
}

var rulesImportCmd = &cobra.Command{
	Use:   "import FILE|-",
	Short: "Replace the rules with a YAML rule file",
	Long: `Replace the rule list with the rules in FILE. Built-in rules missing from
the file are restored; repairs are reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		r := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()
			r = f
		}
		loaded, err := settings.Import(r)
		if err != nil {
			return err
		}
		snap, issues, err := a.manager.ImportRules(cmd.Context(), loaded)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "repaired: %s\n", issue)
		}
		printDiagnostics(cmd.ErrOrStderr(), a.invalidRules(snap.Rules))
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", len(snap.Rules))
		return nil
	}),
}

// withApp opens the settings store for the duration of run.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cleanup, err := initLogging("glint", false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

func addRuleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&ruleInput.ID, "id", "", "rule id (default: generated)")
	f.StringVar(&ruleInput.Name, "name", "", "display name")
	f.StringVar(&ruleInput.Regex, "regex", "", "ECMAScript regular expression")
	f.StringVar(&ruleInput.Flags, "flags", "", "regex flags from g, i, m, s, u (default \"gm\" for new rules)")
	f.StringVar(&ruleInput.Class, "class", "", "style class")
	f.StringVar(&ruleInput.Color, "color", "", "color: #hex, var(--name) or a CSS color")
	f.StringVar(&ruleInput.CaptureGroup, "group", "", "capture group number or name to highlight")
	f.BoolVar(&ruleDisabled, "disabled", false, "store the rule disabled")
}

func init() {
	rulesListCmd.Flags().BoolVar(&rulesListRaw, "raw", false, "print the markdown source")
	rulesListCmd.Flags().BoolVar(&rulesListJSON, "json", false, "print the rules as JSON")
	rulesListCmd.Flags().IntVar(&rulesListWrap, "width", 100, "wrap width for rendered output")

	addRuleFlags(rulesAddCmd)
	_ = rulesAddCmd.MarkFlagRequired("regex")
	addRuleFlags(rulesEditCmd)
	rulesEditCmd.Flags().Lookup("id").Hidden = true

	rulesDoctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "write the repaired settings")

	rulesCmd.AddCommand(
		rulesListCmd,
		rulesAddCmd,
		rulesEditCmd,
		rulesRemoveCmd,
		setEnabledCmd("enable", "Enable rules", true),
		setEnabledCmd("disable", "Disable rules", false),
		rulesMoveCmd,
		rulesResetCmd,
		rulesDoctorCmd,
		rulesExportCmd,
		rulesImportCmd,
	)
	rootCmd.AddCommand(rulesCmd)
}
