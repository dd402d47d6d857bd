package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/glint/internal/coordinator"
	"github.com/zjrosen/glint/internal/document"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/ui/preview"
)

var viewCmd = &cobra.Command{
	Use:   "view FILE",
	Short: "Open an interactive, live preview of a highlighted file",
	Long: `Open FILE in a scrollable preview that repaints whenever the file or the
stored settings change.

Keys:
  j/k, up/down  scroll
  g/G           top/bottom
  t             toggle highlighting (saved to the settings store)
  d             show rules that failed to compile
  q             quit`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("glint-view", true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	host := document.NewHost(document.WithDebounce(cfg.Watch.Debounce))
	defer host.Close()
	if _, err := host.Open(ctx, args[0]); err != nil {
		return err
	}

	surface := preview.NewSurface()
	coord := coordinator.New(a.engine,
		coordinator.WithDebounce(cfg.Watch.Debounce),
		coordinator.WithTracer(a.tracing.Tracer()),
		coordinator.WithSnapshot(a.manager.Snapshot()),
		coordinator.WithDocument(host.Current()),
	)

	model := preview.New(ctx, surface, a.palette,
		preview.WithToggle(func(enabled bool) error {
			_, err := a.manager.SetEnabled(ctx, enabled)
			return err
		}),
	)

	go func() {
		if err := coord.Run(ctx, host, a.manager); err != nil {
			log.ErrorErr(log.CatCoord, "coordinator stopped", err)
		}
	}()
	go func() {
		if err := host.Watch(ctx); err != nil {
			log.ErrorErr(log.CatWatcher, "document watch stopped", err)
		}
	}()
	go func() {
		if err := watchSettings(ctx, a); err != nil {
			log.ErrorErr(log.CatWatcher, "settings watch stopped", err)
		}
	}()

	if err := coord.Attach(ctx, "preview", surface); err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	cancel()
	_ = coord.Detach("preview")
	if err != nil {
		return fmt.Errorf("running preview: %w", err)
	}
	return nil
}
