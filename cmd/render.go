package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/glint/internal/coordinator"
	"github.com/zjrosen/glint/internal/document"
	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/render"
	"github.com/zjrosen/glint/internal/watcher"
)

var (
	renderFormat string
	renderWatch  bool
)

var renderCmd = &cobra.Command{
	Use:   "render FILE|-",
	Short: "Print a highlighted document",
	Long: `Highlight FILE (or standard input for "-") with the stored rules and print
the result.

Formats:
  ansi   terminal colors (default, from render.format)
  html   <pre> with one <span class="..." style="color:..."> per match
  plain  the text unchanged

Rules that fail to compile are reported on stderr and skipped.

Examples:
  glint render main.py
  cat main.py | glint render -
  glint render --format html notes.txt > notes.html
  glint render --watch main.py`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "output format: ansi, html or plain (overrides config)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "repaint when the file or the stored settings change")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("glint-render", false)
	if err != nil {
		return err
	}
	defer cleanup()

	formatName := cfg.Render.Format
	if cmd.Flags().Changed("format") {
		formatName = renderFormat
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	path := args[0]
	if path == "-" && renderWatch {
		return fmt.Errorf("--watch needs a file, not standard input")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.manager.Snapshot()
	if snap.Enabled {
		printDiagnostics(cmd.ErrOrStderr(), a.invalidRules(snap.Rules))
	}

	host := document.NewHost(document.WithDebounce(cfg.Watch.Debounce))
	defer host.Close()

	if path == "-" {
		text, err := document.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
		host.SetText(text)
	} else if _, err := host.Open(ctx, path); err != nil {
		return err
	}

	var opts []render.SurfaceOption
	if renderWatch {
		opts = append(opts, render.WithClearScreen())
	}
	surface := render.NewWriterSurface(cmd.OutOrStdout(), format, a.palette, opts...)

	var failed error
	coord := coordinator.New(a.engine,
		coordinator.WithDebounce(cfg.Watch.Debounce),
		coordinator.WithTracer(a.tracing.Tracer()),
		coordinator.WithSnapshot(snap),
		coordinator.WithDocument(host.Current()),
		coordinator.WithErrorReporter(func(id string, err error) {
			log.ErrorErr(log.CatRender, "surface failed", err, "surface", id)
			failed = err
		}),
	)

	if !renderWatch {
		if err := coord.Attach(ctx, "stdout", surface); err != nil {
			return err
		}
		return failed
	}

	return watchAndRender(ctx, a, host, coord, surface)
}

// watchAndRender keeps the surface current until ctx ends. Document edits
// come from the host's watcher; settings edits made by other glint
// processes come from watching the store's files.
func watchAndRender(ctx context.Context, a *app, host *document.Host, coord *coordinator.Coordinator, surface coordinator.Surface) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	go func() { errCh <- coord.Run(ctx, host, a.manager) }()
	go func() { errCh <- host.Watch(ctx) }()
	go func() { errCh <- watchSettings(ctx, a) }()

	if err := coord.Attach(ctx, "stdout", surface); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}

// watchSettings reloads the manager whenever the store's files change.
func watchSettings(ctx context.Context, a *app) error {
	if len(a.watch) == 0 {
		<-ctx.Done()
		return nil
	}
	w, err := watcher.New(watcher.DefaultConfig(a.watch...))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			changed, issues, err := a.manager.Reload(ctx)
			if err != nil {
				log.ErrorErr(log.CatStore, "reloading settings", err, "path", path)
				continue
			}
			log.Debug(log.CatStore, "settings file changed", "path", path, "changed", changed, "issues", len(issues))
		}
	}
}

func printDiagnostics(w io.Writer, diags []highlight.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}
