package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/glint/internal/config"
	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/infrastructure/sqlite"
	"github.com/zjrosen/glint/internal/kvstore"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/render"
	"github.com/zjrosen/glint/internal/rules"
	"github.com/zjrosen/glint/internal/settings"
	"github.com/zjrosen/glint/internal/tracing"
)

// app holds the services one command invocation needs.
type app struct {
	cfg     config.Config
	kv      kvstore.Store
	watch   []string
	tracing *tracing.Provider
	manager *settings.Manager
	engine  *highlight.Engine
	palette render.Palette
}

// openStore opens the configured settings store. watch lists files whose
// changes mean the stored settings changed.
func openStore(sc config.StoreConfig) (kvstore.Store, []string, error) {
	path := sc.StorePath()
	switch sc.Backend {
	case config.BackendMemory:
		return kvstore.NewMemory(), nil, nil
	case config.BackendSQLite:
		kv, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return kv, []string{path, path + "-wal"}, nil
	default:
		kv, err := kvstore.NewFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening settings directory: %w", err)
		}
		return kv, []string{kv.Path(settings.Key)}, nil
	}
}

// newApp wires the store, tracing, settings manager and engine from cfg and
// loads the stored settings.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	kv, watch, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	tracesPath := cfg.Tracing.FilePath
	if tracesPath == "" {
		tracesPath = config.DefaultTracesFilePath()
	}
	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     tracesPath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	backend := cfg.Store.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	manager := settings.NewManager(kv, rules.Defaults(),
		settings.WithTracer(tp.Tracer()),
		settings.WithBackendName(backend),
	)

	a := &app{
		cfg:     cfg,
		kv:      kv,
		watch:   watch,
		tracing: tp,
		manager: manager,
		engine: highlight.New(
			highlight.WithMatchTimeout(cfg.Engine.MatchTimeout),
			highlight.WithCacheTTL(cfg.Engine.CacheTTL),
			highlight.WithTracer(tp.Tracer()),
		),
		palette: render.NewPalette(cfg.Render.Palette, ""),
	}

	issues, err := manager.Load(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	log.Debug(log.CatStore, "settings loaded", "backend", backend, "issues", len(issues), "path", displayPath(cfg.Store))
	return a, nil
}

func displayPath(sc config.StoreConfig) string {
	if sc.Backend == config.BackendMemory {
		return "(memory)"
	}
	return filepath.Clean(sc.StorePath())
}

// Close releases the manager, store and tracer provider.
func (a *app) Close() {
	a.manager.Close()
	if err := a.kv.Close(); err != nil {
		log.ErrorErr(log.CatStore, "closing store", err)
	}
	if err := a.tracing.Shutdown(context.Background()); err != nil {
		log.ErrorErr(log.CatConfig, "shutting down tracing", err)
	}
}

// invalidRules returns a diagnostic for every enabled rule that fails to
// compile.
func (a *app) invalidRules(list rules.List) []highlight.Diagnostic {
	var diags []highlight.Diagnostic
	for _, r := range list.Enabled() {
		if err := a.engine.Validate(r); err != nil {
			diags = append(diags, highlight.Diagnostic{RuleID: r.ID, RuleName: r.Name, Err: err})
		}
	}
	return diags
}
