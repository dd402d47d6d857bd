package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled)
	require.Equal(t, "file", cfg.Exporter)
	require.Empty(t, cfg.FilePath)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), SpanHighlightPass)
	require.False(t, span.SpanContext().IsValid(), "no-op spans carry no ids")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterWritesPass(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces", "glint.jsonl")

	provider, err := NewProvider(Config{
		Enabled:  true,
		Exporter: "file",
		FilePath: tracePath,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	ctx, parent := provider.Tracer().Start(context.Background(), SpanCoordinatorPass)
	_, child := provider.Tracer().Start(ctx, SpanHighlightPass)
	require.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	child.End()
	parent.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	content, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	require.Contains(t, string(content), `"name":"highlight.pass"`)
	require.Contains(t, string(content), `"name":"coordinator.pass"`)
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"stdout", Config{Enabled: true, Exporter: "stdout"}, ""},
		{"none", Config{Enabled: true, Exporter: "none"}, ""},
		{"empty means none", Config{Enabled: true}, ""},
		{"file without path", Config{Enabled: true, Exporter: "file"}, "file_path required"},
		{"unknown", Config{Enabled: true, Exporter: "zipkin"}, "unsupported exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Nil(t, provider)
				return
			}
			require.NoError(t, err)
			require.True(t, provider.Enabled())

			_, span := provider.Tracer().Start(context.Background(), SpanSettingsSave)
			require.True(t, span.SpanContext().IsValid())
			span.End()
			require.NoError(t, provider.Shutdown(context.Background()))
		})
	}
}

func TestNoop_TracerIsStable(t *testing.T) {
	p := Noop()
	require.Equal(t, p.Tracer(), p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}
