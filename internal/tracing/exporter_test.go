package tracing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/glint/internal/json"
)

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var out []SpanRecord
	decoder := json.NewDecoder(file)
	for {
		var record SpanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		out = append(out, record)
	}
	return out
}

func passStub() tracetest.SpanStub {
	start := time.Now()
	return tracetest.SpanStub{
		Name:      SpanHighlightPass,
		SpanKind:  trace.SpanKindInternal,
		StartTime: start,
		EndTime:   start.Add(3 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Ok},
		Attributes: []attribute.KeyValue{
			attribute.Int(AttrRuleCount, 16),
			attribute.Int(AttrSpanCount, 42),
			attribute.Int(AttrDiagnosticCount, 1),
		},
		Events: []sdktrace.Event{{
			Name:       EventRuleFailed,
			Time:       start.Add(time.Millisecond),
			Attributes: []attribute.KeyValue{attribute.String(AttrRuleID, "user-1")},
		}},
	}
}

func TestNewFileExporter_CreatesParentDirectories(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	_, err = os.Stat(tracePath)
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))
}

func TestNewFileExporter_AppendsToExistingFile(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(tracePath, []byte(`{"name":"earlier"}`+"\n"), 0644))

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)
	stub := passStub()
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.Shutdown(context.Background()))

	records := readRecords(t, tracePath)
	require.Len(t, records, 2)
	require.Equal(t, "earlier", records[0].Name)
	require.Equal(t, SpanHighlightPass, records[1].Name)
}

func TestFileExporter_WritesRecord(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	stub := passStub()
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.Shutdown(context.Background()))

	records := readRecords(t, tracePath)
	require.Len(t, records, 1)
	record := records[0]

	require.Equal(t, "INTERNAL", record.Kind)
	require.Equal(t, "OK", record.Status)
	require.InDelta(t, 3.0, record.DurationMs, 0.001)
	require.EqualValues(t, 16, record.Attributes[AttrRuleCount])
	require.EqualValues(t, 42, record.Attributes[AttrSpanCount])
	require.Len(t, record.Events, 1)
	require.Equal(t, EventRuleFailed, record.Events[0].Name)
	require.Equal(t, "user-1", record.Events[0].Attributes[AttrRuleID])
	require.InDelta(t, 1.0, record.Events[0].OffsetMs, 0.001)
	require.False(t, record.Start.IsZero())
}

func TestFileExporter_ErrorStatus(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	stub := tracetest.SpanStub{
		Name:   SpanSettingsSave,
		Status: sdktrace.Status{Code: codes.Error, Description: "disk full"},
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.Shutdown(context.Background()))

	records := readRecords(t, tracePath)
	require.Len(t, records, 1)
	require.Equal(t, "ERROR", records[0].Status)
	require.Equal(t, "disk full", records[0].StatusMsg)
	require.Empty(t, records[0].Attributes)
}

func TestFileExporter_ThreadSafe(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				stub := passStub()
				_ = exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, exporter.Shutdown(context.Background()))

	require.Len(t, readRecords(t, tracePath), workers*perWorker)
}

func TestFileExporter_ShutdownIdempotent(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	stub := passStub()
	require.ErrorIs(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}), ErrExporterClosed)
}

func TestWriterExporter_Kinds(t *testing.T) {
	tests := []struct {
		kind     trace.SpanKind
		expected string
	}{
		{trace.SpanKindInternal, "INTERNAL"},
		{trace.SpanKindServer, "SERVER"},
		{trace.SpanKindClient, "CLIENT"},
		{trace.SpanKindProducer, "PRODUCER"},
		{trace.SpanKindConsumer, "CONSUMER"},
		{trace.SpanKindUnspecified, "UNSPECIFIED"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := NewWriterExporter(&buf)
			stub := tracetest.SpanStub{Name: SpanHighlightPass, SpanKind: tt.kind}
			require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))

			var record SpanRecord
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			require.Equal(t, tt.expected, record.Kind)
			require.Equal(t, "UNSET", record.Status)
		})
	}
}

func TestWriterExporter_ShutdownLeavesWriterOpen(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	exporter := NewWriterExporter(f)
	require.NoError(t, exporter.Shutdown(context.Background()))

	_, err = f.WriteString("still open\n")
	require.NoError(t, err)
}
