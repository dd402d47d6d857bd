package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	Warn(CatRules, "repaired rule", "id", "dj-comment", "field", "color")

	out := buf.String()
	require.Contains(t, out, "[WARN] [rules] repaired rule")
	require.Contains(t, out, "id=dj-comment")
	require.Contains(t, out, "field=color")
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	Info(CatEngine, "pass", "rules")

	require.Contains(t, buf.String(), "rules=<missing>")
}

func TestLog_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)
	t.Cleanup(func() { defaultLogger = nil })

	Debug(CatCoord, "dropped")
	Info(CatCoord, "dropped too")
	require.Empty(t, buf.String())

	ErrorErr(CatCoord, "surface failed", nil, "surface", "preview")
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	SetEnabled(false)
	Error(CatStore, "ignored")
	require.Empty(t, buf.String())
}

func TestLog_NoLogger(t *testing.T) {
	defaultLogger = nil
	require.NotPanics(t, func() { Info(CatUI, "nobody listening") })
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}
