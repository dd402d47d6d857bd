package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalizeAndMerge_NilReturnsDefaultsCopy(t *testing.T) {
	defaults := Defaults()
	got, issues := NormalizeAndMerge(nil, defaults)

	require.Empty(t, issues)
	require.Equal(t, defaults, got)

	got[0].Name = "changed"
	require.NotEqual(t, "changed", defaults[0].Name, "result must not alias defaults")
}

func TestNormalizeAndMerge_NotAList(t *testing.T) {
	got, issues := NormalizeAndMerge(map[string]any{"id": "x"}, Defaults())

	require.Equal(t, Defaults(), got)
	require.Len(t, issues, 1)
	require.Equal(t, -1, issues[0].Index)
}

func TestNormalizeAndMerge_OverlaysDefaultFieldByField(t *testing.T) {
	loaded := []any{
		map[string]any{
			"id":      "dj-numbers",
			"enabled": false,
			"color":   "#000000",
			"cls":     "   ", // blank: rejected
			"regex":   42.0,  // wrong type: rejected
			"extra":   "ignored",
		},
	}

	got, issues := NormalizeAndMerge(loaded, Defaults())

	require.Len(t, got, len(Defaults()))
	i := got.Index("dj-numbers")
	require.Equal(t, Defaults().Index("dj-numbers"), i, "default order is kept")

	want := Defaults()[i]
	want.Enabled = false
	want.Color = "#000000"
	require.Equal(t, want, got[i])

	fields := make([]string, 0, len(issues))
	for _, is := range issues {
		fields = append(fields, is.Field)
	}
	require.ElementsMatch(t, []string{"cls", "regex"}, fields)
}

func TestNormalizeAndMerge_UserRulesAppendedWithScaffold(t *testing.T) {
	defaults := Defaults()
	loaded := []any{
		map[string]any{"id": "mine", "regex": `TODO`},
		map[string]any{"id": "dj-comment", "color": "#123456"},
		map[string]any{"name": "no id", "regex": "x", "flags": "g"},
	}

	got, _ := NormalizeAndMerge(loaded, defaults)
	require.Len(t, got, len(defaults)+2)
	require.Equal(t, "#123456", got[0].Color)

	mine := got[len(defaults)]
	require.Equal(t, PatternRule{
		ID:      "mine",
		Name:    "Pattern 17",
		Enabled: true,
		Regex:   "TODO",
		Flags:   DefaultFlags,
		Class:   DefaultClass,
		Color:   DefaultColor,
	}, mine)

	anon := got[len(defaults)+1]
	require.True(t, strings.HasPrefix(anon.ID, IDPrefix))
	require.Equal(t, "no id", anon.Name)
	require.Equal(t, "g", anon.Flags)
}

func TestNormalizeAndMerge_DropsGarbageAndDuplicates(t *testing.T) {
	loaded := []any{
		"nonsense",
		nil,
		map[string]any{},
		map[string]any{"id": "mine", "regex": "a"},
		map[string]any{"id": "mine", "regex": "b"},
		map[string]any{"id": "dj-comment", "name": "first"},
		map[string]any{"id": "dj-comment", "name": "second"},
	}

	got, issues := NormalizeAndMerge(loaded, Defaults())

	require.Equal(t, "first", got[got.Index("dj-comment")].Name)
	require.Equal(t, "a", got[got.Index("mine")].Regex)
	require.Len(t, got, len(Defaults())+1)

	dropped := 0
	for _, is := range issues {
		if strings.HasSuffix(is.Reason, "dropped") {
			dropped++
		}
	}
	require.Equal(t, 5, dropped)
}

func TestNormalizeAndMerge_EmptyListKeepsDefaults(t *testing.T) {
	got, issues := NormalizeAndMerge([]any{}, Defaults())
	require.Empty(t, issues)
	require.Equal(t, Defaults(), got)
}

func TestNormalizeAndMerge_RoundTrip(t *testing.T) {
	defaults := Defaults()
	list, _ := NormalizeAndMerge([]any{
		map[string]any{"id": "user-a", "name": "A", "regex": "a+", "flags": "gi", "cls": "a", "color": "var(--a)", "enabled": false},
		map[string]any{"id": "user-b", "regex": "(?<w>b)", "captureGroup": "w"},
	}, defaults)

	again, issues := NormalizeAndMerge(list, defaults)
	require.Empty(t, issues)
	require.Equal(t, list, again)
	require.Equal(t, list.IDs(), again.IDs())
}

func TestIssue_String(t *testing.T) {
	is := Issue{Index: 3, ID: "mine", Field: "cls", Reason: "blank"}
	require.Equal(t, "entry 3 (mine) field cls: blank", is.String())
	require.Equal(t, "customPatterns: bad", Issue{Index: -1, Reason: "bad"}.String())
}

func genValue(t *rapid.T, label string) any {
	switch rapid.IntRange(0, 5).Draw(t, label+"-kind") {
	case 0:
		return rapid.SampledFrom([]string{"", " ", "x", "#fff", "gm", "1"}).Draw(t, label+"-str")
	case 1:
		return rapid.Bool().Draw(t, label+"-bool")
	case 2:
		return rapid.Float64Range(-3, 3).Draw(t, label+"-num")
	case 3:
		return nil
	case 4:
		return []any{"nested"}
	default:
		return map[string]any{"k": "v"}
	}
}

func genEntry(t *rapid.T, i int) any {
	if rapid.IntRange(0, 9).Draw(t, "garbage") == 0 {
		return "garbage"
	}
	obj := map[string]any{}
	ids := append(Defaults().IDs(), "user-1", "user-2", "", "dj-comment")
	if rapid.Bool().Draw(t, "has-id") {
		obj["id"] = rapid.SampledFrom(ids).Draw(t, "id")
	}
	for _, f := range ruleFields {
		if rapid.Bool().Draw(t, "has-"+f.key) {
			obj[f.key] = genValue(t, f.key)
		}
	}
	return obj
}

func TestNormalizeAndMerge_IdempotentProperty(t *testing.T) {
	defaults := Defaults()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		loaded := make([]any, n)
		for i := range loaded {
			loaded[i] = genEntry(t, i)
		}

		once, _ := NormalizeAndMerge(loaded, defaults)
		twice, issues := NormalizeAndMerge(once, defaults)

		require.Equal(t, once, twice)
		require.Empty(t, issues)

		seen := map[string]bool{}
		for _, r := range once {
			require.NotEmpty(t, r.ID)
			require.False(t, seen[r.ID], "duplicate id %s", r.ID)
			seen[r.ID] = true
			require.NotEmpty(t, strings.TrimSpace(r.Name))
			require.NotEmpty(t, strings.TrimSpace(r.Class))
			require.NotEmpty(t, strings.TrimSpace(r.Color))
		}
		require.Equal(t, defaults.IDs(), once.IDs()[:len(defaults)])
	})
}
