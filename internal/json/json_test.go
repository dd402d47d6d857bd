package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripGenericValue(t *testing.T) {
	var v map[string]any
	require.NoError(t, Unmarshal([]byte(`{"enabled":true,"n":1,"list":[{"id":"a"}]}`), &v))

	assert.Equal(t, true, v["enabled"])
	assert.Equal(t, float64(1), v["n"])
	assert.IsType(t, []any{}, v["list"])
	assert.IsType(t, map[string]any{}, v["list"].([]any)[0])
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.False(t, Valid([]byte(`{"a":`)))
}

func TestIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Indent(&buf, []byte(`{"a":[1,2]}`), "", "  "))
	assert.True(t, Valid(buf.Bytes()))
	assert.Contains(t, buf.String(), "\n  \"a\": [")
}

func TestIndent_NestedObjectsInArrays(t *testing.T) {
	var buf bytes.Buffer
	src := []byte(`{"customPatterns":[{"id":"a","cls":"x"}],"enabled":true}`)
	require.NoError(t, Indent(&buf, src, "", "  "))

	want := `{
  "customPatterns": [
    {
      "cls": "x",
      "id": "a"
    }
  ],
  "enabled": true
}`
	assert.Equal(t, want, buf.String())
}

func TestMarshalIndent_NestedObjectsInArrays(t *testing.T) {
	v := map[string]any{"list": []any{map[string]any{"id": "a"}}}
	b, err := MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"list\": [\n    {\n      \"id\": \"a\"\n    }\n  ]\n}", string(b))
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]string{"k": "v"}))

	var got map[string]string
	require.NoError(t, NewDecoder(&buf).Decode(&got))
	assert.Equal(t, map[string]string{"k": "v"}, got)
}
