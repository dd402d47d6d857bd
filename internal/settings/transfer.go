package settings

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/glint/internal/rules"
)

// ruleFileVersion is written at the top of exported rule files.
const ruleFileVersion = 1

type ruleFile struct {
	Version  int        `yaml:"version"`
	Patterns rules.List `yaml:"patterns"`
}

// Export writes l as a YAML rule file.
func Export(w io.Writer, l rules.List) error {
	if l == nil {
		l = rules.List{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ruleFile{Version: ruleFileVersion, Patterns: l}); err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML rule file. The result is untyped so that it can be
// repaired by rules.NormalizeAndMerge. Both the exported form and a bare
// sequence of rules are accepted.
func Import(r io.Reader) (any, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []any{}, nil
		}
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		patterns, ok := v["patterns"]
		if !ok {
			return nil, errors.New("decoding rules: no patterns key")
		}
		if patterns == nil {
			return []any{}, nil
		}
		return patterns, nil
	case nil:
		return []any{}, nil
	default:
		return nil, fmt.Errorf("decoding rules: unexpected %T at top level", doc)
	}
}
