package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// SavePalette replaces render.palette in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SavePalette(configPath string, palette map[string]string) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: user config path
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	setPath(&doc, []string{"render", "palette"}, buildPaletteNode(palette))

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// SetPaletteColor adds or replaces one palette entry and saves the result.
// The returned map is the palette that was written.
func SetPaletteColor(configPath string, current map[string]string, name, color string) (map[string]string, error) {
	next := make(map[string]string, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[name] = color
	if err := ValidateRender(RenderConfig{Palette: next}); err != nil {
		return nil, err
	}
	if err := SavePalette(configPath, next); err != nil {
		return nil, err
	}
	return next, nil
}

func buildPaletteNode(palette map[string]string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if len(palette) == 0 {
		node.Style = yaml.FlowStyle
	}
	names := make([]string, 0, len(palette))
	for name := range palette {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: palette[name], Style: yaml.DoubleQuotedStyle},
		)
	}
	return node
}

// setPath sets the value at a nested mapping path, creating the document
// and intermediate mappings as needed.
func setPath(doc *yaml.Node, path []string, value *yaml.Node) {
	if doc.Kind == 0 {
		*doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}

	m := doc.Content[0]
	for i, key := range path {
		last := i == len(path)-1
		var child *yaml.Node
		for j := 0; j < len(m.Content)-1; j += 2 {
			if m.Content[j].Value == key {
				child = m.Content[j+1]
				if last {
					m.Content[j+1] = value
				} else if child.Kind != yaml.MappingNode {
					child = &yaml.Node{Kind: yaml.MappingNode}
					m.Content[j+1] = child
				}
				break
			}
		}
		if last {
			if child == nil {
				m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
			}
			return
		}
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
		}
		m = child
	}
}

// writeAtomic writes to a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".glint.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
