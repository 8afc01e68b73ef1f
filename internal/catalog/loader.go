package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog layout. JSON files parse too, since JSON is valid YAML.
type File struct {
	Items []Item `yaml:"items" json:"items"`
}

// Load reads a YAML or JSON catalog file and validates every row.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("catalog file %s has no items", path)
	}

	return New(f.Items)
}

// LoadOrDefault loads path when set, otherwise returns the built-in catalog.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// WriteYAML encodes items in the layout Load expects.
func WriteYAML(w io.Writer, items []Item) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Items: items}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
