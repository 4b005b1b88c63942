// Package catalog holds the fixed enumeration of document types the service
// knows how to title. Unknown keys are accepted and shown with a generic label.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed document_types.yaml
var defaultCatalog []byte

// DocumentType is one entry of the enumeration.
type DocumentType struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

type catalogFile struct {
	Fallback DocumentType   `yaml:"fallback"`
	Types    []DocumentType `yaml:"types"`
}

// Catalog maps document type keys to display titles.
type Catalog struct {
	fallback DocumentType
	types    []DocumentType
	byKey    map[string]DocumentType
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded document types: %v", err))
	}
	return c
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if f.Fallback.Key == "" || f.Fallback.Title == "" {
		return nil, fmt.Errorf("catalog fallback key and title are required")
	}

	c := &Catalog{
		fallback: f.Fallback,
		byKey:    make(map[string]DocumentType, len(f.Types)),
	}
	for _, t := range f.Types {
		if t.Key == "" {
			return nil, fmt.Errorf("catalog entry %q has no key", t.Title)
		}
		if _, dup := c.byKey[t.Key]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q", t.Key)
		}
		c.byKey[t.Key] = t
		c.types = append(c.types, t)
	}
	return c, nil
}

// Title returns the display title for key, or the fallback title.
func (c *Catalog) Title(key string) string {
	if t, ok := c.byKey[key]; ok {
		return t.Title
	}
	return c.fallback.Title
}

// Known reports whether key is part of the enumeration.
func (c *Catalog) Known(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// FallbackKey is the document type used when a request names none.
func (c *Catalog) FallbackKey() string {
	return c.fallback.Key
}

// Types lists the enumeration in file order.
func (c *Catalog) Types() []DocumentType {
	out := make([]DocumentType, len(c.types))
	copy(out, c.types)
	return out
}
