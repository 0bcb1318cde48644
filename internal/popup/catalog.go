package popup

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Display formats.
const (
	FormatNumber   = "numero"
	FormatText     = "texto"
	FormatCurrency = "moneda"
	FormatArea     = "area"
	FormatDate     = "fecha"
)

//go:embed fields.yaml
var defaultCatalogYAML []byte

// Field is one labelled attribute.
type Field struct {
	Key    string `yaml:"key" json:"key"`
	Label  string `yaml:"label" json:"label"`
	Format string `yaml:"format" json:"format"`
}

// Catalog holds the labelled fields, in display order, and the omission set.
type Catalog struct {
	Fields []Field  `yaml:"fields"`
	Omit   []string `yaml:"omit"`

	byKey map[string]int
	omit  map[string]bool
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded field catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, or returns the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and indexes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse field catalog: %w", err)
	}
	c.byKey = make(map[string]int, len(c.Fields))
	for i, f := range c.Fields {
		if f.Key == "" {
			return nil, fmt.Errorf("field catalog entry %d has no key", i)
		}
		switch f.Format {
		case "":
			c.Fields[i].Format = FormatText
		case FormatNumber, FormatText, FormatCurrency, FormatArea, FormatDate:
		default:
			return nil, fmt.Errorf("field %q: unknown format %q", f.Key, f.Format)
		}
		c.byKey[f.Key] = i
	}
	c.omit = make(map[string]bool, len(c.Omit))
	for _, k := range c.Omit {
		c.omit[strings.ToLower(k)] = true
	}
	return &c, nil
}

// Lookup returns the catalog entry for key.
func (c *Catalog) Lookup(key string) (Field, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Field{}, false
	}
	return c.Fields[i], true
}

// Omitted reports whether key is never displayed.
func (c *Catalog) Omitted(key string) bool {
	return c.omit[strings.ToLower(key)]
}

// Label returns the catalog label or the raw key.
func (c *Catalog) Label(key string) string {
	if f, ok := c.Lookup(key); ok {
		return f.Label
	}
	return key
}

// Enabled lists the keys an administrator can choose from.
func (c *Catalog) Enabled() []string {
	keys := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		keys[i] = f.Key
	}
	return keys
}
