package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is a read-only product lookup
type Catalog interface {
	Lookup(productID string) (*Product, bool)
}

// Map is an in-memory Catalog keyed by product id
type Map map[string]*Product

func NewMap(products ...Product) Map {
	m := make(Map, len(products))
	for i := range products {
		p := products[i]
		m[p.ID] = &p
	}
	return m
}

func (m Map) Lookup(productID string) (*Product, bool) {
	p, ok := m[productID]
	return p, ok
}

// List returns products ordered by id
func (m Map) List() []*Product {
	out := make([]*Product, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// Parse decodes a YAML catalog document
func Parse(data []byte) (Map, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	m := make(Map, len(f.Products))
	for i := range f.Products {
		p := f.Products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("product %d: id is required", i)
		}
		if _, dup := m[p.ID]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", p.ID)
		}
		m[p.ID] = &p
	}
	return m, nil
}

// LoadFile reads a YAML catalog from disk
func LoadFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}
