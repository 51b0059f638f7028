package export

import (
	"fmt"

	"github.com/isdelr/userexport/internal/models"
)

// Catalog is the fixed, ordered set of fields the exporter knows about.
type Catalog struct {
	fields []models.FieldSpec
	index  map[string]int
}

// NewCatalog validates specs and builds a Catalog. Every field name must be
// unique and present in knownColumns, and at least one field must be selected
// by default so the export fallback is never empty.
func NewCatalog(specs []models.FieldSpec, knownColumns []string) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("catalog must define at least one field")
	}

	known := make(map[string]bool, len(knownColumns))
	for _, c := range knownColumns {
		known[c] = true
	}

	c := &Catalog{
		fields: make([]models.FieldSpec, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}
	hasDefault := false
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("catalog field name cannot be empty")
		}
		if _, dup := c.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog field %q", spec.Name)
		}
		if !known[spec.Name] {
			return nil, fmt.Errorf("unknown catalog field %q", spec.Name)
		}
		c.index[spec.Name] = len(c.fields)
		c.fields = append(c.fields, spec)
		hasDefault = hasDefault || spec.DefaultSelected
	}
	if !hasDefault {
		return nil, fmt.Errorf("catalog must select at least one field by default")
	}
	return c, nil
}

// DefaultFieldSpecs is the full catalog offered on the selection form.
func DefaultFieldSpecs() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "user_id", DefaultSelected: false},
		{Name: "user_name", DefaultSelected: true},
		{Name: "user_real_name", DefaultSelected: true},
		{Name: "user_email", DefaultSelected: true},
		{Name: "user_registration", DefaultSelected: true},
		{Name: "user_touched", DefaultSelected: false},
	}
}

// MinimalFieldSpecs is the two-column catalog: name and email, both selected.
func MinimalFieldSpecs() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "user_name", DefaultSelected: true},
		{Name: "user_email", DefaultSelected: true},
	}
}

// AllFields returns a copy of the catalog in display order.
func (c *Catalog) AllFields() []models.FieldSpec {
	out := make([]models.FieldSpec, len(c.fields))
	copy(out, c.fields)
	return out
}

// DefaultFields returns the names selected by default, in catalog order.
func (c *Catalog) DefaultFields() []string {
	var names []string
	for _, f := range c.fields {
		if f.DefaultSelected {
			names = append(names, f.Name)
		}
	}
	return names
}

// Has reports whether name is a catalog field.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Len returns the number of catalog fields.
func (c *Catalog) Len() int {
	return len(c.fields)
}
