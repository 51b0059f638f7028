package models

// FieldSpec describes one exportable user column.
type FieldSpec struct {
	Name            string `json:"name" yaml:"name"`
	DefaultSelected bool   `json:"default" yaml:"default"`
}

// UserRecord is one exported row. Values line up with Fields by index.
type UserRecord struct {
	Fields []string
	Values []any
}

// Value returns the value stored for field, if the record carries it.
func (r UserRecord) Value(field string) (any, bool) {
	for i, f := range r.Fields {
		if f == field {
			if i < len(r.Values) {
				return r.Values[i], true
			}
			return nil, false
		}
	}
	return nil, false
}
