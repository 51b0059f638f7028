package export

import (
	"net/url"
	"strings"
)

// Flags holds the checkbox state sent for each catalog field. A missing key
// means the parameter was not transmitted at all.
type Flags map[string]bool

// FlagsFromValues picks the catalog field parameters out of form values.
// Parameters that are not catalog fields are ignored.
func FlagsFromValues(values url.Values, catalog *Catalog) Flags {
	flags := make(Flags)
	for _, spec := range catalog.fields {
		if vs, ok := values[spec.Name]; ok && len(vs) > 0 {
			flags[spec.Name] = ParseFlag(vs[0])
		}
	}
	return flags
}

// ParseFlag interprets a form value as a boolean. Empty, "0", "false", "off"
// and "no" are false; anything else is true.
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// Resolve returns the selected field names in catalog order.
//
// On a fresh form (submitted == false) a field without a flag takes its
// default. Once the form has been submitted an absent flag is an unchecked
// box, since browsers do not send unchecked checkboxes.
func Resolve(catalog *Catalog, flags Flags, submitted bool) []string {
	names := []string{}
	for _, spec := range catalog.fields {
		selected, present := flags[spec.Name]
		if !present {
			selected = !submitted && spec.DefaultSelected
		}
		if selected {
			names = append(names, spec.Name)
		}
	}
	return names
}

// ResolveForExport is Resolve with the export-time fallback: an empty
// selection becomes the catalog's default fields.
func ResolveForExport(catalog *Catalog, flags Flags, submitted bool) []string {
	names := Resolve(catalog, flags, submitted)
	if len(names) == 0 {
		return catalog.DefaultFields()
	}
	return names
}

// SelectionState maps every catalog field to its current checkbox state, for
// rendering the form.
func SelectionState(catalog *Catalog, flags Flags, submitted bool) map[string]bool {
	state := make(map[string]bool, len(catalog.fields))
	for _, name := range Resolve(catalog, flags, submitted) {
		state[name] = true
	}
	return state
}
