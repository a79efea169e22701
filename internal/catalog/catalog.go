// Package catalog resolves variable placeholders to their display metadata.
package catalog

// Variable is the display metadata of one catalog entry.
type Variable struct {
	APIName  string `json:"api_name" yaml:"api_name"`
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

// Catalog looks variables up by apiName. A catalog is supplied fresh to every
// decode and never cached by the decoder.
type Catalog interface {
	Lookup(apiName string) (Variable, bool)
}

// Map is an in-memory Catalog.
type Map map[string]Variable

func (m Map) Lookup(apiName string) (Variable, bool) {
	v, ok := m[apiName]
	if ok && v.APIName == "" {
		v.APIName = apiName
	}
	return v, ok
}

// FromSlice indexes vars by apiName.
func FromSlice(vars []Variable) Map {
	m := make(Map, len(vars))
	for _, v := range vars {
		m[v.APIName] = v
	}
	return m
}

// Passthrough resolves every name to itself. Used where references must be
// collected regardless of what the catalog currently holds.
type Passthrough struct{}

func (Passthrough) Lookup(apiName string) (Variable, bool) {
	return Variable{APIName: apiName, Title: apiName}, true
}

// Empty resolves nothing.
type Empty struct{}

func (Empty) Lookup(string) (Variable, bool) { return Variable{}, false }
