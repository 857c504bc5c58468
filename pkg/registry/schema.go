// pkg/registry/schema.go
package registry

// FieldRegistry describes the columns of the deals table for the model prompts.
type FieldRegistry struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated,omitempty"`
	Table       string            `json:"table,omitempty"`
	Fields      []FieldDescriptor `json:"fields"`
}

type FieldDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Names returns the field names in file order.
func (r *FieldRegistry) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the descriptor for name.
func (r *FieldRegistry) Lookup(name string) (FieldDescriptor, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
