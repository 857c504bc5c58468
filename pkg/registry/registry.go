// pkg/registry/registry.go
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadFieldMetadata reads the metadata file. Both a bare array of field
// descriptors and the {"version", "fields"} object form are accepted.
func LoadFieldMetadata(path string) (*FieldRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFieldMetadata(data)
}

func ParseFieldMetadata(data []byte) (*FieldRegistry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var fields []FieldDescriptor
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		return &FieldRegistry{Fields: fields}, nil
	}

	var reg FieldRegistry
	if err := json.Unmarshal(trimmed, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate reports empty or duplicate names, and names outside known when
// known is non-empty.
func (r *FieldRegistry) Validate(known []string) []string {
	var problems []string
	if len(r.Fields) == 0 {
		problems = append(problems, "no fields defined")
	}

	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}

	seen := make(map[string]bool, len(r.Fields))
	for i, f := range r.Fields {
		name := strings.TrimSpace(f.Name)
		switch {
		case name == "":
			problems = append(problems, fmt.Sprintf("field %d: empty name", i))
			continue
		case seen[name]:
			problems = append(problems, fmt.Sprintf("field %q: duplicate", name))
		case len(knownSet) > 0 && !knownSet[name]:
			problems = append(problems, fmt.Sprintf("field %q: not a column of the deals table", name))
		}
		if strings.TrimSpace(f.Description) == "" {
			problems = append(problems, fmt.Sprintf("field %q: empty description", name))
		}
		seen[name] = true
	}
	return problems
}
