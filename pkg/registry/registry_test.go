package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFieldMetadata_ObjectForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0.0",
		"table": "deals_normalized",
		"fields": [
			{"name": "win", "description": "negócio ganho"},
			{"name": "hold", "description": "negócio em espera"}
		]
	}`), 0o644))

	reg, err := LoadFieldMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "deals_normalized", reg.Table)
	assert.Equal(t, []string{"win", "hold"}, reg.Names())

	f, ok := reg.Lookup("hold")
	assert.True(t, ok)
	assert.Equal(t, "negócio em espera", f.Description)
}

func TestParseFieldMetadata_ArrayForm(t *testing.T) {
	reg, err := ParseFieldMetadata([]byte(` [{"name":"win","description":"ganho"}]`))
	require.NoError(t, err)
	assert.Len(t, reg.Fields, 1)
}

func TestLoadFieldMetadata_Errors(t *testing.T) {
	_, err := LoadFieldMetadata(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ParseFieldMetadata([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFieldRegistry_Validate(t *testing.T) {
	reg := &FieldRegistry{Fields: []FieldDescriptor{
		{Name: "win", Description: "ganho"},
		{Name: "win", Description: "dup"},
		{Name: "", Description: "x"},
		{Name: "foo", Description: ""},
	}}

	problems := reg.Validate([]string{"win", "hold"})
	assert.Len(t, problems, 4)
	assert.Contains(t, problems, `field "win": duplicate`)
	assert.Contains(t, problems, `field 2: empty name`)
	assert.Contains(t, problems, `field "foo": not a column of the deals table`)
	assert.Contains(t, problems, `field "foo": empty description`)

	assert.Equal(t, []string{"no fields defined"}, (&FieldRegistry{}).Validate(nil))
}
