package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleSchema = `
collection: application_snapshot
  name: string
  year: int
  employees: array of objects
  tags: []string

collection: employee_ratio
  csiId: string
  ratio: double
`

func TestContext_TextAndLen(t *testing.T) {
	c := NewContext("abc")
	assert.Equal(t, "abc", c.Text())
	assert.Equal(t, 3, c.Len())
}

func TestContext_HashStable(t *testing.T) {
	a := NewContext(exampleSchema)
	b := NewContext(exampleSchema)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), NewContext("different").Hash())
	assert.Len(t, a.Hash(), 64)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.txt")
	require.NoError(t, os.WriteFile(path, []byte(exampleSchema), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, exampleSchema, c.Text())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestRecognizesArrayField(t *testing.T) {
	c := NewContext(exampleSchema)

	tests := []struct {
		field string
		want  bool
	}{
		{"$employees", true},
		{"employees", true},
		{"$employees.role", true},
		{"$tags", true},
		{"$name", false},
		{"$year", false},
		{"$ratio", false},
		{"$missing", false},
		{"$", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RecognizesArrayField(tt.field))
		})
	}
}
