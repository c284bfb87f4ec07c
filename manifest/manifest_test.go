package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
routes:
  - pattern: /
  - pattern: /employees/
    description: Employee directory
  - pattern: employees/<int:id>/edit
    name: employee_edit
  - pattern: login
    public: true
  - pattern: admin/users
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, m.Routes, 5)

	assert.Equal(t, "/", m.Routes[0].Pattern)
	assert.Equal(t, "Employee directory", m.Routes[1].Description)
	assert.Equal(t, "employee_edit", m.Routes[2].Name)
	assert.True(t, m.Routes[3].Public)
	assert.Nil(t, m.Exclude)
	assert.Contains(t, m.excluded(), "admin")
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Routes)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"missing pattern": "routes:\n  - name: orphan\n",
		"unknown key":     "routes:\n  - pattern: a\n    verb: GET\n",
		"blank exclude":   "exclude: ['']\nroutes: []\n",
		"not yaml":        "routes: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestExplicitEmptyExclude(t *testing.T) {
	m, err := Parse([]byte("exclude: []\nroutes:\n  - pattern: admin\n"))
	require.NoError(t, err)
	assert.NotNil(t, m.Exclude)
	assert.Empty(t, m.excluded())

	payload, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.NotNil(t, decoded.Exclude)
	assert.Empty(t, decoded.excluded())
}

func TestDefaultExcludeSurvivesJSON(t *testing.T) {
	payload, err := json.Marshal(&Manifest{Routes: []Route{{Pattern: "admin"}}})
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Nil(t, decoded.Exclude)
	for _, ns := range DefaultExclude {
		assert.Contains(t, decoded.excluded(), ns)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Routes, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
