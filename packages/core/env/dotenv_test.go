package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "simple key-value",
			content:  "API_KEY=secret123",
			expected: map[string]string{"API_KEY": "secret123"},
		},
		{
			name:    "multiple keys",
			content: "KEY1=value1\nKEY2=value2",
			expected: map[string]string{
				"KEY1": "value1",
				"KEY2": "value2",
			},
		},
		{
			name:     "double quoted value",
			content:  `API_KEY="secret with spaces"`,
			expected: map[string]string{"API_KEY": "secret with spaces"},
		},
		{
			name:     "comments are skipped",
			content:  "# This is a comment\nAPI_KEY=secret",
			expected: map[string]string{"API_KEY": "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vars)
		})
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestLoadAndExportDotEnv_DoesNotOverride(t *testing.T) {
	t.Setenv("HITCHECK_TEST_KEEP", "from-os")
	path := writeEnvFile(t, "HITCHECK_TEST_KEEP=from-file\nHITCHECK_TEST_NEW=fresh")
	t.Cleanup(func() { _ = os.Unsetenv("HITCHECK_TEST_NEW") })

	_, err := LoadAndExportDotEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "from-os", os.Getenv("HITCHECK_TEST_KEEP"))
	assert.Equal(t, "fresh", os.Getenv("HITCHECK_TEST_NEW"))
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file is fine", func(t *testing.T) {
		chdirTemp(t)
		vars, err := LoadEnvFile("")
		require.NoError(t, err)
		assert.Empty(t, vars)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		_, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

// chdirTemp changes into a fresh temp directory and restores the previous
// working directory on cleanup (equivalent to t.Chdir(t.TempDir()) on Go 1.24+).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
