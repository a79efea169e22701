package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_SET", "value")
	t.Setenv("CFG_EMPTY", "")

	assert.Equal(t, "value", Expand("${CFG_SET}"))
	assert.Equal(t, "value", Expand("$CFG_SET"))
	assert.Equal(t, "value", Expand("${CFG_SET:-other}"))
	assert.Equal(t, "other", Expand("${CFG_EMPTY:-other}"))
	assert.Equal(t, "disabled", Expand("${CFG_UNSET_FOR_TEST:-disabled}"))
	assert.Equal(t, "", Expand("${CFG_UNSET_FOR_TEST}"))
}

func TestLoad_KeepsDefaults(t *testing.T) {
	t.Setenv("CFG_TOKEN", "abc")
	cfg := sample{Name: "default", Port: 1}
	require.NoError(t, Load(writeFile(t, "port: 8080\ntoken: ${CFG_TOKEN}\n"), &cfg))
	assert.Equal(t, sample{Name: "default", Port: 8080, Token: "abc"}, cfg)
}

func TestLoad_EmptyFileValidatesDefaults(t *testing.T) {
	cfg := sample{Port: 1}
	require.NoError(t, Load(writeFile(t, ""), &cfg))

	cfg = sample{}
	assert.ErrorContains(t, Load(writeFile(t, ""), &cfg), "port must be positive")
}

func TestLoad_Errors(t *testing.T) {
	var cfg sample
	assert.ErrorContains(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg), "failed to read")
	assert.ErrorContains(t, Load(writeFile(t, "port: 1\nprot: 2\n"), &cfg), "failed to parse")
	assert.ErrorContains(t, Load(writeFile(t, "port: [\n"), &cfg), "failed to parse")
}
