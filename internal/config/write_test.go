// internal/config/write_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "omm", "omm.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read written file")

	// Check for key sections
	assert.Contains(t, string(content), "[library]")
	assert.Contains(t, string(content), "[standards]")
	assert.Contains(t, string(content), "[encoding]")
	assert.Contains(t, string(content), "${OMM_LIBRARY_ROOT")
}

func TestWriteDefault_CreatesDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "deep", "omm.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	_, err = os.Stat(path)
	assert.False(t, os.IsNotExist(err), "file was not created")
}

func TestConfig_Write(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "debug"
	cfg.Library.Roots = []string{"/media/library"}

	tmp := t.TempDir()
	path := filepath.Join(tmp, "omm.toml")

	err := cfg.Write(path)
	require.NoError(t, err, "Write failed")

	content, _ := os.ReadFile(path)
	assert.Contains(t, string(content), "debug")
	assert.Contains(t, string(content), "/media/library")
	assert.Contains(t, string(content), "preferred_codec")
}

func TestWriteThenLoad(t *testing.T) {
	tmp := t.TempDir()
	cfg := Defaults()
	cfg.Library.Roots = []string{tmp}
	cfg.Encoding.CQ = 25

	path := filepath.Join(tmp, "omm.toml")
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Encoding.CQ)
	assert.Equal(t, cfg.Library.Roots, loaded.Library.Roots)
}
