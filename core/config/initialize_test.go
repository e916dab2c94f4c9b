package config

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("StarterPluginInstalled", func(t *testing.T) {
		exists, err := afero.Exists(cfg.Fs(), filepath.Join(PluginDirName, StarterPluginName))
		assert.Nil(t, err)
		assert.True(t, exists)
	})

	t.Run("OpenEventLog", func(t *testing.T) {
		fd, err := cfg.OpenEventLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("ReadEventLog", func(t *testing.T) {
		fd, err := cfg.ReadEventLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("HistoryPath", func(t *testing.T) {
		assert.Equal(t, filepath.Join(tempDir, HistoryName), cfg.HistoryPath())
	})
}

func TestInitializeIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	_, err := Initialize(tempDir, logger)
	require.NoError(t, err)

	// Scribble on the config, then initialize again: user edits survive.
	custom := []byte("prompt: \"custom> \"\nplugin_dir: plugins\nhistory_size: 5\n")
	configPath := filepath.Join(tempDir, ConfigurationName)
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), configPath, custom, 0600))

	_, err = Initialize(tempDir, logger)
	require.NoError(t, err)

	cfg, err := Load(tempDir)
	require.NoError(t, err)
	assert.Equal(t, "custom> ", cfg.Prompt)
	assert.Equal(t, 5, cfg.HistorySize)
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent"))

	assert.Error(t, err)
}

func TestLoadAcceptsConfigFilePath(t *testing.T) {
	tempDir := t.TempDir()
	_, err := Initialize(tempDir, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	cfg, err := Load(filepath.Join(tempDir, ConfigurationName))
	require.NoError(t, err)
	assert.Equal(t, tempDir, cfg.Dir())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	tempDir := t.TempDir()
	contents := []byte("prompt: \"x> \"\nplugin_dir: plugins\nhistory_size: 1\nbogus_field: true\n")
	require.NoError(t, afero.WriteFile(afero.NewOsFs(),
		filepath.Join(tempDir, ConfigurationName), contents, 0600))

	_, err := Load(tempDir)

	assert.Error(t, err)
}
