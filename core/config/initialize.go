package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize sets up a configuration directory, writing the default
// config.yaml and a starter plugin if they don't already exist. Existing
// files are never overwritten so it's safe to run repeatedly.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return initialize(afero.NewBasePathFs(afero.NewOsFs(), dir), dir, logger)
}

func initialize(fsys afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := writeIfAbsent(fsys, ConfigurationName, defaultConfigData, logger); err != nil {
		return nil, err
	}

	if err := fsys.MkdirAll(PluginDirName, 0700); err != nil {
		return nil, err
	}

	starterPath := filepath.Join(PluginDirName, StarterPluginName)
	if err := writeIfAbsent(fsys, starterPath, starterPluginData, logger); err != nil {
		return nil, err
	}

	return load(fsys, dir)
}

func writeIfAbsent(fsys afero.Fs, name string, contents []byte, logger *log.Logger) error {
	exists, err := afero.Exists(fsys, name)
	if err != nil {
		return err
	}
	if exists {
		logger.Printf("%s exists, skipping", name)
		return nil
	}

	logger.Printf("creating %s", name)
	return afero.WriteFile(fsys, name, contents, 0600)
}
