// Package config manages the shell's configuration directory: the
// config.yaml file, the plugin directory, the readline history file and
// the event log.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte

	//go:embed default/greet.lua
	starterPluginData []byte
)

const (
	ConfigurationName = "config.yaml"
	PluginDirName     = "plugins"
	HistoryName       = "history"
	EventLogName      = "events.log"

	StarterPluginName = "greet.lua"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	// Prompt is shown before each input line.
	Prompt string `json:"prompt" validate:"required"`

	// Shell overrides the host interpreter used for `!` escapes.
	// Empty means $SHELL, falling back to /bin/sh.
	Shell string `json:"shell"`

	PluginsEnabled bool   `json:"plugins_enabled"`
	PluginDir      string `json:"plugin_dir" validate:"required"`

	// HistorySize caps the in-memory history list; zero keeps nothing.
	HistorySize int `json:"history_size" validate:"gte=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Fs is the filesystem rooted at the configuration directory. Plugin
// enumeration goes through it so tests can substitute a memory fs.
func (c *Configuration) Fs() afero.Fs {
	return c.fs()
}

// Dir is the configuration directory path.
func (c *Configuration) Dir() string {
	return c.dir
}

// HistoryPath is the host path of the readline history file.
func (c *Configuration) HistoryPath() string {
	return filepath.Join(c.dir, HistoryName)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_RDONLY, 0600)
}

// HostShell resolves the interpreter used for `!` escapes.
func (c *Configuration) HostShell() string {
	if c.Shell != "" {
		return c.Shell
	}
	if fromEnv := os.Getenv("SHELL"); fromEnv != "" {
		return fromEnv
	}
	return "/bin/sh"
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// StarterPlugin returns the bundled example plugin source.
func StarterPlugin() []byte {
	return starterPluginData
}
