// Package plugin discovers and loads Lua command plugins.
//
// A plugin is a single file, NAME.lua, in a flat directory. The stem
// becomes the command name and the file must define a run(args) function.
// Loading is all-or-nothing per file but never per directory: one broken
// plugin is recorded as a load error and the rest still load.
package plugin

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Suffix is the file extension recognized as a plugin module.
const Suffix = ".lua"

// LoadError records a single plugin that failed to load.
type LoadError struct {
	Name string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("plugin %q: %v", e.Name, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// Registry maps command names to loaded plugin handles. It is built once
// by Load and read-only afterward; reloading means building a new Registry
// and swapping the reference, never mutating a live one.
type Registry struct {
	table map[string]*Handle
	errs  []LoadError
	dir   string
}

// Load scans dir for plugin files and loads each one. A missing or empty
// directory is a valid no-plugins install, not a failure, so Load always
// returns a usable Registry. Per-file failures are collected in Errors.
func Load(fsys afero.Fs, dir string) *Registry {
	reg := &Registry{
		table: make(map[string]*Handle),
		dir:   dir,
	}

	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return reg
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), Suffix)
		if name == "" || strings.HasPrefix(name, "_") {
			// Underscore files are scratch space, not commands.
			continue
		}

		source, err := afero.ReadFile(fsys, filepath.Join(dir, entry.Name()))
		if err != nil {
			reg.errs = append(reg.errs, LoadError{Name: name, Err: err})
			continue
		}

		handle, err := NewHandle(name, string(source))
		if err != nil {
			reg.errs = append(reg.errs, LoadError{Name: name, Err: err})
			continue
		}

		// Last loaded wins on duplicate names.
		if old, ok := reg.table[name]; ok {
			old.Close()
		}
		reg.table[name] = handle
	}

	return reg
}

// Lookup finds the handle for a command name.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	h, ok := r.table[name]
	return h, ok
}

// Names returns the loaded command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the number of loaded plugins.
func (r *Registry) Len() int {
	return len(r.table)
}

// Errors lists the plugins that failed to load, in scan order.
func (r *Registry) Errors() []LoadError {
	return r.errs
}

// Dir is the directory the registry was loaded from.
func (r *Registry) Dir() string {
	return r.dir
}

// Close releases every loaded plugin. The registry must not be used
// afterward.
func (r *Registry) Close() {
	for _, h := range r.table {
		h.Close()
	}
}
