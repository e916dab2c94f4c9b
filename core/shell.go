// Package core implements the shell's command resolution and dispatch:
// the read loop, the builtin table, the plugin registry wiring, and the
// host shell escape hatch.
package core

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/swabox/swabox/core/config"
	"github.com/swabox/swabox/core/logger"
	"github.com/swabox/swabox/core/plugin"
)

// Version of the shell, reported by the info builtin.
const Version = "0.2.0"

// HistoryEntry is one remembered command line.
type HistoryEntry struct {
	Command string
	Time    time.Time
}

// Shell owns the read-dispatch loop. One input line is fully dispatched,
// including any blocking subprocess wait, before the next line is read.
type Shell struct {
	prompt         string
	hostShell      string
	pluginsEnabled bool
	pluginFs       afero.Fs
	pluginDir      string

	plugins *plugin.Registry
	events  *logger.Logger

	history     []HistoryEntry
	historySize int

	start time.Time
	clock func() time.Time

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	readline *readline.Instance
	toClose  listCloser
}

// NewShell builds a shell from the configuration: loads the plugin
// registry, opens the event log, and sets up line input with persistent
// history.
func NewShell(cfg *config.Configuration) (*Shell, error) {
	s := &Shell{
		prompt:         cfg.Prompt,
		hostShell:      cfg.HostShell(),
		pluginsEnabled: cfg.PluginsEnabled,
		pluginFs:       cfg.Fs(),
		pluginDir:      cfg.PluginDir,
		historySize:    cfg.HistorySize,
		start:          time.Now(),
		clock:          time.Now,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
	}

	eventLog, err := cfg.OpenEventLog()
	if err != nil {
		return nil, err
	}
	s.toClose = append(s.toClose, eventLog)
	s.events = logger.NewJSONLinesLogRecorder(eventLog)

	if s.pluginsEnabled {
		s.plugins = plugin.Load(s.pluginFs, s.pluginDir)
		for _, loadErr := range s.plugins.Errors() {
			s.events.LoadFailure(loadErr.Name, loadErr.Err)
		}
	}

	var completions []readline.PrefixCompleterInterface
	for name := range AllBuiltins {
		completions = append(completions, readline.PcItem(name))
	}
	if s.plugins != nil {
		for _, name := range s.plugins.Names() {
			completions = append(completions, readline.PcItem(name))
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       s.prompt,
		HistoryFile:  cfg.HistoryPath(),
		AutoComplete: readline.NewPrefixCompleter(completions...),
	})
	if err != nil {
		s.toClose.Close()
		return nil, err
	}
	s.readline = rl
	s.toClose = append(s.toClose, rl)

	return s, nil
}

// Run reads lines until EOF, an exit outcome, or a broken input stream.
func (s *Shell) Run() error {
	for _, loadErr := range s.PluginLoadErrors() {
		s.Display(Outcome{Text: loadErr.Error(), Severity: Warning})
	}

	for {
		line, err := s.readline.Readline()
		switch {
		case err == io.EOF:
			return nil
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.addHistory(line)

		out := s.Dispatch(line)
		s.Display(out)
		if out.Terminate {
			return nil
		}
	}
}

var (
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgMagenta)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Display renders one outcome. The core only classifies severity; the
// styling lives here at the edge and fatih/color disables itself when
// output isn't a terminal.
func (s *Shell) Display(out Outcome) {
	if out.Text == "" {
		return
	}

	switch out.Severity {
	case Error:
		errorColor.Fprintln(s.stderr, out.Text)
	case Warning:
		warningColor.Fprintln(s.stdout, out.Text)
	default:
		infoColor.Fprintln(s.stdout, out.Text)
	}
}

// Plugins is the live registry, nil when plugins are disabled.
func (s *Shell) Plugins() *plugin.Registry {
	return s.plugins
}

// PluginLoadErrors lists plugins that failed to load at startup or on the
// last reload.
func (s *Shell) PluginLoadErrors() []plugin.LoadError {
	if s.plugins == nil {
		return nil
	}
	return s.plugins.Errors()
}

// History returns the remembered command lines, oldest first.
func (s *Shell) History() []HistoryEntry {
	return s.history
}

func (s *Shell) addHistory(line string) {
	if s.historySize == 0 {
		return
	}
	s.history = append(s.history, HistoryEntry{Command: line, Time: s.clock()})
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
}

func (s *Shell) clearHistory() {
	s.history = nil
	if s.readline != nil {
		s.readline.Operation.ResetHistory()
	}
}

// Uptime reports how long the shell has been running.
func (s *Shell) Uptime() time.Duration {
	return s.clock().Sub(s.start)
}

func (s *Shell) Close() error {
	if s.plugins != nil {
		s.plugins.Close()
	}
	return s.toClose.Close()
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
