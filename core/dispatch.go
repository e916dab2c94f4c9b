package core

import (
	"fmt"
	"strings"

	"github.com/swabox/swabox/core/logger"
	"github.com/swabox/swabox/core/plugin"
)

// EscapeMarker routes a line straight to the host shell.
const EscapeMarker = "!"

// Severity classifies an Outcome's message for the display layer.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// Outcome is the result of dispatching one input line.
type Outcome struct {
	// Text is the message to display, possibly empty.
	Text string
	// Severity classifies Text; the core never formats, only classifies.
	Severity Severity
	// ExitStatus of a host shell command, zero otherwise.
	ExitStatus int
	// Terminate tells the read loop to stop after this outcome.
	Terminate bool
	// Err holds the typed error behind a failure outcome.
	Err error
}

// UnknownCommandError reports a token that matched no dispatch path.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Name)
}

// ShellSpawnError reports that the host shell could not be started,
// as opposed to a shell command exiting non-zero.
type ShellSpawnError struct {
	Err error
}

func (e *ShellSpawnError) Error() string {
	return fmt.Sprintf("starting host shell: %v", e.Err)
}

func (e *ShellSpawnError) Unwrap() error {
	return e.Err
}

// PluginRuntimeError reports a plugin entry point that failed during
// execution.
type PluginRuntimeError struct {
	Name string
	Err  error
}

func (e *PluginRuntimeError) Error() string {
	return fmt.Sprintf("plugin %q failed: %v", e.Name, e.Err)
}

func (e *PluginRuntimeError) Unwrap() error {
	return e.Err
}

// splitCommand splits a line into its command name and the raw argument
// remainder. Names are case-sensitive.
func splitCommand(line string) (name, args string) {
	name, args, _ = strings.Cut(line, " ")
	return name, strings.TrimSpace(args)
}

// Dispatch resolves one input line to exactly one action: host shell
// escape, builtin, plugin, or an unknown-command report, in that order of
// precedence. Every failure comes back as a classified Outcome; nothing
// escapes as a fault and the registry is never mutated mid-dispatch.
func (s *Shell) Dispatch(line string) Outcome {
	line = strings.TrimSpace(line)
	if line == "" {
		return Outcome{}
	}

	if rest, ok := strings.CutPrefix(line, EscapeMarker); ok {
		out := s.RunHost(rest)
		s.events.Dispatch(logger.KindHostShell, rest, out.ExitStatus, out.Err)
		return out
	}

	name, args := splitCommand(line)

	if builtin, ok := AllBuiltins[name]; ok {
		out := builtin.Main(s, args)
		s.events.Dispatch(logger.KindBuiltin, name, out.ExitStatus, out.Err)
		return out
	}

	if s.plugins != nil {
		if handle, ok := s.plugins.Lookup(name); ok {
			out := runPlugin(name, handle, args)
			s.events.Dispatch(logger.KindPlugin, name, out.ExitStatus, out.Err)
			return out
		}
	}

	err := &UnknownCommandError{Name: name}
	s.events.Dispatch(logger.KindUnknown, name, 0, err)
	return Outcome{
		Text:     fmt.Sprintf("%v. Type 'help' for available commands.", err),
		Severity: Error,
		Err:      err,
	}
}

// runPlugin invokes a plugin handle, converting any failure, including a
// panic inside the Lua bridge, into a PluginRuntimeError outcome. One
// misbehaving plugin must never take the shell down with it.
func runPlugin(name string, handle *plugin.Handle, args string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = pluginFailure(name, fmt.Errorf("panic: %v", r))
		}
	}()

	text, err := handle.Run(args)
	if err != nil {
		return pluginFailure(name, err)
	}
	return Outcome{Text: text}
}

func pluginFailure(name string, err error) Outcome {
	wrapped := &PluginRuntimeError{Name: name, Err: err}
	return Outcome{
		Text:     wrapped.Error(),
		Severity: Error,
		Err:      wrapped,
	}
}
