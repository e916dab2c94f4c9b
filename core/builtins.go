package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/pborman/getopt/v2"

	"github.com/swabox/swabox/core/plugin"
)

// AllBuiltins holds every registered shell builtin, keyed by command name.
// Builtins win over plugins on a name collision.
var AllBuiltins = make(map[string]Builtin)

type Builtin struct {
	// Short holds a one line description of the command.
	Short string
	Main  BuiltinFunc
}

// BuiltinFunc is a builtin's entry point; args is the raw argument
// remainder of the input line.
type BuiltinFunc func(s *Shell, args string) Outcome

func addBuiltin(name, short string, main BuiltinFunc) {
	AllBuiltins[name] = Builtin{Short: short, Main: main}
}

func init() {
	addBuiltin("cd", "Change the working directory.", Cd)
	addBuiltin("clear", "Clear the screen.", Clear)
	addBuiltin("date", "Display the current date.", Date)
	addBuiltin("echo", "Display a line of text.", Echo)
	addBuiltin("exit", "Exit the shell.", Exit)
	addBuiltin("help", "Display available commands.", Help)
	addBuiltin("history", "Display or manipulate the history list.", History)
	addBuiltin("info", "Display information about this shell.", InfoCmd)
	addBuiltin("reload", "Reload plugins from the plugin directory.", Reload)
	addBuiltin("system", "Display host system information.", System)
	addBuiltin("time", "Display the current time.", Time)
}

// builtinArgv tokenizes a builtin's argument remainder into an argv list
// suitable for getopt, argv[0] included.
func builtinArgv(name, args string) []string {
	tokens, err := shlex.Split(args, true)
	if err != nil {
		tokens = strings.Fields(args)
	}
	return append([]string{name}, tokens...)
}

// Help lists builtins, loaded plugins and the special syntax.
func Help(s *Shell, args string) Outcome {
	var b strings.Builder
	fmt.Fprintln(&b, "These commands are defined internally. Type `help' to see this list.")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Builtins:")
	fmt.Fprintln(&b)

	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-10s %s\n", name, AllBuiltins[name].Short)
	}

	if s.plugins != nil && s.plugins.Len() > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Plugins:")
		fmt.Fprintln(&b)
		for _, name := range s.plugins.Names() {
			handle, _ := s.plugins.Lookup(name)
			fmt.Fprintf(&b, "  %-10s %s\n", name, handle.Short())
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Special syntax:")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  %-10s Run <command> with the host shell.\n", EscapeMarker+"<command>")

	return Outcome{Text: strings.TrimSuffix(b.String(), "\n")}
}

// Clear clears the screen.
func Clear(s *Shell, args string) Outcome {
	// ANSI: home the cursor, wipe the display.
	fmt.Fprint(s.stdout, "\x1b[H\x1b[2J")
	return Outcome{}
}

// Exit signals the read loop to stop accepting input.
func Exit(s *Shell, args string) Outcome {
	return Outcome{Terminate: true}
}

// Echo displays its argument text verbatim.
func Echo(s *Shell, args string) Outcome {
	return Outcome{Text: args}
}

// Date displays the current date.
func Date(s *Shell, args string) Outcome {
	return Outcome{Text: s.clock().Format("2006-01-02")}
}

// Time displays the current time.
func Time(s *Shell, args string) Outcome {
	return Outcome{Text: s.clock().Format("15:04:05")}
}

// History displays or clears the numbered history list.
func History(s *Shell, args string) Outcome {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(builtinArgv("history", args), nil); err != nil || *helpOpt {
		var b strings.Builder
		if err != nil {
			fmt.Fprintln(&b, err)
		}
		fmt.Fprintln(&b, "Display the history list with line numbers.")
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Options:")
		opts.PrintOptions(&b)
		out := Outcome{Text: strings.TrimSuffix(b.String(), "\n")}
		if err != nil {
			out.Severity = Error
			out.Err = err
		}
		return out
	}

	if *clear {
		s.clearHistory()
		return Outcome{}
	}

	if len(s.history) == 0 {
		return Outcome{Text: "No command history."}
	}

	var b strings.Builder
	for i, entry := range s.history {
		fmt.Fprintf(&b, "% 5d  [%s] %s\n", i+1, entry.Time.Format("2006-01-02 15:04:05"), entry.Command)
	}
	return Outcome{Text: strings.TrimSuffix(b.String(), "\n")}
}

// InfoCmd displays information about the running shell.
func InfoCmd(s *Shell, args string) Outcome {
	uptime := s.clock().Sub(s.start)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	var b strings.Builder
	fmt.Fprintln(&b, "Swabox: extensible command shell")
	fmt.Fprintf(&b, "Version: %s\n", Version)
	fmt.Fprintf(&b, "Uptime: %dh %dm %ds\n", hours, minutes, seconds)
	plugins := 0
	if s.plugins != nil {
		plugins = s.plugins.Len()
	}
	fmt.Fprintf(&b, "Plugins: %d", plugins)
	return Outcome{Text: b.String()}
}

// System displays host system information.
func System(s *Shell, args string) Outcome {
	hostname, _ := os.Hostname()

	var b strings.Builder
	fmt.Fprintf(&b, "Operating System: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "Architecture: %s\n", runtime.GOARCH)
	fmt.Fprintf(&b, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "Hostname: %s\n", hostname)
	fmt.Fprintf(&b, "CPUs: %d", runtime.NumCPU())
	return Outcome{Text: b.String()}
}

// Cd changes the working directory, expanding a leading tilde. With no
// argument it reports the current directory.
func Cd(s *Shell, args string) Outcome {
	if args == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Outcome{Text: err.Error(), Severity: Error, Err: err}
		}
		return Outcome{Text: "Current directory: " + wd}
	}

	target := args
	if target == "~" || strings.HasPrefix(target, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Outcome{Text: err.Error(), Severity: Error, Err: err}
		}
		target = filepath.Join(home, strings.TrimPrefix(target, "~"))
	}

	if err := os.Chdir(target); err != nil {
		return Outcome{Text: fmt.Sprintf("cd: %v", err), Severity: Error, Err: err}
	}
	wd, _ := os.Getwd()
	return Outcome{Text: "Changed directory to: " + wd}
}

// Reload rebuilds the plugin registry from the plugin directory and swaps
// it in atomically: the new table is fully built off to the side before
// the live reference moves, so no dispatch ever sees a half-populated
// registry.
func Reload(s *Shell, args string) Outcome {
	if !s.pluginsEnabled {
		return Outcome{Text: "plugins are disabled", Severity: Warning}
	}

	fresh := plugin.Load(s.pluginFs, s.pluginDir)
	old := s.plugins
	s.plugins = fresh
	if old != nil {
		old.Close()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "loaded %d plugins", fresh.Len())
	severity := Info
	for _, loadErr := range fresh.Errors() {
		s.events.LoadFailure(loadErr.Name, loadErr.Err)
		fmt.Fprintf(&b, "\n%v", loadErr)
		severity = Warning
	}
	return Outcome{Text: b.String(), Severity: severity}
}
