package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherPlugin = `
short = "Report the weather"
calls = 0
function run(args)
  calls = calls + 1
  return "weather[" .. calls .. "]:" .. args
end`

func TestDispatchEmptyLine(t *testing.T) {
	s, _, _ := newTestShell(t, nil)

	for _, line := range []string{"", "   ", "\t"} {
		out := s.Dispatch(line)

		assert.Equal(t, Outcome{}, out, "line %q", line)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s, _, _ := newTestShell(t, nil)

	out := s.Dispatch("nosuchcmd with args")

	assert.Equal(t, Error, out.Severity)
	assert.Contains(t, out.Text, "nosuchcmd")

	var unknown *UnknownCommandError
	require.True(t, errors.As(out.Err, &unknown))
	assert.Equal(t, "nosuchcmd", unknown.Name)
}

func TestDispatchPlugin(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{"weather.lua": weatherPlugin})

	out := s.Dispatch("weather London")

	assert.NoError(t, out.Err)
	// The counter proves the handler ran exactly once.
	assert.Equal(t, "weather[1]:London", out.Text)
}

func TestDispatchTrimsLeadingWhitespace(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{"weather.lua": weatherPlugin})

	out := s.Dispatch("   weather London")

	assert.Equal(t, "weather[1]:London", out.Text)
}

func TestDispatchBuiltinBeatsPlugin(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{
		"echo.lua": `function run(args) return "plugin echo" end`,
	})

	out := s.Dispatch("echo from builtin")

	assert.Equal(t, "from builtin", out.Text)
}

func TestDispatchEscapeBeatsEverything(t *testing.T) {
	s, stdout, _ := newTestShell(t, map[string]string{
		"weather.lua": weatherPlugin,
	})

	// Even though "echo" is a builtin and "weather" is a plugin, the
	// escape marker routes the whole line to the host shell.
	out := s.Dispatch("!echo weather escaped")

	assert.NoError(t, out.Err)
	assert.Equal(t, 0, out.ExitStatus)
	assert.Contains(t, stdout.String(), "weather escaped")
}

func TestDispatchEscapedExitIsNotBuiltinExit(t *testing.T) {
	s, _, _ := newTestShell(t, nil)

	out := s.Dispatch("!exit 1")

	assert.False(t, out.Terminate, "host shell exit must not stop the read loop")
	assert.Equal(t, 1, out.ExitStatus)
	assert.Equal(t, Warning, out.Severity)
	assert.NoError(t, out.Err)
}

func TestDispatchPluginRuntimeError(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{
		"crash.lua": `function run(args) error("kaboom") end`,
	})

	out := s.Dispatch("crash now")

	assert.Equal(t, Error, out.Severity)

	var runtimeErr *PluginRuntimeError
	require.True(t, errors.As(out.Err, &runtimeErr))
	assert.Equal(t, "crash", runtimeErr.Name)
	assert.Contains(t, runtimeErr.Error(), "kaboom")
}

func TestDispatchCaseSensitive(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{"weather.lua": weatherPlugin})

	out := s.Dispatch("Weather London")

	var unknown *UnknownCommandError
	require.True(t, errors.As(out.Err, &unknown))
	assert.Equal(t, "Weather", unknown.Name)
}

func TestDispatchPluginsDisabled(t *testing.T) {
	s, _, _ := newTestShell(t, map[string]string{"weather.lua": weatherPlugin})
	s.plugins.Close()
	s.plugins = nil

	out := s.Dispatch("weather London")

	var unknown *UnknownCommandError
	require.True(t, errors.As(out.Err, &unknown))
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		line string
		name string
		args string
	}{
		{"weather London", "weather", "London"},
		{"weather", "weather", ""},
		{"weather  London  ", "weather", "London"},
		{"echo a b c", "echo", "a b c"},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			name, args := splitCommand(tc.line)

			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.args, args)
		})
	}
}
