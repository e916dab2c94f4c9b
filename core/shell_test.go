package core

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/swabox/swabox/core/plugin"
)

var testClock = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

// newTestShell builds a shell around an in-memory plugin directory and
// buffered output, with a frozen clock.
func newTestShell(t *testing.T, plugins map[string]string) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for name, source := range plugins {
		path := filepath.Join("plugins", name)
		require.NoError(t, afero.WriteFile(fsys, path, []byte(source), 0600))
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	s := &Shell{
		prompt:         "swabox> ",
		hostShell:      "/bin/sh",
		pluginsEnabled: true,
		pluginFs:       fsys,
		pluginDir:      "plugins",
		historySize:    100,
		start:          testClock,
		clock:          func() time.Time { return testClock },
		stdout:         stdout,
		stderr:         stderr,
	}
	s.plugins = plugin.Load(fsys, "plugins")
	t.Cleanup(func() {
		if s.plugins != nil {
			s.plugins.Close()
		}
	})

	return s, stdout, stderr
}

func TestAddHistoryTrims(t *testing.T) {
	s, _, _ := newTestShell(t, nil)
	s.historySize = 2

	s.addHistory("first")
	s.addHistory("second")
	s.addHistory("third")

	history := s.History()
	require.Len(t, history, 2)
	require.Equal(t, "second", history[0].Command)
	require.Equal(t, "third", history[1].Command)
}

func TestAddHistoryDisabled(t *testing.T) {
	s, _, _ := newTestShell(t, nil)
	s.historySize = 0

	s.addHistory("ignored")

	require.Empty(t, s.History())
}

func TestDisplaySeverityRouting(t *testing.T) {
	s, stdout, stderr := newTestShell(t, nil)

	s.Display(Outcome{Text: "fine", Severity: Info})
	require.Contains(t, stdout.String(), "fine")
	require.Empty(t, stderr.String())

	stdout.Reset()
	s.Display(Outcome{Text: "broken", Severity: Error})
	require.Contains(t, stderr.String(), "broken")
	require.Empty(t, stdout.String())
}

func TestDisplayEmptyOutcome(t *testing.T) {
	s, stdout, stderr := newTestShell(t, nil)

	s.Display(Outcome{})

	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}
