package core

import (
	"errors"
	"fmt"
	"os/exec"
)

// RunHost executes commandText with the host command interpreter and
// blocks until it exits. The text is passed through verbatim; the escape
// hatch is a deliberate trapdoor for a trusted local user, not a
// sandboxed mini-shell, so no sanitization is attempted or wanted.
func (s *Shell) RunHost(commandText string) Outcome {
	cmd := exec.Command(s.hostShell, "-c", commandText)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	err := cmd.Run()
	if err == nil {
		return Outcome{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The command ran; its own semantics govern success. Report the
		// status but don't treat it as a dispatcher failure.
		return Outcome{
			Text:       fmt.Sprintf("command exited with status %d", exitErr.ExitCode()),
			Severity:   Warning,
			ExitStatus: exitErr.ExitCode(),
		}
	}

	// The interpreter itself couldn't be started.
	wrapped := &ShellSpawnError{Err: err}
	return Outcome{
		Text:     wrapped.Error(),
		Severity: Error,
		Err:      wrapped,
	}
}
