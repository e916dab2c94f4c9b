// Package logger captures shell events as a newline delimited JSON log so
// sessions can be audited after the fact.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Event kinds.
const (
	KindBuiltin     = "builtin"
	KindPlugin      = "plugin"
	KindHostShell   = "host_shell"
	KindUnknown     = "unknown_command"
	KindLoadFailure = "plugin_load_failure"
)

// Event is one line of the event log.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	Kind            string `json:"kind"`
	Command         string `json:"command,omitempty"`
	ExitStatus      int    `json:"exit_status,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Time converts the event timestamp back to a time.Time.
func (e *Event) Time() time.Time {
	return time.UnixMicro(e.TimestampMicros)
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(ev *Event) error

// Logger records shell events. A nil *Logger discards everything, so
// callers don't have to guard each call site.
type Logger struct {
	mu     sync.Mutex
	record LogRecorder
	now    func() time.Time
}

// NewJSONLinesLogRecorder creates a Logger that exports events in newline
// delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		record: func(ev *Event) error {
			entry, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
		now: time.Now,
	}
}

// Record stamps and stores a single event.
func (l *Logger) Record(ev Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ev.TimestampMicros = l.now().UnixMicro()
	return l.record(&ev)
}

// Dispatch records the result of dispatching one input line.
func (l *Logger) Dispatch(kind, command string, exitStatus int, err error) {
	ev := Event{
		Kind:       kind,
		Command:    command,
		ExitStatus: exitStatus,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	_ = l.Record(ev)
}

// LoadFailure records a plugin that failed to load.
func (l *Logger) LoadFailure(name string, err error) {
	ev := Event{
		Kind:    KindLoadFailure,
		Command: name,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	_ = l.Record(ev)
}

// ReadJSONLinesLog parses a newline delimited JSON event log.
func ReadJSONLinesLog(r io.Reader, handler func(ev *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var ev Event
		if err := decoder.Decode(&ev); err != nil {
			return err
		}
		handler(&ev)
	}
	return nil
}
