package logger

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		ByKind:          make(map[string]int),
		UnknownCommands: make(map[string]int),
		PluginFailures:  make(map[string]int),
	}
}

// Report summarizes an event log: how often each dispatch path was taken,
// which commands users tried that don't exist, and which plugins failed to
// load. Unknown commands are a cheap way to spot plugins worth writing.
type Report struct {
	Events int

	ByKind          map[string]int
	UnknownCommands map[string]int
	PluginFailures  map[string]int
}

// Update folds one event into the report.
func (r *Report) Update(ev *Event) {
	r.Events++
	r.ByKind[ev.Kind]++

	switch ev.Kind {
	case KindUnknown:
		r.UnknownCommands[ev.Command]++
	case KindLoadFailure:
		r.PluginFailures[ev.Command]++
	}
}

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Events: %d\n", r.Events)

	writeCountTable(w, "By kind:", r.ByKind)
	writeCountTable(w, "Unknown commands:", r.UnknownCommands)
	writeCountTable(w, "Plugin load failures:", r.PluginFailures)
}

func writeCountTable(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 8, 8, 4, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%d\n", k, counts[k])
	}
	tw.Flush()
}
