// Package auditlog accumulates the findings of one audit run and
// persists them as the run's conflict log. Findings are ordered lines of
// text; the file written at the end of a run is the tool's one durable
// artifact, so nothing time- or environment-dependent belongs in it.
package auditlog

import (
	"strings"
	"sync"

	"github.com/mxl/types-publisher/pkg/safeio"
)

// Log collects finding lines for a single run. Append is safe for
// concurrent use: each call lands as one contiguous batch, so a
// multi-line finding never interleaves with another worker's output.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds a batch of lines to the log atomically.
func (l *Log) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, lines...)
}

// Lines returns a copy of the accumulated lines in append order.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Len reports the number of accumulated lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Write persists lines to <dir>/<name>, creating dir when missing. The
// file always ends with a newline; an empty log yields an empty file.
// Returns the path written.
func Write(dir, name string, lines []string) (string, error) {
	var content []byte
	if len(lines) > 0 {
		content = []byte(strings.Join(lines, "\n") + "\n")
	}
	return safeio.WriteFileInDir(dir, name, content)
}
