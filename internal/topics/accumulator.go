// Package topics accumulates sections by heading label and flushes each
// topic to its append-only output file.
package topics

import (
	"strings"

	"github.com/starford/matome/internal/models"
)

// Entry is one day's contribution to a topic.
type Entry struct {
	Date string
	Body string
}

// Buffer holds one topic's contributions for the current run. Persistence is
// the output file itself; a Buffer never survives the run.
type Buffer struct {
	Label   string
	Entries []Entry
}

// Set owns the run's topic buffers, keyed by normalized label, in order of
// first reference.
type Set struct {
	buffers map[string]*Buffer
	order   []string
}

// NewSet creates an empty buffer set.
func NewSet() *Set {
	return &Set{buffers: make(map[string]*Buffer)}
}

// Fold appends sec's body under date into the buffer for sec's label,
// creating the buffer on first reference. Empty bodies are skipped silently.
// Two sections of the same document sharing a label concatenate under a
// single date entry, in source order.
//
// Callers must fold documents in ascending date order; Fold does not sort.
func (s *Set) Fold(date string, sec models.Section) {
	if isBlank(sec.Body) {
		return
	}
	buf, ok := s.buffers[sec.Label]
	if !ok {
		buf = &Buffer{Label: sec.Label}
		s.buffers[sec.Label] = buf
		s.order = append(s.order, sec.Label)
	}
	if n := len(buf.Entries); n > 0 && buf.Entries[n-1].Date == date {
		buf.Entries[n-1].Body += "\n" + sec.Body
		return
	}
	buf.Entries = append(buf.Entries, Entry{Date: date, Body: sec.Body})
}

// Buffers returns the non-empty buffers in order of first reference.
func (s *Set) Buffers() []*Buffer {
	out := make([]*Buffer, 0, len(s.order))
	for _, label := range s.order {
		if buf := s.buffers[label]; len(buf.Entries) > 0 {
			out = append(out, buf)
		}
	}
	return out
}

// isBlank reports whether body contains only whitespace.
func isBlank(body string) bool {
	return strings.TrimSpace(body) == ""
}
