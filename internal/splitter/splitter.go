// Package splitter breaks a daily note's raw Markdown into heading-labeled
// sections.
package splitter

import (
	"iter"
	"regexp"
	"strings"

	"github.com/starford/matome/internal/models"
)

// IntroLabel is the merge key assigned to text that precedes the first
// heading of a document.
const IntroLabel = "Introduction"

// IntroHeading is the title line rendered for the implicit leading section.
const IntroHeading = "# はじめに"

// headingRe matches a generic Markdown heading: a run of 1-6 '#' at line
// start, whitespace, then label text. The level is discarded for grouping;
// only the label text is the merge key.
var headingRe = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)

// Split returns the sections of raw in source order as a lazy, restartable
// sequence. If any text precedes the first heading it is emitted as an
// implicit section labeled IntroLabel. Sections with empty bodies are still
// emitted; callers drop them.
//
// Split never fails: input without a trailing newline, or with CRLF line
// endings, degrades to best-effort line scanning (Degraded reports the
// latter).
func Split(raw string) iter.Seq[models.Section] {
	return func(yield func(models.Section) bool) {
		lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

		label := IntroLabel
		seen := false // a heading line has been encountered
		var body []string

		flush := func() bool {
			if label == IntroLabel && !seen && len(body) == 0 {
				return true // nothing preceded the first heading
			}
			return yield(models.Section{Label: label, Body: strings.Join(body, "\n")})
		}

		for _, line := range lines {
			line = strings.TrimSuffix(line, "\r")
			if m := headingRe.FindStringSubmatch(line); m != nil {
				if !flush() {
					return
				}
				label = m[1]
				seen = true
				body = body[:0]
				continue
			}
			body = append(body, line)
		}
		flush()
	}
}

// Degraded reports whether raw needed line-ending normalization before
// splitting (bare CR or CRLF endings).
func Degraded(raw string) bool {
	return strings.ContainsRune(raw, '\r')
}
