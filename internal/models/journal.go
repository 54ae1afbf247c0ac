// Package models defines the domain types for Matome.
package models

// Document represents one daily note, identified by the calendar date in its
// file name. Raw holds the full file content as read at discovery time.
type Document struct {
	Date string `json:"date"` // yyyy-mm-dd
	Path string `json:"path"` // relative to the vault root
	Raw  string `json:"-"`
}

// Section is one heading-delimited span of a daily document.
// Label is the merge key: the heading text with the leading '#' run and
// surrounding whitespace stripped. Heading levels are discarded, so
// "# Travel" and "## Travel" aggregate into the same topic.
type Section struct {
	Label string
	Body  string
}

// ImageReference is an embedded image found in a section body.
// Raw is the path as written in the note; Source is the vault-relative
// location it resolved to (which may differ when an extension was probed).
type ImageReference struct {
	Raw    string
	Source string
}

// Diagnostic kinds reported by a run. None of these abort the run.
const (
	DiagParseDegraded     = "parse_degraded"
	DiagUnresolvableImage = "unresolvable_image"
	DiagMoveFailed        = "move_failed"
	DiagWriteFailed       = "write_failed"
	DiagDuplicateDate     = "duplicate_date"
	DiagAlreadyProcessed  = "already_processed"
	DiagInvalidDate       = "invalid_date"
)

// Diagnostic records a non-fatal finding against one path.
type Diagnostic struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}
