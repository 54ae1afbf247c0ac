package topics

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/starford/matome/internal/splitter"
	"github.com/starford/matome/internal/storage"
)

// unsafeFilenameRe matches characters that cannot appear in output file names.
var unsafeFilenameRe = regexp.MustCompile(`[\\/*?:"<>|]`)

// Writer serializes topic buffers into the output directory. Existing files
// are appended to, never rewritten: prior bytes are preserved verbatim and
// the only inspection of them is a short tail read to pick the blank-line
// separator. That keeps flushing cheap no matter how much history a topic
// has accumulated.
type Writer struct {
	store  storage.Provider
	outDir string
	ext    string
}

// NewWriter creates a Writer targeting outDir. ext is the output file
// extension including the dot.
func NewWriter(store storage.Provider, outDir, ext string) *Writer {
	return &Writer{store: store, outDir: outDir, ext: ext}
}

// Flush writes buf to its output file and returns the file's vault-relative
// path. Buffers with no entries write nothing.
func (w *Writer) Flush(buf *Buffer) (string, error) {
	if len(buf.Entries) == 0 {
		return "", nil
	}
	rel := path.Join(w.outDir, Filename(buf.Label)+w.ext)

	var b strings.Builder
	for _, e := range buf.Entries {
		b.WriteString("## ")
		b.WriteString(e.Date)
		b.WriteString("\n\n")
		b.WriteString(e.Body)
		if !strings.HasSuffix(e.Body, "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	exists, err := w.store.Exists(rel)
	if err != nil {
		return "", fmt.Errorf("topics: stat %s: %w", rel, err)
	}
	if !exists {
		content := titleLine(buf.Label) + "\n\n" + b.String()
		if err := w.store.Write(rel, []byte(content)); err != nil {
			return "", fmt.Errorf("topics: create %s: %w", rel, err)
		}
		return rel, nil
	}

	sep, err := w.separator(rel)
	if err != nil {
		return "", err
	}
	if err := w.store.Append(rel, []byte(sep+b.String())); err != nil {
		return "", fmt.Errorf("topics: append %s: %w", rel, err)
	}
	return rel, nil
}

// separator returns the newlines needed so appended content sits after one
// blank line, whatever the existing file's tail looks like.
func (w *Writer) separator(rel string) (string, error) {
	tail, err := w.store.Tail(rel, 2)
	if err != nil {
		return "", fmt.Errorf("topics: tail %s: %w", rel, err)
	}
	switch {
	case len(tail) == 0:
		return "", nil
	case strings.HasSuffix(string(tail), "\n\n"):
		return "", nil
	case strings.HasSuffix(string(tail), "\n"):
		return "\n", nil
	default:
		return "\n\n", nil
	}
}

// Filename converts a topic label into a safe file name stem.
func Filename(label string) string {
	return unsafeFilenameRe.ReplaceAllString(label, "_")
}

// titleLine renders the level-1 title of a fresh output file. The implicit
// leading-text topic keeps its source-literal Japanese title.
func titleLine(label string) string {
	if label == splitter.IntroLabel {
		return splitter.IntroHeading
	}
	return "# " + label
}
