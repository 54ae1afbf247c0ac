// Package images extracts embedded image references from section bodies and
// resolves them against the vault's input root.
package images

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/matome/internal/models"
	"github.com/starford/matome/internal/storage"
)

var (
	// ![alt](path); alt text is irrelevant for resolution.
	inlineRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	// ![[path]], the Obsidian embed form; may carry a |size suffix.
	wikiRe = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
)

// probeExts are tried, in order, for extensionless wiki references.
var probeExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp"}

// Resolver locates referenced image files relative to the input root.
// Vault-relative addressing matches Obsidian's own convention: references are
// resolved against the input root, not against the referencing file.
type Resolver struct {
	store    storage.Provider
	inputDir string
}

// NewResolver creates a Resolver that probes files under inputDir.
func NewResolver(store storage.Provider, inputDir string) *Resolver {
	return &Resolver{store: store, inputDir: inputDir}
}

// Resolve scans body for image references and splits them into resolved
// references and unresolvable raw paths. Order of first appearance is kept;
// duplicates (by resolved path) are collapsed.
func (r *Resolver) Resolve(body string) ([]models.ImageReference, []string) {
	var refs []models.ImageReference
	var missing []string
	seen := make(map[string]struct{})

	for _, raw := range extract(body) {
		src, ok := r.locate(raw)
		if !ok {
			missing = append(missing, raw)
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		refs = append(refs, models.ImageReference{Raw: raw, Source: src})
	}
	return refs, missing
}

// locate resolves a raw reference to an existing vault-relative path,
// probing common image extensions when the reference has none.
func (r *Resolver) locate(raw string) (string, bool) {
	rel := path.Join(r.inputDir, raw)
	if ok, _ := r.store.Exists(rel); ok {
		return rel, true
	}
	if path.Ext(raw) == "" {
		for _, ext := range probeExts {
			if ok, _ := r.store.Exists(rel + ext); ok {
				return rel + ext, true
			}
		}
	}
	return "", false
}

// extract returns the raw paths of every image reference in body, in order
// of first appearance across both syntaxes.
func extract(body string) []string {
	type hit struct {
		off  int
		path string
	}
	var hits []hit

	for _, m := range inlineRe.FindAllStringSubmatchIndex(body, -1) {
		p := cleanInline(body[m[2]:m[3]])
		if p != "" {
			hits = append(hits, hit{off: m[0], path: p})
		}
	}
	for _, m := range wikiRe.FindAllStringSubmatchIndex(body, -1) {
		p := cleanWiki(body[m[2]:m[3]])
		if p != "" {
			hits = append(hits, hit{off: m[0], path: p})
		}
	}

	// Merge the two passes back into source order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].off < hits[j-1].off; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.path)
	}
	return out
}

// cleanInline strips URL fragments and query strings from a bracket-form
// path and rejects external URLs.
func cleanInline(p string) string {
	if strings.Contains(p, "://") {
		return ""
	}
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSpace(p)
}

// cleanWiki strips an Obsidian |alias or |size suffix from a wiki-form path.
func cleanWiki(p string) string {
	if i := strings.Index(p, "|"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSpace(p)
}
