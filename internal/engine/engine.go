// Package engine sequences the aggregation run: discover daily documents,
// split them into sections, fold sections into topic buffers, flush output
// files, and archive what was processed.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/matome/internal/archive"
	"github.com/starford/matome/internal/history"
	"github.com/starford/matome/internal/images"
	"github.com/starford/matome/internal/models"
	"github.com/starford/matome/internal/splitter"
	"github.com/starford/matome/internal/storage"
	"github.com/starford/matome/internal/topics"
)

// Result is what one run produced.
type Result struct {
	TopicsWritten []string            `json:"topics_written"`
	Archived      []string            `json:"archived"`
	Diagnostics   []models.Diagnostic `json:"diagnostics"`
}

// Options configures an Engine. All directories are vault-relative.
type Options struct {
	InputDir   string
	OutputDir  string
	ArchiveDir string
	Ext        string // output and daily-note extension, including the dot

	// History, when non-nil, excludes already-archived dates from Discover
	// and records each completed run.
	History history.Ledger

	Logger *slog.Logger

	// Parallelism bounds the ParseAll fan-out. Folding, flushing, and
	// archiving are always serialized. Zero means GOMAXPROCS.
	Parallelism int
}

// Engine owns one run's state: the document list and the topic buffers.
type Engine struct {
	store    storage.Provider
	resolver *images.Resolver
	mover    *archive.Mover
	opts     Options
}

// New creates an Engine over the given vault storage.
func New(store storage.Provider, opts Options) *Engine {
	if opts.Ext == "" {
		opts.Ext = ".md"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		store:    store,
		resolver: images.NewResolver(store, opts.InputDir),
		mover:    archive.NewMover(store, opts.ArchiveDir, opts.OutputDir),
		opts:     opts,
	}
}

// parsed is the ParseAll output for one document.
type parsed struct {
	doc      models.Document
	sections []models.Section
	refs     []models.ImageReference
	missing  []string
	degraded bool
}

// Process runs ParseAll → Fold → Flush → Archive over docs, which must be in
// ascending date order (Discover guarantees this). The run is best-effort and
// fully reported: per-document and per-topic failures become diagnostics, and
// only a cancelled context aborts.
func (e *Engine) Process(ctx context.Context, docs []models.Document) (*Result, error) {
	started := time.Now()
	res := &Result{}

	docs = e.dropDuplicateDates(docs, res)

	// ParseAll: documents are independent, so parsing fans out. Results are
	// handed back to the single-threaded fold below.
	parsedDocs := make([]*parsed, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			parsedDocs[i] = e.parse(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine: parse: %w", err)
	}

	for _, p := range parsedDocs {
		if p.degraded {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: p.doc.Path, Kind: models.DiagParseDegraded,
				Reason: "line endings normalized during split",
			})
		}
		for _, raw := range p.missing {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: p.doc.Path, Kind: models.DiagUnresolvableImage,
				Reason: fmt.Sprintf("image %q not found under input root", raw),
			})
		}
	}

	// Fold: ascending date order, one document at most once.
	set := topics.NewSet()
	for _, p := range parsedDocs {
		for _, sec := range p.sections {
			set.Fold(p.doc.Date, sec)
		}
	}

	// Flush: one write per non-empty topic buffer. A failed topic does not
	// block the rest.
	writer := topics.NewWriter(e.store, e.opts.OutputDir, e.opts.Ext)
	for _, buf := range set.Buffers() {
		rel, err := writer.Flush(buf)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: rel, Kind: models.DiagWriteFailed, Reason: err.Error(),
			})
			continue
		}
		if rel != "" {
			res.TopicsWritten = append(res.TopicsWritten, buf.Label)
		}
	}

	// Archive: runs last so an interrupted run re-appends rather than loses
	// content (at-least-once output is the tolerated failure mode).
	archivedDocs := e.archiveAll(parsedDocs, res)

	if e.opts.History != nil {
		if _, err := e.opts.History.RecordRun(history.RunRow{
			StartedAt:   started,
			FinishedAt:  time.Now(),
			Topics:      res.TopicsWritten,
			Diagnostics: res.Diagnostics,
		}, archivedDocs); err != nil {
			e.opts.Logger.Warn("engine: record run failed", slog.String("error", err.Error()))
		}
	}

	e.opts.Logger.Info("run complete",
		slog.Int("documents", len(docs)),
		slog.Int("topics", len(res.TopicsWritten)),
		slog.Int("archived", len(res.Archived)),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Duration("elapsed", time.Since(started)))

	return res, nil
}

// parse splits one document and resolves its image references.
func (e *Engine) parse(doc models.Document) *parsed {
	p := &parsed{doc: doc, degraded: splitter.Degraded(doc.Raw)}
	for sec := range splitter.Split(doc.Raw) {
		p.sections = append(p.sections, sec)
		refs, missing := e.resolver.Resolve(sec.Body)
		p.refs = appendRefs(p.refs, refs)
		p.missing = append(p.missing, missing...)
	}
	return p
}

// archiveAll relocates every parsed document and copies its images, and
// returns ledger rows for documents that left the input set.
func (e *Engine) archiveAll(parsedDocs []*parsed, res *Result) []history.DocumentRow {
	var rows []history.DocumentRow
	for _, p := range parsedDocs {
		for _, err := range e.mover.CopyImages(p.refs) {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: p.doc.Path, Kind: models.DiagUnresolvableImage, Reason: err.Error(),
			})
		}

		outcome, err := e.mover.Relocate(p.doc.Path)
		switch outcome {
		case archive.Relocated:
			res.Archived = append(res.Archived, p.doc.Path)
		case archive.CopiedNotDeleted:
			// Processed but not archived: the ledger still records it so the
			// leftover original is skipped by later runs.
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: p.doc.Path, Kind: models.DiagMoveFailed, Reason: err.Error(),
			})
		case archive.Failed:
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: p.doc.Path, Kind: models.DiagMoveFailed, Reason: err.Error(),
			})
			continue
		}
		rows = append(rows, history.DocumentRow{
			Date:        p.doc.Date,
			Path:        p.doc.Path,
			Checksum:    history.Checksum([]byte(p.doc.Raw)),
			ProcessedAt: time.Now(),
		})
	}
	return rows
}

// dropDuplicateDates excludes every document whose date appears more than
// once. No merge policy is guessed; both sides become diagnostics.
func (e *Engine) dropDuplicateDates(docs []models.Document, res *Result) []models.Document {
	counts := make(map[string]int, len(docs))
	for _, d := range docs {
		counts[d.Date]++
	}
	out := docs[:0:0]
	for _, d := range docs {
		if counts[d.Date] > 1 {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Path: d.Path, Kind: models.DiagDuplicateDate,
				Reason: fmt.Sprintf("date %s claimed by %d files", d.Date, counts[d.Date]),
			})
			continue
		}
		out = append(out, d)
	}
	return out
}

func appendRefs(dst, src []models.ImageReference) []models.ImageReference {
	for _, r := range src {
		dup := false
		for _, have := range dst {
			if have.Source == r.Source {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, r)
		}
	}
	return dst
}
