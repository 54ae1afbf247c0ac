package engine

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/starford/matome/internal/models"
)

// dateNameRe captures the calendar date from a daily-note file name stem.
var dateNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})$`)

// Discover collects the daily documents waiting in the input root, reads
// them, and returns them sorted by ascending date. Files whose name does not
// match the date pattern are ignored; matching names with an impossible
// calendar date, and dates already archived by a prior run, are reported as
// diagnostics and excluded.
func (e *Engine) Discover() ([]models.Document, []models.Diagnostic, error) {
	names, err := e.store.List(e.opts.InputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: discover: %w", err)
	}

	var processed map[string]struct{}
	if e.opts.History != nil {
		processed, err = e.opts.History.ProcessedDates()
		if err != nil {
			return nil, nil, fmt.Errorf("engine: discover: %w", err)
		}
	}

	var docs []models.Document
	var diags []models.Diagnostic
	for _, name := range names {
		if path.Ext(name) != e.opts.Ext {
			continue
		}
		stem := name[:len(name)-len(e.opts.Ext)]
		m := dateNameRe.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		rel := path.Join(e.opts.InputDir, name)

		if _, err := time.Parse("2006-01-02", m[1]); err != nil {
			diags = append(diags, models.Diagnostic{
				Path: rel, Kind: models.DiagInvalidDate,
				Reason: fmt.Sprintf("%s is not a calendar date", m[1]),
			})
			continue
		}
		if _, done := processed[m[1]]; done {
			diags = append(diags, models.Diagnostic{
				Path: rel, Kind: models.DiagAlreadyProcessed,
				Reason: "date archived by a prior run",
			})
			continue
		}

		raw, err := e.store.Read(rel)
		if err != nil {
			diags = append(diags, models.Diagnostic{
				Path: rel, Kind: models.DiagParseDegraded,
				Reason: fmt.Sprintf("read failed: %v", err),
			})
			continue
		}
		docs = append(docs, models.Document{Date: m[1], Path: rel, Raw: string(raw)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Date < docs[j].Date })

	e.opts.Logger.Debug("discovered daily documents",
		slog.Int("count", len(docs)),
		slog.Int("skipped", len(diags)))

	return docs, diags, nil
}
