package api

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/matome/internal/engine"
	"github.com/starford/matome/internal/history"
	"github.com/starford/matome/internal/storage"
)

// Runner triggers one aggregation run. The implementation serializes runs;
// the API never executes two concurrently.
type Runner interface {
	RunOnce(ctx context.Context) (*engine.Result, error)
}

// Service backs the status API with run history and topic files.
type Service struct {
	runner Runner
	ledger history.Ledger // nil when the ledger is disabled
	store  storage.Provider
	outDir string
	ext    string
}

// NewService creates a new status service.
func NewService(runner Runner, ledger history.Ledger, store storage.Provider, outDir, ext string) *Service {
	return &Service{runner: runner, ledger: ledger, store: store, outDir: outDir, ext: ext}
}

// TriggerRun executes one aggregation run.
func (s *Service) TriggerRun(ctx context.Context) (*engine.Result, error) {
	return s.runner.RunOnce(ctx)
}

// ListRuns returns recorded runs, most recent first.
func (s *Service) ListRuns(_ context.Context, limit int) ([]history.RunRow, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.ListRuns(limit)
}

// LatestRun returns the most recent recorded run, or nil.
func (s *Service) LatestRun(_ context.Context) (*history.RunRow, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.LatestRun()
}

// ListTopics returns the labels of all accumulated topic files.
func (s *Service) ListTopics(_ context.Context) ([]string, error) {
	names, err := s.store.List(s.outDir)
	if err != nil {
		return nil, fmt.Errorf("api: list topics: %w", err)
	}
	var out []string
	for _, name := range names {
		if strings.HasSuffix(name, s.ext) {
			out = append(out, strings.TrimSuffix(name, s.ext))
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadTopic returns the accumulated Markdown for one topic file.
func (s *Service) ReadTopic(_ context.Context, name string) ([]byte, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("api: invalid topic name: %q", name)
	}
	return s.store.Read(s.outDir + "/" + name + s.ext)
}
