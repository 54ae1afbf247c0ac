package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/matome/internal/api"
	"github.com/starford/matome/internal/engine"
	"github.com/starford/matome/internal/testutil"
)

type fakeRunner struct {
	res *engine.Result
	err error
}

func (f *fakeRunner) RunOnce(_ context.Context) (*engine.Result, error) {
	return f.res, f.err
}

func testServer(t *testing.T, runner api.Runner) *Server {
	t.Helper()
	_, store := testutil.TestVault(t, "daily")
	_ = store.Write("out/Travel.md", []byte("# Travel\n\n## 2023-01-15\n\nKyoto.\n\n"))
	_ = store.Write("out/Diary.md", []byte("# Diary\n\n## 2023-01-16\n\nquiet day.\n\n"))

	svc := api.NewService(runner, nil, store, "out", ".md")
	return New(svc)
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestRunAggregationTool(t *testing.T) {
	runner := &fakeRunner{res: &engine.Result{TopicsWritten: []string{"Travel"}, Archived: []string{"daily/2023-01-15.md"}}}
	s := testServer(t, runner)

	res, err := s.runAggregation(context.Background(), toolRequest("run_aggregation", nil))
	if err != nil {
		t.Fatalf("runAggregation: %v", err)
	}
	out := resultText(t, res)
	if !strings.Contains(out, "Travel") {
		t.Errorf("result = %q", out)
	}
	if !strings.Contains(out, "daily/2023-01-15.md") {
		t.Errorf("result missing archived path: %q", out)
	}
}

func TestListTopicsTool(t *testing.T) {
	s := testServer(t, &fakeRunner{})

	res, err := s.listTopics(context.Background(), toolRequest("list_topics", nil))
	if err != nil {
		t.Fatalf("listTopics: %v", err)
	}
	out := resultText(t, res)
	if !strings.Contains(out, "Diary") || !strings.Contains(out, "Travel") {
		t.Errorf("result = %q", out)
	}
}

func TestReadTopicTool(t *testing.T) {
	s := testServer(t, &fakeRunner{})

	res, err := s.readTopic(context.Background(), toolRequest("read_topic", map[string]any{"name": "Travel"}))
	if err != nil {
		t.Fatalf("readTopic: %v", err)
	}
	out := resultText(t, res)
	if !strings.Contains(out, "## 2023-01-15") {
		t.Errorf("result = %q", out)
	}
}

func TestReadTopicTool_MissingTopic(t *testing.T) {
	s := testServer(t, &fakeRunner{})

	res, err := s.readTopic(context.Background(), toolRequest("read_topic", map[string]any{"name": "Nope"}))
	if err != nil {
		t.Fatalf("readTopic: %v", err)
	}
	if res == nil || !res.IsError {
		t.Error("expected error result for unknown topic")
	}
}

func TestReadTopicTool_MissingNameArgument(t *testing.T) {
	s := testServer(t, &fakeRunner{})

	res, err := s.readTopic(context.Background(), toolRequest("read_topic", nil))
	if err != nil {
		t.Fatalf("readTopic: %v", err)
	}
	if res == nil || !res.IsError {
		t.Error("expected error result when name is omitted")
	}
}

func TestRunHistoryTool_NoLedger(t *testing.T) {
	s := testServer(t, &fakeRunner{})

	res, err := s.runHistory(context.Background(), toolRequest("run_history", map[string]any{"limit": 5}))
	if err != nil {
		t.Fatalf("runHistory: %v", err)
	}
	if res == nil || res.IsError {
		t.Error("runHistory without a ledger should succeed with empty output")
	}
}
