package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func testRouter(t *testing.T, runner Runner, authEnabled bool, token string) http.Handler {
	t.Helper()
	_, store := testutil.TestVault(t, "daily")
	_ = store.Write("out/Travel.md", []byte("# Travel\n\n## 2023-01-15\n\nKyoto.\n\n"))
	_ = store.Write("out/Diary.md", []byte("# Diary\n\n## 2023-01-15\n\nhi.\n\n"))
	_ = store.Write("out/photo.png", []byte("img"))

	svc := NewService(runner, nil, store, "out", ".md")
	return NewRouter(svc, authEnabled, token, nil)
}

func TestListTopics(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Topics) != 2 || body.Topics[0] != "Diary" || body.Topics[1] != "Travel" {
		t.Errorf("topics = %v", body.Topics)
	}
}

func TestGetTopic(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/topics/Travel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "## 2023-01-15") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGetTopic_NotFound(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/topics/Nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	runner := &fakeRunner{res: &engine.Result{TopicsWritten: []string{"Travel"}}}
	r := testRouter(t, runner, false, "")

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.TopicsWritten) != 1 || res.TopicsWritten[0] != "Travel" {
		t.Errorf("result = %+v", res)
	}
}

func TestListRuns_NoLedger(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLatestRun_NoneRecorded(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_AcceptsBearerToken(t *testing.T) {
	r := testRouter(t, &fakeRunner{}, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
