package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"versereel/internal/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeJobs struct {
	queued   []queue.Payload
	statuses map[string]queue.Status
	err      error
}

func (f *fakeJobs) Enqueue(_ context.Context, p queue.Payload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.queued = append(f.queued, p)
	return "01JOB", nil
}

func (f *fakeJobs) Status(id string) (queue.Status, error) {
	st, ok := f.statuses[id]
	if !ok {
		return queue.Status{}, queue.ErrJobNotFound
	}
	return st, nil
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantCount int
	}{
		{"default count", `{"customer_name":"acme"}`, http.StatusOK, 1},
		{"explicit count", `{"customer_name":"acme","number_of_videos":20}`, http.StatusOK, 20},
		{"too many", `{"customer_name":"acme","number_of_videos":21}`, http.StatusUnprocessableEntity, 0},
		{"zero", `{"customer_name":"acme","number_of_videos":0}`, http.StatusUnprocessableEntity, 0},
		{"missing customer", `{"number_of_videos":2}`, http.StatusUnprocessableEntity, 0},
		{"bad json", `{`, http.StatusUnprocessableEntity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := &fakeJobs{}
			w := do(t, NewRouter(jobs, t.TempDir(), nil), http.MethodPost, "/generate", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if len(jobs.queued) != 0 {
					t.Error("invalid request was queued")
				}
				return
			}
			var resp GenerateResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.JobID != "01JOB" || resp.Status != queue.StateQueued {
				t.Errorf("response = %+v", resp)
			}
			if len(jobs.queued) != 1 || jobs.queued[0].NumberOfVideos != tt.wantCount {
				t.Errorf("queued = %+v", jobs.queued)
			}
		})
	}
}

func TestGenerate_QueueDown(t *testing.T) {
	w := do(t, NewRouter(&fakeJobs{err: errors.New("redis down")}, t.TempDir(), nil), http.MethodPost, "/generate", `{"customer_name":"acme"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", w.Code)
	}
}

func TestStatus(t *testing.T) {
	jobs := &fakeJobs{statuses: map[string]queue.Status{
		"q": {State: queue.StateQueued},
		"d": {State: queue.StateDone, Folder: "acme", Files: []string{"0-a.mp4"}},
		"e": {State: queue.StateError, Detail: "boom"},
	}}
	r := NewRouter(jobs, t.TempDir(), nil)

	tests := []struct {
		id       string
		wantCode int
		wantBody string
	}{
		{"q", http.StatusOK, `{"status":"queued"}`},
		{"d", http.StatusOK, `{"status":"done","folder":"acme","files":["0-a.mp4"]}`},
		{"e", http.StatusOK, `{"status":"error","detail":"boom"}`},
		{"nope", http.StatusNotFound, `{"detail":"job not found"}`},
	}
	for _, tt := range tests {
		w := do(t, r, http.MethodGet, "/status/"+tt.id, "")
		if w.Code != tt.wantCode || strings.TrimSpace(w.Body.String()) != tt.wantBody {
			t.Errorf("GET /status/%s = %d %s, want %d %s", tt.id, w.Code, w.Body.String(), tt.wantCode, tt.wantBody)
		}
	}
}

func TestDownload(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "acme"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "acme", "0-a.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRouter(&fakeJobs{}, root, nil)

	w := do(t, r, http.MethodGet, "/download/acme/0-a.mp4", "")
	if w.Code != http.StatusOK || w.Body.String() != "video" {
		t.Errorf("download = %d %q", w.Code, w.Body.String())
	}
	if w := do(t, r, http.MethodGet, "/download/acme/missing.mp4", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing file code = %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/download/acme", ""); w.Code != http.StatusNotFound {
		t.Errorf("directory code = %d", w.Code)
	}
}

func TestResolveUnder(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		rel  string
		ok   bool
		want string
	}{
		{"/acme/a.mp4", true, filepath.Join(root, "acme", "a.mp4")},
		{"acme/a.mp4", true, filepath.Join(root, "acme", "a.mp4")},
		{"/../etc/passwd", false, ""},
		{"/acme/../../x", false, ""},
		{"/", false, ""},
	}
	for _, tt := range tests {
		got, ok := resolveUnder(root, tt.rel)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolveUnder(%q) = %q, %v; want %q, %v", tt.rel, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHealth(t *testing.T) {
	w := do(t, NewRouter(&fakeJobs{}, t.TempDir(), nil), http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"status":"ok"}` {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}
