package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/CTAG07/Sundew/pkg/manifest"
	"github.com/CTAG07/Sundew/pkg/site"
)

// writeTestSite creates a one page, one post site and returns the site and
// output directories.
func writeTestSite(tb testing.TB) (string, string) {
	tb.Helper()
	root := tb.TempDir()
	files := map[string]string{
		"site.txt":                      `site.name = "Test"`,
		"template/index.html":           `{{site.name}}{{for p in all_posts orderby_desc date}}|{{p.title}}{{endfor}}`,
		"template/layout/post.html":     `<article>{{post.body}}</article>`,
		"posts/post-20240101-hello.txt": "Hello *there*\n",
	}
	for name, content := range files {
		path := filepath.Join(root, "site", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			tb.Fatal(err)
		}
	}
	return filepath.Join(root, "site"), filepath.Join(root, "out")
}

// setupTestServer returns a server over a fresh test site. The site is not
// built yet.
func setupTestServer(tb testing.TB, store *manifest.Store) (*Server, chan string) {
	tb.Helper()
	siteDir, outDir := writeTestSite(tb)
	logger := slog.New(slog.DiscardHandler)
	builder := site.NewBuilder(logger, site.Options{SiteDir: siteDir, OutputDir: outDir, Manifest: store})
	worker := newBuildWorker(builder, logger)

	config := DefaultConfig()
	config.Build.SiteDir, config.Build.OutputDir = siteDir, outDir
	cm := NewConfigManager(config, filepath.Join(tb.TempDir(), "sundew.json"), logger)

	actionChan := make(chan string, 1)
	return NewServer(cm, logger, builder, worker, store, actionChan), actionChan
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestServer_BeforeFirstBuild(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	if rec := doRequest(s, http.MethodGet, "/api/templates", ""); rec.Code != http.StatusConflict {
		t.Errorf("GET /api/templates = %d, want %d", rec.Code, http.StatusConflict)
	}
	if rec := doRequest(s, http.MethodPost, "/api/render", "{{site.name}}"); rec.Code != http.StatusConflict {
		t.Errorf("POST /api/render = %d, want %d", rec.Code, http.StatusConflict)
	}
	if rec := doRequest(s, http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /api/health = %d", rec.Code)
	}
}

func TestServer_RebuildAndPreview(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/rebuild", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/rebuild = %d: %s", rec.Code, rec.Body)
	}
	var report site.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Pages != 1 || report.Posts != 1 || report.Written != 2 {
		t.Errorf("unexpected report %+v", report)
	}

	rec = doRequest(s, http.MethodGet, "/api/build", "")
	var status BuildStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Report == nil || status.Error != "" || status.Building {
		t.Errorf("unexpected build status %+v", status)
	}

	rec = doRequest(s, http.MethodPost, "/api/render", "{{site.name}}:{{site.num_posts}}")
	if rec.Code != http.StatusOK || rec.Body.String() != "Test:1" {
		t.Errorf("POST /api/render = %d %q", rec.Code, rec.Body)
	}
	if rec = doRequest(s, http.MethodPost, "/api/render", "{{for}}"); rec.Code != http.StatusBadRequest {
		t.Errorf("a template syntax error should be a bad request, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/templates", "")
	var names []string
	if err := json.NewDecoder(rec.Body).Decode(&names); err != nil {
		t.Fatal(err)
	}
	if want := []string{"index.html", "layout/post.html"}; !reflect.DeepEqual(names, want) {
		t.Errorf("templates = %v, want %v", names, want)
	}
}

func TestServer_Static(t *testing.T) {
	s, _ := setupTestServer(t, nil)
	if rec := doRequest(s, http.MethodPost, "/api/rebuild", ""); rec.Code != http.StatusOK {
		t.Fatalf("rebuild failed: %s", rec.Body)
	}

	rec := doRequest(s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "Test|hello" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store, no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	rec = doRequest(s, http.MethodGet, "/20240101_hello.html", "")
	if rec.Body.String() != "<article><p>Hello <em>there</em></p></article>" {
		t.Errorf("post = %q", rec.Body)
	}
}

func TestServer_Routing(t *testing.T) {
	s, actions := setupTestServer(t, nil)

	tests := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/api/rebuild", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/manifest", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/server/version", http.StatusOK},
		{http.MethodGet, "/api/server/restart", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		if rec := doRequest(s, tt.method, tt.target, ""); rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
		}
	}

	if rec := doRequest(s, http.MethodPost, "/api/server/restart", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/server/restart = %d", rec.Code)
	}
	select {
	case action := <-actions:
		if action != actionRestart {
			t.Errorf("action = %q", action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("restart action was not sent")
	}
}

func TestServer_Config(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	rec := doRequest(s, http.MethodPut, "/api/server/config", `{"server_config":{"addr":":9999","debounce_ms":50}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/server/config = %d: %s", rec.Code, rec.Body)
	}
	cfg := s.serverAPI.config.Get()
	if cfg.Server.Addr != ":9999" || cfg.Server.DebounceMs != 50 || cfg.Build.SiteDir == "" {
		t.Errorf("config after update = %+v %+v", cfg.Server, cfg.Build)
	}

	saved, err := LoadConfig(s.serverAPI.config.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Server.Addr != ":9999" {
		t.Errorf("saved addr = %q", saved.Server.Addr)
	}

	if rec = doRequest(s, http.MethodPut, "/api/server/config", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d", rec.Code)
	}
}

func TestServer_Manifest(t *testing.T) {
	db, store, err := openManifest(filepath.Join(t.TempDir(), "manifest.db"), nil)
	if err != nil {
		t.Fatalf("openManifest() error = %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		_ = db.Close()
	})
	s, _ := setupTestServer(t, store)

	if rec := doRequest(s, http.MethodPost, "/api/rebuild", ""); rec.Code != http.StatusOK {
		t.Fatalf("rebuild failed: %s", rec.Body)
	}

	rec := doRequest(s, http.MethodGet, "/api/manifest", "")
	var sum manifest.Summary
	if err = json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if sum.Builds != 1 || sum.Outputs != 2 || sum.LastBuild == nil {
		t.Errorf("summary = %+v", sum)
	}

	rec = doRequest(s, http.MethodGet, "/api/manifest/outputs", "")
	var outputs []manifest.Output
	if err = json.NewDecoder(rec.Body).Decode(&outputs); err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 2 || outputs[0].Kind != manifest.KindPost {
		t.Errorf("outputs = %+v", outputs)
	}
}
