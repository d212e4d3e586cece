package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/CTAG07/Wikitext/pkg/pagestore"
	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

// testEnv bundles a server built on temporary files.
type testEnv struct {
	server     *Server
	cm         *ConfigManager
	configPath string
	sourceDir  string
}

// setupTestServer writes a config into a temp dir, opens a fresh database and
// builds a Server around them. sparqlEndpoint may be empty.
func setupTestServer(t *testing.T, sparqlEndpoint string) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Server.DatabasePath = filepath.Join(dir, "test.db")
	cfg.Server.ImportSourceDir = filepath.Join(dir, "documents")
	cfg.Server.SparqlEndpoint = sparqlEndpoint
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	configPath := filepath.Join(dir, "config.json")
	if err = os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cm, err := NewConfigManager(configPath)
	if err != nil {
		t.Fatalf("NewConfigManager() error = %v", err)
	}
	t.Cleanup(wikitext.ResetSettings)

	db, err := initDB(cfg.Server.DatabasePath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = pagestore.SetupSchema(db); err != nil {
		t.Fatalf("failed to set up page schema: %v", err)
	}
	if err = setupAuthSchema(db); err != nil {
		t.Fatalf("failed to set up auth schema: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm.SetLogger(logger)
	server, err := NewServer(cm, logger, db, make(chan string, 1))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(server.Close)

	return &testEnv{server: server, cm: cm, configPath: configPath, sourceDir: cfg.Server.ImportSourceDir}
}

// do sends a request through the API mux. key is sent in the auth header when set.
func (e *testEnv) do(t *testing.T, method, path, contentType, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key != "" {
		req.Header.Set(authHeader, key)
	}
	rr := httptest.NewRecorder()
	e.server.apiMux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t, "")
	// A key makes the rest of the API private; health must stay open.
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/keys", "application/json", `{"description":"admin"}`, ""), http.StatusCreated)

	rr := env.do(t, http.MethodGet, "/api/health", "", "", "")
	expectStatus(t, rr, http.StatusOK)
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg.Wikitext != wikitext.DefaultSettings() {
		t.Errorf("unexpected default settings %+v", cfg.Wikitext)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("default config was not written: %v", err)
	}

	// Sections missing from the file fall back to defaults.
	if err = os.WriteFile(path, []byte(`{"server_config":{"api_addr":":9000"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.ApiAddr != ":9000" || cfg.Wikitext == nil || cfg.Wikitext.ArraymapSeparator != ";" {
		t.Errorf("unexpected config %+v / %+v", cfg.Server, cfg.Wikitext)
	}
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	if err := ensureDataDir(filepath.Join(dir, "a", "b.db") + "?_journal_mode=WAL"); err != nil {
		t.Fatalf("ensureDataDir() error = %v", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "a")); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
	if err := ensureDataDir(":memory:"); err != nil {
		t.Errorf("ensureDataDir(:memory:) error = %v", err)
	}
}
