package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/csheth/paperdesk/internal/papers"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PAPERDESK_CONFIG", "PAPERDESK_MODEL", "PAPERDESK_LOG_LEVEL", "GEMINI_API_KEY", "API_KEY", "OPENAI_API_KEY", "OLLAMA_HOST", "OLLAMA_MODEL"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListMatchesGolden(t *testing.T) {
	isolateEnv(t)
	dir := moduleDir(t)
	got, err := execute(t, "list", "--no-demo", "--log-level", "error", "--library", filepath.Join(dir, "testdata", "library.yaml"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertGolden(t, filepath.Join(dir, "testdata", "list.golden"), got)
}

func TestListFiltersByQuery(t *testing.T) {
	isolateEnv(t)
	library := filepath.Join(moduleDir(t), "testdata", "library.yaml")
	got, err := execute(t, "list", "QUANTIZED", "--no-demo", "--log-level", "error", "--library", library)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(got, "lib-1") || !strings.Contains(got, "lib-2") {
		t.Fatalf("unexpected filter output:\n%s", got)
	}

	got, err = execute(t, "list", "nothing-like-this", "--no-demo", "--log-level", "error", "--library", library)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got != "no papers match \"nothing-like-this\"\n" {
		t.Fatalf("unexpected empty output %q", got)
	}
}

func TestListIncludesDemoPapersByDefault(t *testing.T) {
	isolateEnv(t)
	got, err := execute(t, "list", "--log-level", "error")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if !strings.Contains(got, id+"  ") {
			t.Fatalf("demo paper %s missing:\n%s", id, got)
		}
	}
}

func TestListRejectsBadLibrary(t *testing.T) {
	isolateEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("papers:\n  - id: x\n    title: No authors\n"), 0o644); err != nil {
		t.Fatalf("write library: %v", err)
	}
	if _, err := execute(t, "list", "--log-level", "error", "--library", bad); err == nil || !strings.Contains(err.Error(), "no authors") {
		t.Fatalf("expected library validation error, got %v", err)
	}
}

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2304.03442v1</id>
    <published>2023-04-07T17:00:00Z</published>
    <title>Generative Agents: Interactive Simulacra of Human Behavior</title>
    <summary>Believable proxies of human behavior can empower interactive applications.</summary>
    <author><name>Joon Sung Park</name></author>
    <category term="cs.HC"/>
  </entry>
</feed>`

func TestImportPrintsYAMLRecord(t *testing.T) {
	isolateEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_list") != "2304.03442" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed))
	}))
	t.Cleanup(server.Close)

	configPath := filepath.Join(t.TempDir(), "paperdesk.yaml")
	config := "import:\n  apiUrl: " + server.URL + "/api/query\n  skipFullText: true\nlogging:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := execute(t, "import", "--config", configPath, "https://arxiv.org/abs/2304.03442")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var paper papers.Paper
	if err := yaml.Unmarshal([]byte(got), &paper); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, got)
	}
	if paper.ID != "arxiv-2304.03442" || paper.Status != papers.StatusPublished {
		t.Fatalf("unexpected record %+v", paper)
	}
	if paper.PublishDate != "2023-04-07" || len(paper.Authors) != 1 || paper.Authors[0].Name != "Joon Sung Park" {
		t.Fatalf("metadata not mapped: %+v", paper)
	}
}

func TestImportRequiresReference(t *testing.T) {
	isolateEnv(t)
	if _, err := execute(t, "import"); err == nil {
		t.Fatalf("expected an argument error")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "paperdesk.yaml")
	config := "ai:\n  provider: gemini\n  apiKey: gemini-key\n  model: gemini-2.5-flash\nlogging:\n  level: info\n"
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts := &rootOptions{
		configPath: configPath,
		provider:   "ollama",
		model:      "llama3",
		endpoint:   "http://127.0.0.1:11434",
		logLevel:   "debug",
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.AI.Provider != "ollama" || cfg.AI.Model != "llama3" || cfg.AI.Endpoint != "http://127.0.0.1:11434" {
		t.Fatalf("flags not applied: %+v", cfg.AI)
	}
	if cfg.AI.APIKey != "" {
		t.Fatalf("key for the previous provider should be dropped, got %q", cfg.AI.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level flag ignored: %q", cfg.Logging.Level)
	}

	opts.provider = "bogus"
	if _, err := opts.loadConfig(); err == nil {
		t.Fatalf("expected validation error for unknown provider")
	}
}

func assertGolden(t *testing.T, path, got string) {
	t.Helper()
	if os.Getenv("PAPERDESK_UPDATE_GOLDEN") != "" {
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		t.Skipf("golden updated: %s", path)
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if string(want) != got {
		t.Fatalf("golden mismatch\n---- want ----\n%s\n---- got ----\n%s", want, got)
	}
}
