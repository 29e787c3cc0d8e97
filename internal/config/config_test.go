package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("PYQ_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.MaxDocuments != 5 || cfg.Pipeline.Timeout != time.Minute || !cfg.Pipeline.Parallel() {
		t.Errorf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if cfg.Classifier.APIKey != "g-key" || cfg.Auth.Secret != "s3cret" {
		t.Error("secrets should come from the environment")
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("token ttl = %s", cfg.Auth.TokenTTL)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	path := filepath.Join(t.TempDir(), "pyq.yaml")
	yaml := `
server:
  addr: ":9000"
pipeline:
  max_documents: 10
  timeout: 2m
  parallel_extract: false
classifier:
  provider: anthropic
  model: claude-test
auth:
  db: /tmp/users.db
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.MaxUploadBytes != 10<<20 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Pipeline.MaxDocuments != 10 || cfg.Pipeline.Timeout != 2*time.Minute || cfg.Pipeline.Parallel() {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Classifier.Provider != "anthropic" || cfg.Classifier.Model != "claude-test" || cfg.Classifier.APIKey != "a-key" {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	if cfg.Auth.DB != "/tmp/users.db" {
		t.Errorf("auth db = %s", cfg.Auth.DB)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "pyq.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  db: ~/.pyq/pyq.db\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(home, ".pyq", "pyq.db"); cfg.Auth.DB != want {
		t.Errorf("auth db = %s, want %s", cfg.Auth.DB, want)
	}
	if got := ExpandHome("relative/~/x.db"); got != "relative/~/x.db" {
		t.Errorf("ExpandHome changed a path without a leading ~: %s", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("pipeline:\n  max_documents: 0\nclassifier:\n  provider: openai\n"), 0644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"max_documents", "openai"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/pyq.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
