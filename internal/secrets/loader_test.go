package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("TEST_SECRET", "from-env")

	got, err := Load(Source{Name: "api key", Value: "inline", File: path, Env: "TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadPrefersEnvOverValue(t *testing.T) {
	t.Setenv("TEST_SECRET", " from-env ")

	got, err := Load(Source{Name: "api key", Value: "inline", Env: "TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadFallsBackToValue(t *testing.T) {
	t.Setenv("TEST_SECRET", "")

	got, err := Load(Source{Name: "api key", Value: "inline", Env: "TEST_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	if _, err := Load(Source{Name: "api key", File: empty}); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}

	if _, err := Load(Source{}); err == nil || !strings.Contains(err.Error(), "secret is not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}

	if _, err := Load(Source{Name: "db", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected read error")
	}
}
