package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppliedBetween(t *testing.T) {
	files := []string{"000001_init.up.sql", "000002_reference.up.sql", "000003_x.up.sql"}
	got := appliedBetween(files, 1, 3)
	if len(got) != 2 || got[0] != "000002_reference.up.sql" {
		t.Fatalf("applied = %v", got)
	}
	if got := appliedBetween(files, 3, 3); len(got) != 0 {
		t.Fatalf("expected nothing applied, got %v", got)
	}
}

func TestUpFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	got := upFiles(dir)
	if len(got) != 2 || got[0] != "000001_a.up.sql" || got[1] != "000002_b.up.sql" {
		t.Fatalf("files = %v", got)
	}
}

func TestPreviewFilesCollapses(t *testing.T) {
	if got, cut := previewFiles([]string{"a", "b"}, 6); got != "a, b" || cut {
		t.Fatalf("preview = %q %v", got, cut)
	}
	if got, cut := previewFiles([]string{"a", "b", "c"}, 2); got != "a, b, ..." || !cut {
		t.Fatalf("preview = %q %v", got, cut)
	}
}

func TestConfigNormalizeAndURL(t *testing.T) {
	cfg := Config{Host: "db", Name: "stock", User: "bot", Password: "p@ss"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MaxConnections != 10 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	want := "postgres://bot:p%40ss@db:5432/stock?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
	if err := (&Config{Name: "x"}).Normalize(); err == nil {
		t.Fatal("expected error for missing host")
	}
}
