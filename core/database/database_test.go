package database

import (
	"testing"
	"testing/fstest"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "bot", Password: "p@ss", Name: "scholar"}
	if got, want := cfg.DSN(), "postgres://bot:p%40ss@db:5432/scholar?sslmode=disable"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
	host, name := cfg.Target()
	if host != "db:5432" || name != "scholar" {
		t.Fatalf("Target() = %q %q", host, name)
	}

	cfg.URL = "postgres://u:p@remote:6543/prod?sslmode=require"
	if cfg.DSN() != cfg.URL {
		t.Fatalf("URL must take precedence, got %q", cfg.DSN())
	}
	if !cfg.Configured() {
		t.Fatal("expected configured")
	}
	if (Config{}).Configured() {
		t.Fatal("empty config must not be configured")
	}
}

func TestMigrationFileSelection(t *testing.T) {
	files := fstest.MapFS{
		"000001_init.up.sql":       {Data: []byte("select 1;")},
		"000001_init.down.sql":     {Data: []byte("select 1;")},
		"000002_refs.up.sql":       {Data: []byte("select 1;")},
		"000003_plan_seed.up.sql":  {Data: []byte("select 1;")},
		"README.md":                {Data: []byte("docs")},
	}
	names := listMigrationFiles(files)
	if len(names) != 3 {
		t.Fatalf("expected 3 up files, got %v", names)
	}
	applied := selectApplied(names, 1, 3)
	if len(applied) != 2 || applied[0] != "000002_refs.up.sql" {
		t.Fatalf("unexpected applied set %v", applied)
	}
	if len(selectApplied(names, 3, 3)) != 0 {
		t.Fatal("no files should be applied without a version change")
	}
}
