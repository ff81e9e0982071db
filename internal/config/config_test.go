package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `site:
  root: ./site
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Site.Root != "./site" {
		t.Errorf("Site.Root = %q, want ./site", cfg.Site.Root)
	}
	if cfg.Nav.AnnotatedPath != "ecss/annotated.md" {
		t.Errorf("Nav.AnnotatedPath = %q, want ecss/annotated.md", cfg.Nav.AnnotatedPath)
	}
	if cfg.Nav.OutputPath != "ecss/SUMMARY.md" {
		t.Errorf("Nav.OutputPath = %q, want ecss/SUMMARY.md", cfg.Nav.OutputPath)
	}
	if cfg.Nav.Header != "* [API Reference](annotated.md)" {
		t.Errorf("Nav.Header = %q", cfg.Nav.Header)
	}
	if cfg.Watch.Debounce != "2s" {
		t.Errorf("Watch.Debounce = %q, want 2s", cfg.Watch.Debounce)
	}
	if d := cfg.Watch.DebounceDuration(); d != 2*time.Second {
		t.Errorf("DebounceDuration() = %v, want 2s", d)
	}
}

func TestWatchDurations(t *testing.T) {
	w := WatchConfig{Debounce: "500ms", Interval: "5m"}
	if d := w.DebounceDuration(); d != 500*time.Millisecond {
		t.Errorf("DebounceDuration() = %v, want 500ms", d)
	}
	iv, err := w.IntervalDuration()
	if err != nil {
		t.Fatalf("IntervalDuration failed: %v", err)
	}
	if iv != 5*time.Minute {
		t.Errorf("IntervalDuration() = %v, want 5m", iv)
	}

	if iv, err := (WatchConfig{}).IntervalDuration(); err != nil || iv != 0 {
		t.Errorf("empty interval = (%v, %v), want (0, nil)", iv, err)
	}
	if _, err := (WatchConfig{Interval: "often"}).IntervalDuration(); err == nil {
		t.Error("expected error for malformed interval")
	}
	if d := (WatchConfig{Debounce: "bogus"}).DebounceDuration(); d != 2*time.Second {
		t.Errorf("malformed debounce = %v, want 2s fallback", d)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("NAVBUILDER_TEST_ROOT", "/srv/docs")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `site:
  root: ${NAVBUILDER_TEST_ROOT}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Site.Root != "/srv/docs" {
		t.Errorf("Site.Root = %q, want /srv/docs", cfg.Site.Root)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefaultMatchesReferenceBehavior(t *testing.T) {
	cfg := Default()
	if cfg.Site.Root != "." {
		t.Errorf("Site.Root = %q, want .", cfg.Site.Root)
	}
	if cfg.Nav.AnnotatedPath != "ecss/annotated.md" || cfg.Nav.OutputPath != "ecss/SUMMARY.md" {
		t.Errorf("nav defaults = %+v", cfg.Nav)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by default")
	}
}

func TestHistoryPathDefaultOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{History: HistoryConfig{Enabled: true}}
	cfg.applyDefaults()
	if cfg.History.Path != "navbuilder.db" {
		t.Errorf("History.Path = %q, want navbuilder.db", cfg.History.Path)
	}

	cfg = &Config{}
	cfg.applyDefaults()
	if cfg.History.Path != "" {
		t.Errorf("History.Path = %q, want empty when disabled", cfg.History.Path)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when file exists and force is false")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init with force failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of generated config failed: %v", err)
	}
	if cfg.Site.Root != "./site" {
		t.Errorf("generated Site.Root = %q", cfg.Site.Root)
	}
}
