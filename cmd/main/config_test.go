package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/CTAG07/Sundew/pkg/markdown"
)

func TestLoadConfig_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sundew.json")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Build.MarkdownEngine != markdown.EngineClassic || cfg.Server.DebounceMs != 300 || cfg.Templates.MaxIncludeDepth != 32 {
		t.Errorf("unexpected defaults %+v %+v %+v", cfg.Build, cfg.Server, cfg.Templates)
	}
	if _, err = os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}

	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading defaults: %v", err)
	}
	if *again.Build != *cfg.Build || *again.Server != *cfg.Server {
		t.Errorf("reloaded config differs: %+v vs %+v", again.Build, cfg.Build)
	}
}

func TestLoadConfig_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sundew.json")
	data := `{"build_config": {"site_dir": "blog", "markdown_engine": "goldmark"}, "server_config": {"debounce_ms": 0}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Build.SiteDir != "blog" || cfg.Build.MarkdownEngine != "goldmark" {
		t.Errorf("file values not applied: %+v", cfg.Build)
	}
	if cfg.Build.OutputDir != "./public" || !cfg.Build.SkipUnchanged {
		t.Errorf("missing keys should keep their defaults: %+v", cfg.Build)
	}
	if cfg.Server.DebounceMs != 300 || cfg.Templates == nil {
		t.Errorf("invalid or missing sections not defaulted: %+v %+v", cfg.Server, cfg.Templates)
	}

	if err = os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadConfig(path); err == nil {
		t.Error("a malformed config file should fail to load")
	}
}

func TestConfigManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sundew.json")
	cm := NewConfigManager(DefaultConfig(), path, nil)

	got := cm.Get()
	got.Build.SiteDir = "changed"
	if cm.Get().Build.SiteDir == "changed" {
		t.Error("Get() must return a copy")
	}

	if err := cm.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	saved, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Build.SiteDir != "changed" || cm.Get().Build.SiteDir != "changed" {
		t.Errorf("update not applied: saved %q", saved.Build.SiteDir)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for name, want := range tests {
		if got := parseLogLevel(name); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
