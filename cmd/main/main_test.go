package main

import (
	"testing"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"site", "out", "--serve", "-w", "--engine", "goldmark"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.siteDir != "site" || opts.outputDir != "out" || !opts.serve || opts.configPath != "./sundew.json" {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg := DefaultConfig()
	cfg.Server.Addr = ":1234"
	opts.apply(cfg)
	if cfg.Build.SiteDir != "site" || cfg.Build.OutputDir != "out" || cfg.Build.MarkdownEngine != "goldmark" || !cfg.Server.Watch {
		t.Errorf("flags not applied: %+v %+v", cfg.Build, cfg.Server)
	}
	if cfg.Server.Addr != ":1234" || cfg.Build.LogLevel != "info" {
		t.Errorf("unset flags must keep config values: %+v %+v", cfg.Build, cfg.Server)
	}
}

func TestParseFlags_SiteFlagWins(t *testing.T) {
	opts, err := parseFlags([]string{"-s", "a", "-o", "b", "c"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.siteDir != "a" || opts.outputDir != "b" {
		t.Errorf("unexpected options %+v", opts)
	}
	if _, err = parseFlags([]string{"a", "b", "c"}); err == nil {
		t.Error("three positional arguments should be rejected")
	}
}

func TestManifestFile(t *testing.T) {
	tests := map[string]string{
		"./m.db":                            "./m.db",
		"./m.db?_journal_mode=WAL":          "./m.db",
		"file:/tmp/m.db?_busy_timeout=5000": "/tmp/m.db",
	}
	for dsn, want := range tests {
		if got := manifestFile(dsn); got != want {
			t.Errorf("manifestFile(%q) = %q, want %q", dsn, got, want)
		}
	}
}
