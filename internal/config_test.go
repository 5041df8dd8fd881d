package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/noteexplorer/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestConfig_Invalid(t *testing.T) {
	cases := map[string]func(*Config){
		"bad log format":     func(c *Config) { c.App.LogFormat = "xml" },
		"empty path":         func(c *Config) { c.Notes.Path = "" },
		"empty extension":    func(c *Config) { c.Notes.Extension = "" },
		"nested extension":   func(c *Config) { c.Notes.Extension = "md/x" },
		"bad id pattern":     func(c *Config) { c.Parser.IDPattern = `\d{14}(` },
		"empty id pattern":   func(c *Config) { c.Parser.IDPattern = "" },
		"multi-line heading": func(c *Config) { c.Parser.BacklinksHeading = "## A\n## B" },
		"empty sqlite path":  func(c *Config) { c.Export.SQLitePath = "" },
		"tiny debounce":      func(c *Config) { c.Watch.Debounce = time.Millisecond },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_Normalizes(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = ""
	cfg.Notes.Extension = ".txt"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.App.LogFormat != LogFormatText {
		t.Errorf("log format = %q", cfg.App.LogFormat)
	}
	if cfg.Notes.Extension != "txt" {
		t.Errorf("extension = %q", cfg.Notes.Extension)
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "noteexplorer.yaml")
	content := "app:\n  log_level: debug\n  log_format: json\n" +
		"notes:\n  path: /notes\n" +
		"parser:\n  id_pattern: '\\d{12}'\n" +
		"watch:\n  debounce: 2s\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := config.Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel.String() != "DEBUG" || cfg.App.LogFormat != LogFormatJSON {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Notes.Path != "/notes" || cfg.Notes.Extension != "md" {
		t.Errorf("notes = %+v", cfg.Notes)
	}
	if cfg.Parser.IDPattern != `\d{12}` || cfg.Parser.BacklinksHeading != "## Links to this note" {
		t.Errorf("parser = %+v", cfg.Parser)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
}
