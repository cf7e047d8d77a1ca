package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "veon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxCallDepth != 1000 {
		t.Errorf("expected default depth 1000, got %d", cfg.MaxCallDepth)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "max_call_depth: 50\nlog_level: verbose\ncolor: false\nhistory_file: /tmp/h\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{MaxCallDepth: 50, LogLevel: "verbose", Color: false, HistoryFile: "/tmp/h"}
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxCallDepth != 1000 || !cfg.Color {
		t.Errorf("expected defaults to survive, got %+v", cfg)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "max_depth: 3\n", "max_depth"},
		{"bad depth", "max_call_depth: 0\n", "max_call_depth must be positive"},
		{"bad level", "log_level: loud\n", "unknown log_level"},
		{"bad yaml", "max_call_depth: [\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	t.Setenv(EnvVar, "/from/env.yaml")
	if got := Locate("/from/flag.yaml"); got != "/from/flag.yaml" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := Locate(""); got != "/from/env.yaml" {
		t.Errorf("expected env path, got %q", got)
	}
}
