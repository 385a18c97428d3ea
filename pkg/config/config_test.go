package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Journal.Path != filepath.Join(dir, "logs", "edits.jsonl") {
		t.Errorf("Journal.Path = %s", cfg.Journal.Path)
	}
	if cfg.HistorySize != DefaultHistorySize {
		t.Errorf("HistorySize = %d, want %d", cfg.HistorySize, DefaultHistorySize)
	}
	if cfg.EventBuffer != DefaultEventBuffer {
		t.Errorf("EventBuffer = %d, want %d", cfg.EventBuffer, DefaultEventBuffer)
	}
	if cfg.API.Addr != DefaultAPIAddr || cfg.GRPC.Addr != DefaultGRPCAddr {
		t.Errorf("addrs = %s / %s", cfg.API.Addr, cfg.GRPC.Addr)
	}
	if cfg.API.AuthEnabled() {
		t.Error("auth should be off by default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Journal.Path != filepath.Join(dir, "logs", "edits.jsonl") {
		t.Errorf("Journal.Path = %s", cfg.Journal.Path)
	}
	if cfg.HistorySize != DefaultHistorySize {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
	if cfg, err := Load(""); err != nil || cfg.EventBuffer != DefaultEventBuffer {
		t.Errorf("empty path: %+v, %v", cfg, err)
	}
}

func TestLoadAppliesDefaultsAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blockedit.yaml")
	data := `grammar: lang.hcl
document: /abs/doc.blk
history_size: 0
log_level: debug
journal:
  path: logs/edits.jsonl
api:
  keys: [secret]
  users:
    admin: hunter2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grammar != filepath.Join(dir, "lang.hcl") {
		t.Errorf("Grammar = %s", cfg.Grammar)
	}
	if cfg.Document != "/abs/doc.blk" {
		t.Errorf("Document = %s", cfg.Document)
	}
	if cfg.Journal.Path != filepath.Join(dir, "logs", "edits.jsonl") {
		t.Errorf("Journal.Path = %s", cfg.Journal.Path)
	}
	if cfg.HistorySize != DefaultHistorySize {
		t.Errorf("HistorySize = %d", cfg.HistorySize)
	}
	if cfg.API.Addr != DefaultAPIAddr {
		t.Errorf("API.Addr = %s", cfg.API.Addr)
	}
	if !cfg.API.AuthEnabled() || cfg.API.Users["admin"] != "hunter2" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v", cfg.Level())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "history_size: [1, 2"},
		{"bad level", "log_level: loud\n"},
		{"empty password", "api:\n  users:\n    admin: \"\"\n"},
		{"syslog without host", "syslog:\n  - port: 514\n"},
		{"negative journal size", "journal:\n  path: j\n  max_size: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "c.yaml")
	cfg := DefaultConfig()
	cfg.Start = "program"
	cfg.GRPC.Addr = "127.0.0.1:9999"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Start != "program" || loaded.GRPC.Addr != "127.0.0.1:9999" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"trace", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
