package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/rx/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Runtime.Budget != DefaultBudget {
		t.Errorf("Runtime.Budget = %d, want %d", cfg.Runtime.Budget, DefaultBudget)
	}
	if cfg.Persist.Backend != BackendMemory {
		t.Errorf("Persist.Backend = %q, want %q", cfg.Persist.Backend, BackendMemory)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if errors.CodeOf(err) != errors.CodeConfig {
		t.Errorf("expected %s, got %q", errors.CodeConfig, errors.CodeOf(err))
	}

	content := `
name: shop
server:
  addr: ":8080"
  devtools: true
runtime:
  budget: 10
  placeholder:
    text: Wait
persist:
  backend: bolt
  autosave: 2s
  bolt:
    path: data/state.db
initialState:
  cart:
    items: []
    total: 0
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "shop" {
		t.Errorf("Name = %q, want shop", cfg.Name)
	}
	if cfg.Server.Addr != ":8080" || !cfg.Server.Devtools {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Runtime.Budget != 10 {
		t.Errorf("Runtime.Budget = %d, want 10", cfg.Runtime.Budget)
	}
	if cfg.Runtime.Placeholder.Text != "Wait" {
		t.Errorf("Placeholder.Text = %q, want Wait", cfg.Runtime.Placeholder.Text)
	}
	if cfg.AutoSaveDelay() != 2*time.Second {
		t.Errorf("AutoSaveDelay() = %v, want 2s", cfg.AutoSaveDelay())
	}
	if want := filepath.Join(tmpDir, "data", "state.db"); cfg.BoltPath() != want {
		t.Errorf("BoltPath() = %q, want %q", cfg.BoltPath(), want)
	}
	want := map[string]any{"cart": map[string]any{"items": []any{}, "total": 0}}
	if diff := cmp.Diff(want, cfg.InitialState); diff != "" {
		t.Errorf("InitialState mismatch (-want +got):\n%s", diff)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.CodeOf(err) != errors.CodeConfig {
		t.Errorf("expected %s, got %q", errors.CodeConfig, errors.CodeOf(err))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad backend", func(c *Config) { c.Persist.Backend = "ftp" }, "persist.backend"},
		{"s3 without bucket", func(c *Config) { c.Persist.Backend = BackendS3 }, "persist.s3.bucket"},
		{"s3 with bucket", func(c *Config) {
			c.Persist.Backend = BackendS3
			c.Persist.S3.Bucket = "b"
		}, ""},
		{"bad autosave", func(c *Config) { c.Persist.AutoSave = "soon" }, "persist.autosave"},
		{"negative autosave", func(c *Config) { c.Persist.AutoSave = "-1s" }, "persist.autosave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			var rxErr *errors.RxError
			if !stderrors.As(err, &rxErr) || !strings.Contains(rxErr.Detail, tt.wantErr) {
				t.Errorf("expected detail containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"RX_ADDR": ":9999", "RX_DEBUG": "true"}
	cfg := New()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
	}
	if !cfg.Debug {
		t.Error("expected Debug to be enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}

	cfg = New()
	cfg.ApplyEnv(func(k string) string {
		if k == "RX_DEBUG" {
			return "maybe"
		}
		return ""
	})
	if cfg.Debug {
		t.Error("expected an unparsable RX_DEBUG to be ignored")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Name = "saved"
	cfg.Persist.Backend = BackendBolt
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Name != "saved" || loaded.Persist.Backend != BackendBolt {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Path() != path {
		t.Errorf("Path() = %q, want %q", loaded.Path(), path)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(root)
	if gotReal, _ := filepath.EvalSymlinks(got); gotReal != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, root)
	}
}
