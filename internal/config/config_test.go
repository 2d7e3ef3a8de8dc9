package config

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/statetree/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
	if cfg.Inspect.Address != DefaultInspectAddress {
		t.Errorf("Inspect.Address = %q, want %q", cfg.Inspect.Address, DefaultInspectAddress)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(err error) string {
	var se *errors.Error
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if code := errorCode(err); code != "E141" {
		t.Errorf("missing config: error code = %q, want E141 (err=%v)", code, err)
	}

	path := writeConfig(t, tmpDir, `{
  "log": {"level": "debug", "format": "json"},
  "inspect": {"address": ":9000"},
  "metrics": {"enabled": false},
  "tracing": {"enabled": true, "tracerName": "demo"}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Inspect.Address != ":9000" {
		t.Errorf("Inspect.Address = %q, want :9000", cfg.Inspect.Address)
	}
	if cfg.Inspect.StreamBuffer != DefaultStreamBuffer {
		t.Errorf("Inspect.StreamBuffer = %d, want default %d", cfg.Inspect.StreamBuffer, DefaultStreamBuffer)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("Metrics.Namespace = %q, want default", cfg.Metrics.Namespace)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != "demo" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"log": `)

	_, err := LoadFile(path)
	if code := errorCode(err); code != "E120" {
		t.Errorf("error code = %q, want E120 (err=%v)", code, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestResolve(t *testing.T) {
	t.Run("explicit missing path", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "nope.json"))
		if code := errorCode(err); code != "E141" {
			t.Errorf("error code = %q, want E141", code)
		}
	})

	t.Run("found in parent directory", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, `{"log": {"level": "warn"}}`)
		sub := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(sub, 0755); err != nil {
			t.Fatal(err)
		}
		chdir(t, sub)

		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
		}
	})

	t.Run("defaults without a file", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if cfg == nil || cfg.Inspect.Address == "" {
			t.Errorf("Resolve() = %+v, want a usable config", cfg)
		}
	})
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides []string
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name:      "dotted string",
			overrides: []string{"log.level=debug"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
				}
			},
		},
		{
			name:      "dotted bool and number",
			overrides: []string{"metrics.enabled=false", "inspect.streamBuffer=8"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Metrics.Enabled {
					t.Error("Metrics.Enabled should be false")
				}
				if cfg.Inspect.StreamBuffer != 8 {
					t.Errorf("Inspect.StreamBuffer = %d, want 8", cfg.Inspect.StreamBuffer)
				}
			},
		},
		{
			name:      "merge patch",
			overrides: []string{`{"tracing":{"enabled":true,"tracerName":"x"}}`},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != "x" {
					t.Errorf("Tracing = %+v", cfg.Tracing)
				}
				if cfg.Log.Level != DefaultLogLevel {
					t.Errorf("unrelated field changed: Log.Level = %q", cfg.Log.Level)
				}
			},
		},
		{
			name:      "null restores default",
			overrides: []string{"inspect.address=:1", `{"inspect":{"address":null}}`},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Inspect.Address != DefaultInspectAddress {
					t.Errorf("Inspect.Address = %q, want default", cfg.Inspect.Address)
				}
			},
		},
		{
			name:      "later override wins",
			overrides: []string{"log.format=text", "log.format=json"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Log.Format != "json" {
					t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			if err := cfg.ApplyOverrides(tt.overrides...); err != nil {
				t.Fatalf("ApplyOverrides error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestApplyOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"no assignment", "log.level"},
		{"empty key", "=debug"},
		{"empty segment", "log..level=debug"},
		{"malformed json", `{"log":`},
		{"wrong type", `{"inspect":{"streamBuffer":"many"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			err := cfg.ApplyOverrides(tt.override)
			if code := errorCode(err); code != "E124" {
				t.Errorf("error code = %q, want E124 (err=%v)", code, err)
			}
			if cfg.Log.Level != DefaultLogLevel || cfg.Inspect.StreamBuffer != DefaultStreamBuffer {
				t.Error("failed override should leave the config unchanged")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "E121"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "E122"},
		{"bad address", func(c *Config) { c.Inspect.Address = "7070" }, "E123"},
		{"negative buffer", func(c *Config) { c.Inspect.StreamBuffer = -1 }, "E125"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if code := errorCode(err); code != tt.wantCode {
				t.Errorf("error code = %q, want %q (err=%v)", code, tt.wantCode, err)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		cfg := New()
		cfg.Log.Format = "json"
		cfg.Log.Level = "warn"

		var buf bytes.Buffer
		logger := cfg.Logger(&buf)
		logger.Info("hidden")
		logger.Warn("shown", "k", "v")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
		}
		if rec["msg"] != "shown" || rec["k"] != "v" {
			t.Errorf("record = %v", rec)
		}
	})

	t.Run("text format", func(t *testing.T) {
		cfg := New()
		cfg.Log.Format = "text"

		var buf bytes.Buffer
		cfg.Logger(&buf).Info("hello")
		if !strings.Contains(buf.String(), "msg=hello") {
			t.Errorf("output = %q, want text record", buf.String())
		}
	})

	t.Run("auto on a non-terminal writer is json", func(t *testing.T) {
		cfg := New()

		var buf bytes.Buffer
		cfg.Logger(&buf).Info("hello")
		if !strings.HasPrefix(buf.String(), "{") {
			t.Errorf("output = %q, want JSON record", buf.String())
		}
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		cfg := New()
		cfg.Log.Level = "loud"
		cfg.Log.Format = "text"

		var buf bytes.Buffer
		logger := cfg.Logger(&buf)
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			t.Error("debug should be disabled")
		}
		if !logger.Enabled(context.Background(), slog.LevelInfo) {
			t.Error("info should be enabled")
		}
	})
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := New()
	cfg.Log.Level = "debug"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if !Exists(dir) {
		t.Error("Exists() should report the saved file")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Log.Level != "debug" || !loaded.Metrics.Enabled {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestFindConfigDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	sub := filepath.Join(root, "x")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindConfigDir(sub)
	if err != nil {
		t.Fatalf("FindConfigDir error: %v", err)
	}
	if got != root {
		t.Errorf("FindConfigDir = %q, want %q", got, root)
	}
}
