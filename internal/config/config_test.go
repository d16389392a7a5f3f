package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/entity"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formdraft.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
base_url: https://api.example.test
timeout: 5s
headers:
  Authorization: Bearer token
endpoints:
  customer: /v2/customers
attachment:
  max_size: 1024
  preview_dir: /tmp/previews
theme:
  name: formdraft
  variant: plain
log_level: debug
`)
	cfg, err := load(path, env(map[string]string{
		EnvBaseURL:     "http://localhost:9000",
		EnvTimeout:     "12",
		EnvMetricsAddr: ":9090",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Config{
		BaseURL:     "http://localhost:9000",
		Timeout:     12 * time.Second,
		Headers:     map[string]string{"Authorization": "Bearer token"},
		Endpoints:   map[string]string{"customer": "/v2/customers"},
		Attachment:  Attachment{MaxSize: 1024, PreviewDir: "/tmp/previews"},
		Theme:       Theme{Name: "formdraft", Variant: "plain"},
		LogLevel:    "debug",
		MetricsAddr: ":9090",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Endpoint(entity.KindCustomer); got != "/v2/customers" {
		t.Fatalf("unexpected endpoint %q", got)
	}
	if got := cfg.Endpoint(entity.KindUser); got != "" {
		t.Fatalf("unset endpoint should be empty, got %q", got)
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Fatalf("unexpected level %v", level)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "unknown endpoint", file: "endpoints:\n  invoice: /invoices\n", want: "unknown kind"},
		{name: "bad level", file: "log_level: loud\n", want: "log_level"},
		{name: "bad timeout", env: map[string]string{EnvTimeout: "soon"}, want: EnvTimeout},
		{name: "broken yaml", file: "base_url: [\n", want: "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := load(path, env(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
