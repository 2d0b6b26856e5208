package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValidate_NormalizesCommaDelimitedIssues(t *testing.T) {
	cfg := New()
	cfg.Target.FixVersion = "8.0.3.GA"
	cfg.Target.Issues = []string{"o/r#1, o/r#2", "o/r#3", ",,"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	want := []string{"o/r#1", "o/r#2", "o/r#3"}
	if !reflect.DeepEqual(cfg.Target.Issues, want) {
		t.Fatalf("Issues normalized mismatch: got %v want %v", cfg.Target.Issues, want)
	}
	if cfg.Mode() != ModeExplicit {
		t.Fatalf("Mode() = %s, want %s", cfg.Mode(), ModeExplicit)
	}
}

func TestValidate_TargetCombinations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"nothing", func(*Config) {}, "one of --tracking-issue or --fix-version"},
		{"both", func(c *Config) {
			c.Target.TrackingIssue = "o/r#1"
			c.Target.FixVersion = "v"
			c.Target.Issues = []string{"o/r#2"}
		}, "mutually exclusive"},
		{"issues without fix version", func(c *Config) {
			c.Target.TrackingIssue = "o/r#1"
			c.Target.Issues = []string{"o/r#2"}
		}, "--issues can only be used with --fix-version"},
		{"fix version without issues", func(c *Config) { c.Target.FixVersion = "v" }, "--fix-version requires --issues"},
		{"tracking issue", func(c *Config) { c.Target.TrackingIssue = " o/r#1 " }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() returned error: %v", err)
				}
				if cfg.Mode() != ModeTransitive || cfg.Target.TrackingIssue != "o/r#1" {
					t.Fatalf("unexpected target: %+v", cfg.Target)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Enums(t *testing.T) {
	cfg := New()
	cfg.Target.TrackingIssue = "o/r#1"
	cfg.Target.Tracker = " JIRA "
	cfg.Output.Format = "YAML"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Target.Tracker != "jira" || cfg.Output.Format != "yaml" {
		t.Fatalf("enums not normalized: tracker=%q format=%q", cfg.Target.Tracker, cfg.Output.Format)
	}

	cfg = New()
	cfg.Target.TrackingIssue = "o/r#1"
	cfg.Target.Tracker = "gitlab"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported tracker error")
	}

	cfg = New()
	cfg.Target.TrackingIssue = "o/r#1"
	cfg.Output.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestValidate_RuntimeBounds(t *testing.T) {
	mutations := map[string]func(*Config){
		"workers":         func(c *Config) { c.Runtime.Workers = 0 },
		"queue-size":      func(c *Config) { c.Runtime.QueueSize = 0 },
		"resolve-timeout": func(c *Config) { c.Runtime.ResolveTimeout = 0 },
		"batch-timeout":   func(c *Config) { c.Runtime.BatchTimeout = -time.Second },
		"timeout":         func(c *Config) { c.Runtime.Timeout = 0 },
		"max-issues":      func(c *Config) { c.Target.MaxIssues = -1 },
		"request-timeout": func(c *Config) { c.GitHub.RequestTimeout = -time.Second },
	}
	for flag, mutate := range mutations {
		cfg := New()
		cfg.Target.TrackingIssue = "o/r#1"
		mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "--"+flag) {
			t.Fatalf("%s: Validate() error = %v", flag, err)
		}
	}
}

func TestValidate_OutFormatInference(t *testing.T) {
	tests := []struct {
		out     string
		format  string
		want    string
		wantErr bool
	}{
		{out: "report.json", want: "json"},
		{out: "report.ndjson", want: "ndjson"},
		{out: "report.jsonl", want: "ndjson"},
		{out: "report.YML", want: "yaml"},
		{out: "report.toml", want: "toml"},
		{out: "report.txt", wantErr: true},
		{out: "report", wantErr: true},
		{out: "report", format: "JSON", want: "json"},
		{out: "report.json", format: "text", wantErr: true},
	}
	for _, tt := range tests {
		cfg := New()
		cfg.Target.TrackingIssue = "o/r#1"
		cfg.Output.Out = tt.out
		cfg.Output.OutFormat = tt.format
		err := cfg.Validate()
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s/%s: expected error", tt.out, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s/%s: Validate() returned error: %v", tt.out, tt.format, err)
		}
		if cfg.Output.OutFormat != tt.want {
			t.Fatalf("%s/%s: OutFormat = %q, want %q", tt.out, tt.format, cfg.Output.OutFormat, tt.want)
		}
	}
}

func TestLoad_DefaultsMatchNew(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, New()) {
		t.Fatalf("Load() defaults mismatch:\n got %+v\nwant %+v", cfg, New())
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payloadmedic.toml")
	content := `
stream = "eap-8.0.x"
workers = 4
batch-timeout = "90s"
sub-issues = false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAYLOADMEDIC_CONFIG", path)
	t.Setenv("PAYLOADMEDIC_WORKERS", "7")
	t.Setenv("PAYLOADMEDIC_FIX_VERSION", "8.0.3.GA")
	t.Setenv("PAYLOADMEDIC_ISSUES", "o/r#1,o/r#2")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if cfg.Target.Stream != "eap-8.0.x" {
		t.Fatalf("Stream = %q", cfg.Target.Stream)
	}
	if cfg.Runtime.Workers != 7 {
		t.Fatalf("Workers = %d, want env value 7", cfg.Runtime.Workers)
	}
	if cfg.Runtime.BatchTimeout != 90*time.Second {
		t.Fatalf("BatchTimeout = %s", cfg.Runtime.BatchTimeout)
	}
	if cfg.GitHub.SubIssues {
		t.Fatal("SubIssues should be disabled by the config file")
	}
	if cfg.Target.FixVersion != "8.0.3.GA" || !reflect.DeepEqual(cfg.Target.Issues, []string{"o/r#1", "o/r#2"}) {
		t.Fatalf("unexpected target: %+v", cfg.Target)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	v := NewViper()
	v.Set("config", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(v); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestWriteDefault_RoundTripsThroughLoad(t *testing.T) {
	for _, format := range []string{"toml", "yaml"} {
		var buf bytes.Buffer
		if err := WriteDefault(&buf, format); err != nil {
			t.Fatalf("%s: WriteDefault() returned error: %v", format, err)
		}
		if !strings.Contains(buf.String(), "workers") || !strings.Contains(buf.String(), "5m0s") {
			t.Fatalf("%s: unexpected default file:\n%s", format, buf.String())
		}

		path := filepath.Join(t.TempDir(), "payloadmedic."+format)
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			t.Fatal(err)
		}
		v := NewViper()
		v.Set("config", path)
		cfg, err := Load(v)
		if err != nil {
			t.Fatalf("%s: Load() returned error: %v", format, err)
		}
		cfg.Runtime.ConfigFile = ""
		if !reflect.DeepEqual(cfg, New()) {
			t.Fatalf("%s: loaded defaults mismatch:\n got %+v\nwant %+v", format, cfg, New())
		}
	}

	if err := WriteDefault(&bytes.Buffer{}, "ini"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
