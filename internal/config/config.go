package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"payloadmedic/internal/tracker"
)

type Mode string

const (
	ModeTransitive Mode = "transitive"
	ModeExplicit   Mode = "explicit"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/process.go
	// - viper keys in internal/config/viper.go
	// - the default file in internal/config/file.go
	Target     Target
	Evaluators Evaluators
	Output     Output
	Runtime    Runtime
	GitHub     GitHub
}

type Target struct {
	// TrackingIssue is the payload tracking issue whose dependencies are evaluated
	// (see --tracking-issue). Mutually exclusive with FixVersion.
	TrackingIssue string

	// FixVersion correlates an explicit list of issues (see --fix-version).
	FixVersion string

	// Issues are the explicit dependency issues for FixVersion (see --issues).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Issues []string

	// Stream is the release stream the payload targets (see --stream).
	Stream string

	// Tracker tags the produced records with a tracker type (see --tracker).
	// Allowed values: github, jira, bugzilla.
	Tracker string

	// MaxIssues caps the dependencies evaluated per tracking issue (see --max-issues).
	// 0 means unlimited.
	MaxIssues int
}

type Evaluators struct {
	// Selector selects which evaluators run, in order (see --evaluators).
	// Empty means every registered evaluator.
	Selector string
}

type Output struct {
	// Format controls the console output format (see --format).
	// Allowed values: text, json, ndjson, yaml, toml.
	Format string

	// Out writes the report to this path as well (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format). If empty, it is
	// inferred from the --out file extension.
	OutFormat string

	// NoConsole suppresses console output (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Workers is the evaluation pool size (see --workers). Must be >= 1.
	Workers int

	// QueueSize bounds pending tasks per pool (see --queue-size). Must be >= 1.
	QueueSize int

	// ResolveTimeout bounds dependency resolution of a tracking issue (see --resolve-timeout).
	ResolveTimeout time.Duration

	// BatchTimeout bounds the evaluation of one batch (see --batch-timeout).
	BatchTimeout time.Duration

	// Timeout is the global timeout for the run (see --timeout).
	Timeout time.Duration

	// Verbose enables debug diagnostics on stderr.
	Verbose bool

	// ConfigFile is the optional config file read through viper (see --config).
	ConfigFile string
}

type GitHub struct {
	// Token authenticates API calls (see --token). When empty, GITHUB_TOKEN and the
	// GitHub CLI are tried.
	Token string

	// URL is a GitHub Enterprise Server base URL (see --github-url).
	URL string

	// RequestTimeout bounds each API request (see --request-timeout). 0 disables it.
	RequestTimeout time.Duration

	// SubIssues merges GitHub sub-issues into a tracking issue's dependencies (see --sub-issues).
	SubIssues bool
}

func New() *Config {
	return &Config{
		Target: Target{
			Tracker: string(tracker.TypeGitHub),
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			Workers:        10,
			QueueSize:      4096,
			ResolveTimeout: 5 * time.Minute,
			BatchTimeout:   5 * time.Minute,
			Timeout:        30 * time.Minute,
		},
		GitHub: GitHub{
			RequestTimeout: 30 * time.Second,
			SubIssues:      true,
		},
	}
}

// Mode reports which entry point the target selects. Only meaningful after Validate.
func (c *Config) Mode() Mode {
	if c.Target.TrackingIssue != "" {
		return ModeTransitive
	}
	return ModeExplicit
}

var formats = []string{"text", "json", "ndjson", "yaml", "toml"}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Target.Issues = splitCommaList(c.Target.Issues)
	c.Target.TrackingIssue = strings.TrimSpace(c.Target.TrackingIssue)
	c.Target.FixVersion = strings.TrimSpace(c.Target.FixVersion)
	c.Target.Stream = strings.TrimSpace(c.Target.Stream)

	// Target validation
	if c.Target.TrackingIssue == "" && c.Target.FixVersion == "" {
		return errors.New("one of --tracking-issue or --fix-version must be provided")
	}
	if c.Target.TrackingIssue != "" && c.Target.FixVersion != "" {
		return errors.New("--tracking-issue and --fix-version are mutually exclusive")
	}
	if c.Target.TrackingIssue != "" && len(c.Target.Issues) > 0 {
		return errors.New("--issues can only be used with --fix-version")
	}
	if c.Target.FixVersion != "" && len(c.Target.Issues) == 0 {
		return errors.New("--fix-version requires --issues")
	}
	if c.Target.MaxIssues < 0 {
		return errors.New("--max-issues must be >= 0")
	}

	c.Target.Tracker = normalizeEnumValue(c.Target.Tracker)
	if c.Target.Tracker == "" {
		c.Target.Tracker = string(tracker.TypeGitHub)
	}
	if !tracker.Type(c.Target.Tracker).Valid() {
		return fmt.Errorf("unsupported --tracker: %s (must be one of: github, jira, bugzilla)", c.Target.Tracker)
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if !isFormat(c.Output.Format) {
		return fmt.Errorf("unsupported --format: %s (must be one of: %s)", c.Output.Format, strings.Join(formats, ", "))
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			format, err := InferFormat(c.Output.Out)
			if err != nil {
				return err
			}
			c.Output.OutFormat = format
		} else if !isFormat(c.Output.OutFormat) || c.Output.OutFormat == "text" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Workers <= 0 {
		return errors.New("--workers must be >= 1")
	}
	if c.Runtime.QueueSize <= 0 {
		return errors.New("--queue-size must be >= 1")
	}
	if c.Runtime.ResolveTimeout <= 0 {
		return errors.New("--resolve-timeout must be > 0")
	}
	if c.Runtime.BatchTimeout <= 0 {
		return errors.New("--batch-timeout must be > 0")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.GitHub.RequestTimeout < 0 {
		return errors.New("--request-timeout must be >= 0")
	}

	return nil
}

// InferFormat maps an output file extension to a structured format.
func InferFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	case "":
		return "", errors.New("cannot infer output format from file extension (missing extension); use --out-format")
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
	}
}

func isFormat(v string) bool {
	return slices.Contains(formats, v)
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
