package config

import (
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a config file. Keys are flag names so viper resolves
// them like flags and environment variables.
type File struct {
	Stream         string `toml:"stream" yaml:"stream"`
	Tracker        string `toml:"tracker" yaml:"tracker"`
	MaxIssues      int    `toml:"max-issues" yaml:"max-issues"`
	Evaluators     string `toml:"evaluators" yaml:"evaluators"`
	Format         string `toml:"format" yaml:"format"`
	Workers        int    `toml:"workers" yaml:"workers"`
	QueueSize      int    `toml:"queue-size" yaml:"queue-size"`
	ResolveTimeout string `toml:"resolve-timeout" yaml:"resolve-timeout"`
	BatchTimeout   string `toml:"batch-timeout" yaml:"batch-timeout"`
	Timeout        string `toml:"timeout" yaml:"timeout"`
	GitHubURL      string `toml:"github-url" yaml:"github-url"`
	RequestTimeout string `toml:"request-timeout" yaml:"request-timeout"`
	SubIssues      bool   `toml:"sub-issues" yaml:"sub-issues"`
}

// DefaultFile mirrors New.
func DefaultFile() File {
	c := New()
	return File{
		Stream:         c.Target.Stream,
		Tracker:        c.Target.Tracker,
		MaxIssues:      c.Target.MaxIssues,
		Evaluators:     c.Evaluators.Selector,
		Format:         c.Output.Format,
		Workers:        c.Runtime.Workers,
		QueueSize:      c.Runtime.QueueSize,
		ResolveTimeout: c.Runtime.ResolveTimeout.String(),
		BatchTimeout:   c.Runtime.BatchTimeout.String(),
		Timeout:        c.Runtime.Timeout.String(),
		GitHubURL:      c.GitHub.URL,
		RequestTimeout: c.GitHub.RequestTimeout.String(),
		SubIssues:      c.GitHub.SubIssues,
	}
}

// WriteDefault encodes DefaultFile to w as toml or yaml.
func WriteDefault(w io.Writer, format string) error {
	f := DefaultFile()
	switch normalizeEnumValue(format) {
	case "", "toml":
		return toml.NewEncoder(w).Encode(f)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported config format: %s (must be one of: toml, yaml)", format)
	}
}
