package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"payloadmedic/internal/flags"
)

// NewViper returns a viper instance that resolves every flag key from, in order of
// precedence: a changed flag, a PAYLOADMEDIC_* environment variable, the config file,
// then the defaults of New.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(flags.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := New()
	v.SetDefault(flags.FlagTracker, def.Target.Tracker)
	v.SetDefault(flags.FlagFormat, def.Output.Format)
	v.SetDefault(flags.FlagWorkers, def.Runtime.Workers)
	v.SetDefault(flags.FlagQueueSize, def.Runtime.QueueSize)
	v.SetDefault(flags.FlagResolveTimeout, def.Runtime.ResolveTimeout)
	v.SetDefault(flags.FlagBatchTimeout, def.Runtime.BatchTimeout)
	v.SetDefault(flags.FlagTimeout, def.Runtime.Timeout)
	v.SetDefault(flags.FlagRequestTimeout, def.GitHub.RequestTimeout)
	v.SetDefault(flags.FlagSubIssues, def.GitHub.SubIssues)
	return v
}

// Load reads the config file named by the "config" key, if any, and builds a Config
// from v. Bind flags to v before calling Load. The result is not validated.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(flags.FlagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	issues := v.GetStringSlice(flags.FlagIssues)
	if len(issues) == 0 {
		issues = nil
	}

	return &Config{
		Target: Target{
			TrackingIssue: v.GetString(flags.FlagTrackingIssue),
			FixVersion:    v.GetString(flags.FlagFixVersion),
			Issues:        issues,
			Stream:        v.GetString(flags.FlagStream),
			Tracker:       v.GetString(flags.FlagTracker),
			MaxIssues:     v.GetInt(flags.FlagMaxIssues),
		},
		Evaluators: Evaluators{
			Selector: v.GetString(flags.FlagEvaluators),
		},
		Output: Output{
			Format:    v.GetString(flags.FlagFormat),
			Out:       v.GetString(flags.FlagOut),
			OutFormat: v.GetString(flags.FlagOutFormat),
			NoConsole: v.GetBool(flags.FlagNoConsole),
		},
		Runtime: Runtime{
			Workers:        v.GetInt(flags.FlagWorkers),
			QueueSize:      v.GetInt(flags.FlagQueueSize),
			ResolveTimeout: v.GetDuration(flags.FlagResolveTimeout),
			BatchTimeout:   v.GetDuration(flags.FlagBatchTimeout),
			Timeout:        v.GetDuration(flags.FlagTimeout),
			Verbose:        v.GetBool(flags.FlagVerbose),
			ConfigFile:     v.GetString(flags.FlagConfig),
		},
		GitHub: GitHub{
			Token:          v.GetString(flags.FlagToken),
			URL:            v.GetString(flags.FlagGitHubURL),
			RequestTimeout: v.GetDuration(flags.FlagRequestTimeout),
			SubIssues:      v.GetBool(flags.FlagSubIssues),
		},
	}, nil
}
