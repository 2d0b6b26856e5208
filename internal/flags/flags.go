package flags

// Package flags defines canonical CLI flag names shared across the CLI and config.
// The same names are used as viper keys, config file keys and, upper-cased with
// dashes turned into underscores, as PAYLOADMEDIC_* environment variables.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().String(flags.FlagStream, "", "...")
//	env := "PAYLOADMEDIC_" + strings.ToUpper(strings.ReplaceAll(flags.FlagStream, "-", "_"))
const (
	// Target
	FlagTrackingIssue = "tracking-issue"
	FlagFixVersion    = "fix-version"
	FlagIssues        = "issues"
	FlagStream        = "stream"
	FlagTracker       = "tracker"
	FlagMaxIssues     = "max-issues"

	// Evaluators
	FlagEvaluators = "evaluators"

	// Output
	FlagFormat    = "format"
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagNoConsole = "no-console"

	// Runtime
	FlagWorkers        = "workers"
	FlagQueueSize      = "queue-size"
	FlagResolveTimeout = "resolve-timeout"
	FlagBatchTimeout   = "batch-timeout"
	FlagTimeout        = "timeout"
	FlagVerbose        = "verbose"
	FlagConfig         = "config"

	// GitHub
	FlagToken          = "token"
	FlagGitHubURL      = "github-url"
	FlagRequestTimeout = "request-timeout"
	FlagSubIssues      = "sub-issues"
)

// EnvPrefix prefixes every environment variable bound to a flag.
const EnvPrefix = "PAYLOADMEDIC"
