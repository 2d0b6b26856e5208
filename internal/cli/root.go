package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payloadmedic/internal/config"
	"payloadmedic/internal/flags"
	"payloadmedic/internal/logging"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// Exit code contract:
// 0 = every requested dependency produced a record
// 2 = partial result (dependencies missing, failed or cancelled)
// 3 = fatal error (batch did not run)
const (
	exitOK      = 0
	exitPartial = 2
	exitFatal   = 3
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// app holds what commands share. Tests swap the seams.
type app struct {
	v         *viper.Viper
	newSource func(ctx context.Context, cfg *config.Config, log *logging.Logger) (issueSource, error)
	now       func() time.Time
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// NewRootCommand builds the payloadmedic command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		v:         config.NewViper(),
		newSource: newGitHubSource,
		now:       time.Now,
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "payloadmedic",
		Short: "Evaluate the dependency issues of a release payload",
		Long: `payloadmedic collects the issues a release payload depends on and runs a chain
of evaluators over each of them, producing one record per dependency.

Examples:
	# Evaluate every dependency of a payload tracking issue
	payloadmedic process --tracking-issue https://github.com/org/payloads/issues/42 --stream eap-8.0.x

	# Evaluate an explicit set of issues for a fix version
	payloadmedic process --fix-version 8.0.3.GA --issues org/repo#10,org/repo#11

	# List evaluators
	payloadmedic evaluators list

	# Print build info
	payloadmedic version

Output:
	Records are written to stdout (see --format); diagnostics go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().Bool(flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and each evaluator step)")
	root.PersistentFlags().String(flags.FlagConfig, "", "Read settings from this config file (toml or yaml; keys are flag names)")
	_ = a.v.BindPFlags(root.PersistentFlags())

	root.AddCommand(
		newProcessCommand(a),
		newEvaluatorsCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
