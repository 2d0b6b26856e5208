package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"payloadmedic/internal/config"
	"payloadmedic/internal/engine"
	"payloadmedic/internal/evaluator"
	"payloadmedic/internal/flags"
	gh "payloadmedic/internal/github"
	"payloadmedic/internal/logging"
	"payloadmedic/internal/output"
	"payloadmedic/internal/tracker"
)

// issueSource is the tracker surface process needs.
type issueSource interface {
	tracker.Client
	GetTrackingIssue(ctx context.Context, url string) (*tracker.Issue, error)
}

const processHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  Every flag can also be set as PAYLOADMEDIC_<FLAG> (upper case, dashes as
  underscores), e.g. PAYLOADMEDIC_WORKERS=20, or in the file given by --config.

  payloadmedic authenticates to GitHub using an access token.

  Sources (in order):
  1) --token / PAYLOADMEDIC_TOKEN
  2) GITHUB_TOKEN environment variable
  3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

  Examples:
    export GITHUB_TOKEN="<your_token>"
    payloadmedic process --tracking-issue org/payloads#42 --stream eap-8.0.x

    gh auth login
    payloadmedic process --fix-version 8.0.3.GA --issues org/repo#10

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

func newProcessCommand(a *app) *cobra.Command {
	def := config.New()
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Evaluate the dependencies of a payload",
		Long: `Evaluate the dependencies of a payload.

Two modes are supported:
	--tracking-issue URL    the dependencies declared by a payload tracking issue
	                        (body references and GitHub sub-issues)
	--fix-version V         an explicit list of issues given with --issues

Every dependency runs through the evaluator chain (see "payloadmedic evaluators
list"). Dependencies that cannot be found, fail an evaluator, or are still running
when --batch-timeout expires are left out of the result and reported on stderr.

Output:
	Console output is controlled by --format (default: text). --out writes the
	report to a file as well (json, ndjson, yaml or toml; inferred from the extension
	unless --out-format is set). --no-console suppresses stdout.

Exit codes:
	0 = every dependency produced a record
	2 = partial result (some dependencies were dropped)
	3 = fatal error (batch did not run)

Examples:
	payloadmedic process --tracking-issue https://github.com/org/payloads/issues/42 --stream eap-8.0.x
	payloadmedic process --fix-version 8.0.3.GA --issues org/repo#10 --issues org/repo#11 --format json
	payloadmedic process --tracking-issue org/payloads#42 --no-console --out report.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return &exitError{code: exitFatal}
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return &exitError{code: exitFatal}
			}
			if code := a.runProcess(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.SetHelpTemplate(processHelpTemplate)

	f := cmd.Flags()

	// Target
	f.String(flags.FlagTrackingIssue, "", "Payload tracking issue (URL or OWNER/REPO#N)")
	f.String(flags.FlagFixVersion, "", "Fix version the --issues belong to")
	f.StringSlice(flags.FlagIssues, nil, "Dependency issues for --fix-version (repeatable; comma-separated accepted)")
	f.String(flags.FlagStream, "", "Release stream the payload targets (e.g. eap-8.0.x)")
	f.String(flags.FlagTracker, def.Target.Tracker, "Tracker type recorded with each result: github|jira|bugzilla")
	f.Int(flags.FlagMaxIssues, 0, "Maximum dependencies evaluated per tracking issue (0 = unlimited)")

	// Evaluators
	f.String(flags.FlagEvaluators, "", "Comma-separated evaluator IDs, in chain order (empty = all)")

	// Output
	f.String(flags.FlagFormat, def.Output.Format, "Console output format: text|json|ndjson|yaml|toml")
	f.String(flags.FlagOut, "", "Also write the report to this path")
	f.String(flags.FlagOutFormat, "", "Format for --out: json|ndjson|yaml|toml (default: inferred from file extension)")
	f.Bool(flags.FlagNoConsole, false, "Suppress console output (use with --out)")

	// Runtime
	f.Int(flags.FlagWorkers, def.Runtime.Workers, "Evaluation workers")
	f.Int(flags.FlagQueueSize, def.Runtime.QueueSize, "Maximum queued tasks per pool")
	f.Duration(flags.FlagResolveTimeout, def.Runtime.ResolveTimeout, "Deadline for resolving a tracking issue's dependencies")
	f.Duration(flags.FlagBatchTimeout, def.Runtime.BatchTimeout, "Deadline for evaluating one batch")
	f.Duration(flags.FlagTimeout, def.Runtime.Timeout, "Global timeout")

	// GitHub
	f.String(flags.FlagToken, "", "GitHub access token (default: GITHUB_TOKEN, then gh auth token)")
	f.String(flags.FlagGitHubURL, "", "GitHub Enterprise Server API base URL")
	f.Duration(flags.FlagRequestTimeout, def.GitHub.RequestTimeout, "Timeout for a single GitHub API request (0 = none)")
	f.Bool(flags.FlagSubIssues, def.GitHub.SubIssues, "Include GitHub sub-issues of the tracking issue")

	_ = a.v.BindPFlags(f)
	return cmd
}

func (a *app) runProcess(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config) int {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.New(stderr, logging.WithVerbose(cfg.Runtime.Verbose))
	plog := log.Named("process")

	evs, err := evaluator.Resolve(cfg.Evaluators.Selector)
	if err != nil {
		plog.Errorf("%v", err)
		return exitFatal
	}
	if len(evs) == 0 {
		plog.Errorf("no evaluators selected")
		return exitFatal
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	src, err := a.newSource(ctx, cfg, log)
	if err != nil {
		plog.Errorf("%v", err)
		return exitFatal
	}

	trackerType := tracker.Type(cfg.Target.Tracker)
	proc, err := engine.NewProcessor(src, evs, engine.Options{
		Workers:           cfg.Runtime.Workers,
		QueueSize:         cfg.Runtime.QueueSize,
		ResolveTimeout:    cfg.Runtime.ResolveTimeout,
		BatchTimeout:      cfg.Runtime.BatchTimeout,
		MaxIssues:         cfg.Target.MaxIssues,
		TransitiveTracker: trackerType,
		ExplicitTracker:   trackerType,
	}, log)
	if err != nil {
		plog.Errorf("%v", err)
		return exitFatal
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), engine.DefaultDrainTimeout)
		defer cancel()
		if err := proc.Close(closeCtx); err != nil {
			plog.Warnf("%v", err)
		}
	}()

	report := &output.Report{
		BatchID:     uuid.NewString(),
		Mode:        string(cfg.Mode()),
		Stream:      cfg.Target.Stream,
		Tracker:     cfg.Target.Tracker,
		GeneratedAt: a.now().UTC(),
	}
	ctx = engine.WithBatchID(ctx, report.BatchID)
	stream := tracker.Stream(cfg.Target.Stream)

	var records []evaluator.Record
	switch cfg.Mode() {
	case config.ModeTransitive:
		parent, err := src.GetTrackingIssue(ctx, cfg.Target.TrackingIssue)
		if err != nil {
			plog.Errorf("failed to load tracking issue %s: %v", cfg.Target.TrackingIssue, err)
			return exitFatal
		}
		report.Correlation = parent.URL
		report.Requested = len(parent.DependsOn)
		if limit := cfg.Target.MaxIssues; limit > 0 && report.Requested > limit {
			report.Requested = limit
		}
		records, err = proc.ProcessTransitive(ctx, parent, stream)
		if err != nil {
			plog.Errorf("%v", err)
			return exitFatal
		}
	default:
		report.Correlation = cfg.Target.FixVersion
		report.Requested = len(cfg.Target.Issues)
		deps, err := fetchIssues(ctx, src, cfg.Target.Issues, cfg.Runtime.Workers, plog)
		if err != nil {
			plog.Errorf("%v", err)
			return exitFatal
		}
		records, err = proc.ProcessExplicit(ctx, cfg.Target.FixVersion, deps, stream)
		if err != nil {
			plog.Errorf("%v", err)
			return exitFatal
		}
	}

	report.Records = records
	report.Evaluated = len(records)
	report.ExitCode = exitOK
	if report.Partial() {
		report.ExitCode = exitPartial
	}

	if err := writeReport(stdout, cfg, report); err != nil {
		plog.Errorf("%v", err)
		return exitFatal
	}
	return report.ExitCode
}

// fetchIssues looks up urls concurrently, at most workers at a time. The result keeps
// the order of urls; issues the tracker does not know are skipped.
func fetchIssues(ctx context.Context, src tracker.Client, urls []string, workers int, log *logging.Logger) ([]*tracker.Issue, error) {
	out := make([]*tracker.Issue, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			issue, err := src.GetIssue(gctx, u)
			if errors.Is(err, tracker.ErrNotFound) {
				log.Warnf("issue %s not found, skipping", u)
				return nil
			}
			if err != nil {
				return fmt.Errorf("get issue %s: %w", u, err)
			}
			out[i] = issue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(out, func(is *tracker.Issue) bool { return is == nil }), nil
}

func writeReport(stdout io.Writer, cfg *config.Config, r *output.Report) (err error) {
	m := output.NewManager()
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !cfg.Output.NoConsole {
		ws, err := output.NewWriterSink(stdout, cfg.Output.Format)
		if err != nil {
			return err
		}
		if err := m.AddSink(ws); err != nil {
			return err
		}
	}
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			return err
		}
		if err := m.AddSink(fs); err != nil {
			return err
		}
	}
	return m.Write(r)
}

func newGitHubSource(ctx context.Context, cfg *config.Config, log *logging.Logger) (issueSource, error) {
	target := cfg.Target.TrackingIssue
	if target == "" && len(cfg.Target.Issues) > 0 {
		target = cfg.Target.Issues[0]
	}
	host := ""
	if ref, err := tracker.ParseIssueURL(target); err == nil {
		host = ref.Host
	}

	token, source, err := gh.ResolveAuthToken(ctx, cfg.GitHub.Token, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
	}
	if token == "" {
		return nil, errors.New("GitHub auth token is required (use --token, set GITHUB_TOKEN or run 'gh auth login')")
	}
	log.Debugf("using GitHub token from %s", source)

	client, err := gh.NewClient(ctx, token,
		gh.WithLogger(log),
		gh.WithEnterpriseURL(cfg.GitHub.URL),
		gh.WithRequestTimeout(cfg.GitHub.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	g, err := tracker.NewGitHub(client, tracker.WithLogger(log), tracker.WithSubIssues(cfg.GitHub.SubIssues))
	if err != nil {
		return nil, err
	}
	return g, nil
}
