package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payloadmedic/internal/config"
	_ "payloadmedic/internal/evaluator/checks"
	"payloadmedic/internal/logging"
	"payloadmedic/internal/output"
	"payloadmedic/internal/tracker"
	"payloadmedic/internal/tracker/trackertest"
)

const (
	urlParent = "https://github.com/wildfly/payloads/issues/42"
	urlA      = "https://github.com/wildfly/wildfly/issues/10"
	urlB      = "https://github.com/wildfly/wildfly/issues/11"
	urlC      = "https://github.com/wildfly/wildfly/issues/12"
)

func newTestApp(fake *trackertest.Fake) *app {
	return &app{
		v: config.NewViper(),
		newSource: func(context.Context, *config.Config, *logging.Logger) (issueSource, error) {
			return fake, nil
		},
		now: func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) },
	}
}

func defaultFake() *trackertest.Fake {
	a := trackertest.Issue(urlA)
	a.Labels = []string{"branch/8.0.x", "severity/high"}
	c := trackertest.Issue(urlC)
	c.Labels = []string{"severity/low"}
	return trackertest.NewFake(trackertest.Issue(urlParent, urlA, urlB, urlC), a, c)
}

func run(t *testing.T, a *app, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	cmd := newRootCommand(a)
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		} else {
			code = 1
		}
	}
	return out.String(), errb.String(), code
}

func decodeReport(t *testing.T, s string) output.Report {
	t.Helper()
	var r output.Report
	require.NoError(t, json.Unmarshal([]byte(s), &r), s)
	return r
}

func TestProcess_TransitivePartial(t *testing.T) {
	stdout, stderr, code := run(t, newTestApp(defaultFake()),
		"process", "--tracking-issue", urlParent, "--stream", "eap-8.0.x",
		"--evaluators", "issue,branch,severity", "--format", "json")

	assert.Equal(t, exitPartial, code, stderr)
	r := decodeReport(t, stdout)
	assert.Equal(t, "transitive", r.Mode)
	assert.Equal(t, urlParent, r.Correlation)
	assert.Equal(t, 3, r.Requested)
	assert.Equal(t, 2, r.Evaluated)
	assert.Equal(t, exitPartial, r.ExitCode)
	assert.NotEmpty(t, r.BatchID)
	require.Len(t, r.Records, 2)
	assert.Equal(t, urlA, r.Records[0]["url"])
	assert.Equal(t, "8.0.x", r.Records[0]["branch"])
	assert.Equal(t, "low", r.Records[1]["severity"])
	assert.Equal(t, "eap-8.0.x", r.Records[1]["branch"])

	assert.Contains(t, stderr, "failed to find dependency issue "+urlB)
	assert.Contains(t, stderr, r.BatchID, "log lines carry the report batch id")
}

func TestProcess_ExplicitComplete(t *testing.T) {
	stdout, stderr, code := run(t, newTestApp(defaultFake()),
		"process", "--fix-version", "8.0.3.GA", "--issues", urlA+","+urlC, "--format", "ndjson")

	assert.Equal(t, exitOK, code, stderr)
	var types []string
	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		var e output.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		types = append(types, e.Type)
		if e.Type == "issue.record" {
			assert.Equal(t, "8.0.3.GA", e.Record["fix_version"])
		}
	}
	assert.Equal(t, []string{"batch.started", "issue.record", "issue.record", "batch.finished"}, types)
}

func TestProcess_ExplicitMissingIssueIsPartial(t *testing.T) {
	stdout, stderr, code := run(t, newTestApp(defaultFake()),
		"process", "--fix-version", "8.0.3.GA", "--issues", urlA, "--issues", urlB, "--format", "json")

	assert.Equal(t, exitPartial, code)
	r := decodeReport(t, stdout)
	assert.Equal(t, 2, r.Requested)
	assert.Equal(t, 1, r.Evaluated)
	assert.Contains(t, stderr, "issue "+urlB+" not found, skipping")
}

func TestProcess_TextOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	stdout, _, code := run(t, newTestApp(defaultFake()),
		"process", "--fix-version", "8.0.3.GA", "--issues", urlA, "--evaluators", "issue,severity")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "(explicit) 8.0.3.GA")
	assert.Contains(t, stdout, "  "+urlA+" number=0 severity=high title="+urlA)
	assert.Contains(t, stdout, "1/1 dependencies evaluated")
}

func TestProcess_OutFileWithoutConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.yaml")
	stdout, stderr, code := run(t, newTestApp(defaultFake()),
		"process", "--tracking-issue", urlParent, "--no-console", "--out", path)

	assert.Equal(t, exitPartial, code, stderr)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: transitive")
	assert.Contains(t, string(data), "records:")
}

func TestProcess_ReadsEnvironment(t *testing.T) {
	t.Setenv("PAYLOADMEDIC_FIX_VERSION", "8.0.4.GA")
	t.Setenv("PAYLOADMEDIC_ISSUES", urlA)
	t.Setenv("PAYLOADMEDIC_FORMAT", "json")

	stdout, stderr, code := run(t, newTestApp(defaultFake()), "process")
	assert.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "8.0.4.GA", decodeReport(t, stdout).Correlation)
}

func TestProcess_FatalErrors(t *testing.T) {
	failing := newTestApp(defaultFake())
	failing.newSource = func(context.Context, *config.Config, *logging.Logger) (issueSource, error) {
		return nil, errors.New("GitHub auth token is required")
	}

	tests := []struct {
		name    string
		app     *app
		args    []string
		wantErr string
	}{
		{"no target", newTestApp(defaultFake()), []string{"process", "--verbose"}, "one of --tracking-issue or --fix-version"},
		{"unknown evaluator", newTestApp(defaultFake()), []string{"process", "--tracking-issue", urlParent, "--evaluators", "nope"}, "evaluator not found: nope"},
		{"no source", failing, []string{"process", "--tracking-issue", urlParent}, "GitHub auth token is required"},
		{"missing tracking issue", newTestApp(trackertest.NewFake()), []string{"process", "--tracking-issue", urlParent}, "failed to load tracking issue"},
		{"bad format", newTestApp(defaultFake()), []string{"process", "--tracking-issue", urlParent, "--format", "xml"}, "unsupported --format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := run(t, tt.app, tt.args...)
			assert.Equal(t, exitFatal, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestFetchIssues_KeepsOrderAndSkipsMissing(t *testing.T) {
	fake := defaultFake()
	fake.Delay(urlA, 30*time.Millisecond)

	got, err := fetchIssues(context.Background(), fake, []string{urlA, urlB, urlC}, 3, logging.Nop())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, urlA, got[0].URL)
	assert.Equal(t, urlC, got[1].URL)

	fake.FailWith(urlC, errors.New("rate limited"))
	_, err = fetchIssues(context.Background(), fake, []string{urlA, urlC}, 1, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get issue "+urlC+": rate limited")
	assert.NotErrorIs(t, err, tracker.ErrNotFound)
}

func TestEvaluatorsList(t *testing.T) {
	stdout, _, code := run(t, newTestApp(nil), "evaluators", "list", "-q")
	assert.Equal(t, 0, code)
	assert.Equal(t, "issue\nstatus\nbranch\nseverity\nassignees\ncorrelation\n", stdout)

	stdout, _, code = run(t, newTestApp(nil), "evaluators", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "EVALUATOR: severity")
	assert.Contains(t, stdout, "Keys: severity")

	stdout, _, code = run(t, newTestApp(nil), "evaluators", "show", "branch")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "EVALUATOR: branch")

	_, _, code = run(t, newTestApp(nil), "evaluators", "show", "nope")
	assert.Equal(t, 1, code)
}

func TestConfigInit(t *testing.T) {
	stdout, _, code := run(t, newTestApp(nil), "config", "init")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "workers = 10")

	path := filepath.Join(t.TempDir(), "payloadmedic.yaml")
	_, stderr, code := run(t, newTestApp(nil), "config", "init", "--path", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 10")

	_, _, code = run(t, newTestApp(nil), "config", "init", "--path", path)
	assert.Equal(t, 1, code, "existing files are not overwritten")

	_, _, code = run(t, newTestApp(nil), "config", "init", "--path", path, "--force", "--format", "toml")
	assert.Equal(t, 0, code)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers = 10")
}

func TestVersion(t *testing.T) {
	stdout, _, code := run(t, newTestApp(nil), "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "payloadmedic dev\n"), stdout)
}
