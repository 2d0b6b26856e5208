package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payloadmedic/internal/evaluator"
	"payloadmedic/internal/tracker"
)

func eval(t *testing.T, e evaluator.Evaluator, ec *evaluator.Context) evaluator.Record {
	t.Helper()
	rec := evaluator.Record{}
	require.NoError(t, e.Eval(context.Background(), ec, rec))
	return rec
}

func explicit(issue *tracker.Issue) *evaluator.Context {
	return evaluator.NewExplicitContext(issue, "8.0.3.GA", tracker.TypeGitHub, "eap-8.0.x")
}

func TestChain_RegisteredInOrder(t *testing.T) {
	var want []string
	for _, e := range Chain() {
		want = append(want, e.ID())
		d, ok := e.(evaluator.Described)
		require.True(t, ok, e.ID())
		assert.NotEmpty(t, d.Description())
		assert.NotEmpty(t, d.Keys())
	}

	var got []string
	for _, e := range evaluator.List() {
		got = append(got, e.ID())
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"issue", "status", "branch", "severity", "assignees", "correlation"}, got)
}

func TestIssueEvaluator(t *testing.T) {
	rec := eval(t, &IssueEvaluator{}, explicit(&tracker.Issue{URL: "u", Number: 4, Title: "Fix it"}))
	assert.Equal(t, evaluator.Record{"url": "u", "number": 4, "title": "Fix it"}, rec)
}

func TestStatusEvaluator(t *testing.T) {
	tests := []struct {
		state      string
		wantState  string
		wantClosed bool
	}{
		{"open", "open", false},
		{"CLOSED", "closed", true},
		{"", "unknown", false},
	}
	for _, tt := range tests {
		rec := eval(t, &StatusEvaluator{}, explicit(&tracker.Issue{State: tt.state}))
		assert.Equal(t, tt.wantState, rec["state"])
		assert.Equal(t, tt.wantClosed, rec["closed"])
	}
}

func TestBranchEvaluator(t *testing.T) {
	tests := []struct {
		name  string
		issue *tracker.Issue
		want  string
	}{
		{"label wins", &tracker.Issue{Labels: []string{"bug", "branch/8.0.x"}, Milestone: "8.0.3.GA"}, "8.0.x"},
		{"empty label ignored", &tracker.Issue{Labels: []string{"branch/"}, Milestone: "8.0.3.GA"}, "8.0.3.GA"},
		{"milestone", &tracker.Issue{Milestone: "8.0.3.GA"}, "8.0.3.GA"},
		{"stream fallback", &tracker.Issue{}, "eap-8.0.x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := eval(t, &BranchEvaluator{}, explicit(tt.issue))
			assert.Equal(t, tt.want, rec["branch"])
		})
	}
}

func TestSeverityEvaluator(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"severity label", []string{"Severity/High"}, "high"},
		{"severity beats priority", []string{"priority/minor", "severity/blocker"}, "blocker"},
		{"first priority", []string{"priority/major", "priority/minor"}, "major"},
		{"none", []string{"bug"}, "unspecified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := eval(t, &SeverityEvaluator{}, explicit(&tracker.Issue{Labels: tt.labels}))
			assert.Equal(t, tt.want, rec["severity"])
		})
	}
}

func TestAssigneesEvaluator(t *testing.T) {
	issue := &tracker.Issue{Assignees: []string{"zed", "amy"}}
	rec := eval(t, &AssigneesEvaluator{}, explicit(issue))
	assert.Equal(t, []string{"amy", "zed"}, rec["assignees"])
	assert.Equal(t, []string{"zed", "amy"}, issue.Assignees, "issue must not be mutated")

	rec = eval(t, &AssigneesEvaluator{}, explicit(&tracker.Issue{}))
	assert.Equal(t, []string{}, rec["assignees"])
}

func TestCorrelationEvaluator(t *testing.T) {
	dep := &tracker.Issue{URL: "https://github.com/o/r/issues/2"}
	parent := &tracker.Issue{URL: "https://github.com/o/r/issues/1"}

	rec := eval(t, &CorrelationEvaluator{}, evaluator.NewTransitiveContext(dep, parent, tracker.TypeGitHub, "s"))
	assert.Equal(t, evaluator.Record{"payload_tracker": parent.URL, "tracker": "github", "stream": "s"}, rec)

	rec = eval(t, &CorrelationEvaluator{}, evaluator.NewExplicitContext(dep, "8.0.3.GA", tracker.TypeJira, "s"))
	assert.Equal(t, evaluator.Record{"fix_version": "8.0.3.GA", "tracker": "jira", "stream": "s"}, rec)
}
