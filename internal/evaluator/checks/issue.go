package checks

import (
	"context"

	"payloadmedic/internal/evaluator"
)

type IssueEvaluator struct{}

func (e *IssueEvaluator) ID() string   { return "issue" }
func (e *IssueEvaluator) Name() string { return "Issue Evaluator" }

func (e *IssueEvaluator) Description() string {
	return "Identifies the dependency issue."
}

func (e *IssueEvaluator) Keys() []string { return []string{"url", "number", "title"} }

func (e *IssueEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	issue := ec.Issue()
	rec["url"] = issue.URL
	rec["number"] = issue.Number
	rec["title"] = issue.Title
	return nil
}
