package checks

import (
	"context"
	"strings"

	"payloadmedic/internal/evaluator"
)

const branchLabelPrefix = "branch/"

type BranchEvaluator struct{}

func (e *BranchEvaluator) ID() string   { return "branch" }
func (e *BranchEvaluator) Name() string { return "Branch Evaluator" }

func (e *BranchEvaluator) Description() string {
	return "Target branch of the dependency: a branch/<name> label, else the milestone, else the stream."
}

func (e *BranchEvaluator) Keys() []string { return []string{"branch"} }

func (e *BranchEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	issue := ec.Issue()
	for _, l := range issue.Labels {
		if name, ok := strings.CutPrefix(l, branchLabelPrefix); ok && name != "" {
			rec["branch"] = name
			return nil
		}
	}
	if issue.Milestone != "" {
		rec["branch"] = issue.Milestone
		return nil
	}
	rec["branch"] = string(ec.Stream())
	return nil
}
