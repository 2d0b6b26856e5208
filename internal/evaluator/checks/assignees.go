package checks

import (
	"context"
	"slices"

	"payloadmedic/internal/evaluator"
)

type AssigneesEvaluator struct{}

func (e *AssigneesEvaluator) ID() string   { return "assignees" }
func (e *AssigneesEvaluator) Name() string { return "Assignees Evaluator" }

func (e *AssigneesEvaluator) Description() string {
	return "Sorted logins assigned to the dependency issue."
}

func (e *AssigneesEvaluator) Keys() []string { return []string{"assignees"} }

func (e *AssigneesEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	assignees := slices.Clone(ec.Issue().Assignees)
	if assignees == nil {
		assignees = []string{}
	}
	slices.Sort(assignees)
	rec["assignees"] = assignees
	return nil
}
