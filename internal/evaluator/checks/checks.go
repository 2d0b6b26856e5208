package checks

import "payloadmedic/internal/evaluator"

// Chain returns the built-in evaluators in the order they run.
func Chain() []evaluator.Evaluator {
	return []evaluator.Evaluator{
		&IssueEvaluator{},
		&StatusEvaluator{},
		&BranchEvaluator{},
		&SeverityEvaluator{},
		&AssigneesEvaluator{},
		&CorrelationEvaluator{},
	}
}

func init() {
	for _, e := range Chain() {
		evaluator.Register(e)
	}
}
