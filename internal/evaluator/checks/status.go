package checks

import (
	"context"
	"strings"

	"payloadmedic/internal/evaluator"
)

type StatusEvaluator struct{}

func (e *StatusEvaluator) ID() string   { return "status" }
func (e *StatusEvaluator) Name() string { return "Status Evaluator" }

func (e *StatusEvaluator) Description() string {
	return "Reports whether the dependency issue is still open."
}

func (e *StatusEvaluator) Keys() []string { return []string{"state", "closed"} }

func (e *StatusEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	state := strings.ToLower(strings.TrimSpace(ec.Issue().State))
	if state == "" {
		state = "unknown"
	}
	rec["state"] = state
	rec["closed"] = state == "closed"
	return nil
}
