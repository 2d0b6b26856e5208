package checks

import (
	"context"

	"payloadmedic/internal/evaluator"
)

type CorrelationEvaluator struct{}

func (e *CorrelationEvaluator) ID() string   { return "correlation" }
func (e *CorrelationEvaluator) Name() string { return "Correlation Evaluator" }

func (e *CorrelationEvaluator) Description() string {
	return "Ties the record to its payload tracker or fix version, tracker type and stream."
}

func (e *CorrelationEvaluator) Keys() []string {
	return []string{"payload_tracker", "fix_version", "tracker", "stream"}
}

func (e *CorrelationEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	if ec.Transitive() {
		rec["payload_tracker"] = ec.PayloadTracker().URL
	} else {
		rec["fix_version"] = ec.FixVersion()
	}
	rec["tracker"] = string(ec.TrackerType())
	rec["stream"] = string(ec.Stream())
	return nil
}
