package engine

import (
	"fmt"
	"time"

	"payloadmedic/internal/pool"
	"payloadmedic/internal/tracker"
)

const (
	DefaultWorkers                 = 10
	DefaultResolveTimeout          = 5 * time.Minute
	DefaultBatchTimeout            = 5 * time.Minute
	DefaultTransitiveAccessTimeout = 10 * time.Minute
	DefaultExplicitAccessTimeout   = 5 * time.Minute
	DefaultDrainTimeout            = 5 * time.Second
)

// Options tunes a Processor. Zero values fall back to the defaults above.
type Options struct {
	// Workers is the evaluation pool size.
	Workers int
	// QueueSize bounds the tasks waiting on each pool.
	QueueSize int

	ResolveTimeout time.Duration
	BatchTimeout   time.Duration

	// Access timeouts bound how long a call waits for a concurrent batch to finish.
	TransitiveAccessTimeout time.Duration
	ExplicitAccessTimeout   time.Duration

	// DrainTimeout bounds the wait for an evaluation pool to stop after a batch.
	DrainTimeout time.Duration

	// MaxIssues caps the dependencies evaluated per transitive batch. 0 means no cap.
	MaxIssues int

	TransitiveTracker tracker.Type
	ExplicitTracker   tracker.Type
}

func DefaultOptions() Options {
	return Options{
		Workers:                 DefaultWorkers,
		QueueSize:               pool.DefaultQueueSize,
		ResolveTimeout:          DefaultResolveTimeout,
		BatchTimeout:            DefaultBatchTimeout,
		TransitiveAccessTimeout: DefaultTransitiveAccessTimeout,
		ExplicitAccessTimeout:   DefaultExplicitAccessTimeout,
		DrainTimeout:            DefaultDrainTimeout,
		TransitiveTracker:       tracker.TypeGitHub,
		ExplicitTracker:         tracker.TypeGitHub,
	}
}

func (o Options) withDefaults() (Options, error) {
	def := DefaultOptions()
	if o.Workers < 0 || o.QueueSize < 0 || o.MaxIssues < 0 {
		return o, fmt.Errorf("workers, queue size and max issues must not be negative")
	}
	for _, d := range []time.Duration{o.ResolveTimeout, o.BatchTimeout, o.TransitiveAccessTimeout, o.ExplicitAccessTimeout, o.DrainTimeout} {
		if d < 0 {
			return o, fmt.Errorf("timeouts must not be negative, got %s", d)
		}
	}

	if o.Workers == 0 {
		o.Workers = def.Workers
	}
	if o.QueueSize == 0 {
		o.QueueSize = def.QueueSize
	}
	if o.ResolveTimeout == 0 {
		o.ResolveTimeout = def.ResolveTimeout
	}
	if o.BatchTimeout == 0 {
		o.BatchTimeout = def.BatchTimeout
	}
	if o.TransitiveAccessTimeout == 0 {
		o.TransitiveAccessTimeout = def.TransitiveAccessTimeout
	}
	if o.ExplicitAccessTimeout == 0 {
		o.ExplicitAccessTimeout = def.ExplicitAccessTimeout
	}
	if o.DrainTimeout == 0 {
		o.DrainTimeout = def.DrainTimeout
	}
	if o.TransitiveTracker == "" {
		o.TransitiveTracker = def.TransitiveTracker
	}
	if o.ExplicitTracker == "" {
		o.ExplicitTracker = def.ExplicitTracker
	}
	if !o.TransitiveTracker.Valid() || !o.ExplicitTracker.Valid() {
		return o, fmt.Errorf("unsupported tracker type %q/%q", o.TransitiveTracker, o.ExplicitTracker)
	}
	return o, nil
}
