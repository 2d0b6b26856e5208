package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"payloadmedic/internal/logging"
)

const (
	RetrievalPoolName  = "retrieval"
	EvaluationPoolName = "evaluation"
)

// Manager owns the two pools used by one processor: a single-worker retrieval pool
// and an N-worker evaluation pool. Each is handed out by a check-and-recreate under
// the manager lock, so a shut-down pool is never returned to a caller.
type Manager struct {
	mu        sync.Mutex
	workers   int
	queueSize int
	log       *logging.Logger

	retrieval  *Pool
	evaluation *Pool
	created    map[string]int
}

func NewManager(workers, queueSize int, log *logging.Logger) (*Manager, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", workers)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		workers:   workers,
		queueSize: queueSize,
		log:       log.Named("pool"),
		created:   make(map[string]int),
	}, nil
}

// Retrieval returns the open retrieval pool, creating it if needed.
func (m *Manager) Retrieval() (*Pool, error) {
	return m.acquire(&m.retrieval, RetrievalPoolName, 1)
}

// Evaluation returns the open evaluation pool, creating it if needed.
func (m *Manager) Evaluation() (*Pool, error) {
	return m.acquire(&m.evaluation, EvaluationPoolName, m.workers)
}

func (m *Manager) acquire(slot **Pool, name string, size int) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := *slot; p != nil && !p.IsShutdown() {
		return p, nil
	}
	p, err := New(name, size, m.queueSize)
	if err != nil {
		return nil, err
	}
	if *slot != nil {
		m.log.Debugf("recreating %s pool (%d workers)", name, size)
	}
	*slot = p
	m.created[name]++
	return p, nil
}

// Created reports how many pools with the given name this manager has built.
func (m *Manager) Created(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created[name]
}

// ReleaseEvaluation shuts the evaluation pool down and waits, bounded by ctx, for
// its workers to drain. Workers still busy when ctx ends are canceled and left to
// exit on their own.
func (m *Manager) ReleaseEvaluation(ctx context.Context) error {
	return m.release(ctx, &m.evaluation)
}

// ReleaseRetrieval is ReleaseEvaluation for the retrieval pool.
func (m *Manager) ReleaseRetrieval(ctx context.Context) error {
	return m.release(ctx, &m.retrieval)
}

func (m *Manager) release(ctx context.Context, slot **Pool) error {
	m.mu.Lock()
	p := *slot
	m.mu.Unlock()
	if p == nil {
		return nil
	}

	p.Shutdown()
	if err := p.Wait(ctx); err != nil {
		p.ShutdownNow()
		return fmt.Errorf("%s pool did not drain: %w", p.Name(), err)
	}
	return nil
}

// AbandonRetrieval cancels everything on the retrieval pool and detaches it without
// waiting for its worker. The next Retrieval call builds a fresh pool.
func (m *Manager) AbandonRetrieval() {
	m.mu.Lock()
	p := m.retrieval
	m.retrieval = nil
	m.mu.Unlock()
	if p != nil {
		p.ShutdownNow()
	}
}

// Close releases both pools.
func (m *Manager) Close(ctx context.Context) error {
	return errors.Join(
		m.release(ctx, &m.retrieval),
		m.release(ctx, &m.evaluation),
	)
}
