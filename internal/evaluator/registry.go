package evaluator

import (
	"fmt"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Evaluator)
	order    []string
	mu       sync.RWMutex
)

// Register adds e to the default chain. Chain order is registration order.
func Register(e Evaluator) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[e.ID()]; exists {
		panic(fmt.Sprintf("evaluator %s already registered", e.ID()))
	}
	registry[e.ID()] = e
	order = append(order, e.ID())
}

// List returns every registered evaluator in chain order.
func List() []Evaluator {
	mu.RLock()
	defer mu.RUnlock()
	return listLocked()
}

func listLocked() []Evaluator {
	out := make([]Evaluator, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// Resolve turns a comma-separated selector into a chain. An empty selector selects
// every evaluator in registration order; otherwise the selector order is the chain order.
func Resolve(selector string) ([]Evaluator, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return listLocked(), nil
	}

	var selected []Evaluator
	seen := make(map[string]struct{})
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		e, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("evaluator not found: %s", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, e)
	}
	return selected, nil
}

// reset clears the registry. Tests only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Evaluator)
	order = nil
}
