package batch

import (
	"fmt"
	"sync"
)

// Registry holds the steps of a run and orders them by their declared
// dependencies.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // registration order, used to break ties
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Duplicate IDs are rejected.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a step by ID.
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, fmt.Errorf("step %s not found", id)
	}
	return step, nil
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Levels returns the steps grouped into dependency levels: every step in a
// level depends only on steps in earlier levels, so each level can run
// concurrently. Returns an error on unknown dependencies or cycles.
func (r *Registry) Levels() ([][]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inDegree := make(map[string]int, len(r.steps))
	dependents := make(map[string][]string, len(r.steps))

	for id, step := range r.steps {
		inDegree[id] += 0
		for _, dep := range step.Dependencies() {
			if _, exists := r.steps[dep]; !exists {
				return nil, fmt.Errorf("step %s depends on unknown step %s", id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var levels [][]Step
	processed := 0
	ready := make([]string, 0, len(r.steps))
	for _, id := range r.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	for len(ready) > 0 {
		level := make([]Step, 0, len(ready))
		var next []string
		for _, id := range ready {
			level = append(level, r.steps[id])
			processed++
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		levels = append(levels, level)
		// Keep registration order within the next level.
		ready = ready[:0]
		for _, id := range r.order {
			for _, n := range next {
				if id == n {
					ready = append(ready, id)
					break
				}
			}
		}
	}

	if processed != len(r.steps) {
		return nil, fmt.Errorf("dependency cycle detected")
	}
	return levels, nil
}
