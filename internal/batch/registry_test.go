package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStep is a minimal Step for registry and runner tests.
type stubStep struct {
	id   string
	deps []string
	run  func(ctx context.Context, state *State) error

	mu   sync.Mutex
	runs int
}

func (s *stubStep) ID() string             { return s.id }
func (s *stubStep) Name() string           { return s.id }
func (s *stubStep) Dependencies() []string { return s.deps }

func (s *stubStep) Run(ctx context.Context, state *State) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.run != nil {
		return s.run(ctx, state)
	}
	return nil
}

func levelIDs(levels [][]Step) [][]string {
	out := make([][]string, len(levels))
	for i, level := range levels {
		for _, step := range level {
			out[i] = append(out[i], step.ID())
		}
	}
	return out
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "a"}))
	assert.Error(t, r.Register(&stubStep{id: "a"}), "duplicate IDs rejected")
	assert.Error(t, r.Register(&stubStep{id: ""}))
	assert.Error(t, r.Register(nil))
	assert.Equal(t, 1, r.Count())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryLevels(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "ingest_a"}))
	require.NoError(t, r.Register(&stubStep{id: "ingest_b"}))
	require.NoError(t, r.Register(&stubStep{id: "score", deps: []string{"ingest_a", "ingest_b"}}))
	require.NoError(t, r.Register(&stubStep{id: "export", deps: []string{"score"}}))

	levels, err := r.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ingest_a", "ingest_b"},
		{"score"},
		{"export"},
	}, levelIDs(levels))
}

func TestRegistryLevelsKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "c"}))
	require.NoError(t, r.Register(&stubStep{id: "a"}))
	require.NoError(t, r.Register(&stubStep{id: "b"}))

	levels, err := r.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c", "a", "b"}}, levelIDs(levels))
}

func TestRegistryLevelsUnknownDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "score", deps: []string{"missing"}}))

	_, err := r.Levels()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestRegistryLevelsCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "a", deps: []string{"b"}}))
	require.NoError(t, r.Register(&stubStep{id: "b", deps: []string{"a"}}))

	_, err := r.Levels()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestRunnerRunsLevelsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(id string) func(context.Context, *State) error {
		return func(ctx context.Context, state *State) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
	}

	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "ingest_a", run: record("ingest_a")}))
	require.NoError(t, r.Register(&stubStep{id: "ingest_b", run: record("ingest_b")}))
	require.NoError(t, r.Register(&stubStep{id: "score", deps: []string{"ingest_a", "ingest_b"}, run: record("score")}))

	state := NewState(day(2026, 3, 2))
	runner := NewRunner(r, nil)
	require.NoError(t, runner.Run(context.Background(), state))

	require.Len(t, order, 3)
	assert.Equal(t, "score", order[2], "scoring runs only after every ingest step")
	assert.Equal(t, StepStatusCompleted, runner.StepStates["score"].CurrentStatus())
	assert.False(t, state.Report.Snapshot().EndedAt.IsZero())
}

func TestRunnerStepFailureAbortsRun(t *testing.T) {
	boom := errors.New("feed exploded")
	scored := &stubStep{id: "score", deps: []string{"ingest"}}

	r := NewRegistry()
	require.NoError(t, r.Register(&stubStep{id: "ingest", run: func(context.Context, *State) error { return boom }}))
	require.NoError(t, r.Register(scored))

	runner := NewRunner(r, nil)
	err := runner.Run(context.Background(), NewState(day(2026, 3, 2)))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, StepStatusFailed, runner.StepStates["ingest"].CurrentStatus())
	assert.Zero(t, scored.runs, "dependent level never starts")
}
