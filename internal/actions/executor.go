package actions

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Executor routes each decided action to its connector and runs one batch
// per cycle according to the mode's execution mode. Connector failures are
// logged and contained: one failing action never aborts its siblings.
type Executor struct {
	connectors map[string]Connector
	mode       ExecutionMode
	dag        *DAG
}

// NewExecutor builds an executor for a mode's connectors. deps is only
// consulted in dependencies mode; a dependency on an unknown action or a
// cyclic graph is a configuration error.
func NewExecutor(connectors []Connector, mode ExecutionMode, deps map[string][]string) (*Executor, error) {
	byName := make(map[string]Connector, len(connectors))
	for _, c := range connectors {
		if _, dup := byName[c.Name()]; dup {
			slog.Warn("duplicate action connector, keeping first", "action", c.Name())
			continue
		}
		byName[c.Name()] = c
	}

	e := &Executor{connectors: byName, mode: mode}

	if mode == ModeDependencies {
		dag, err := NewDAG(deps)
		if err != nil {
			return nil, fmt.Errorf("build action dependency graph: %w", err)
		}
		e.dag = dag
	}

	return e, nil
}

// Execute runs one batch of decided actions. Unknown action types are logged
// and skipped.
func (e *Executor) Execute(ctx context.Context, batch []Action) {
	switch e.mode {
	case ModeSequential:
		e.executeSequential(ctx, batch)
	case ModeDependencies:
		e.executeDependencies(ctx, batch)
	default:
		e.executeConcurrent(ctx, batch)
	}
}

func (e *Executor) executeConcurrent(ctx context.Context, batch []Action) {
	var g errgroup.Group
	for _, a := range batch {
		action := a
		conn, ok := e.connectors[action.Type]
		if !ok {
			slog.Warn("no connector for action", "action", action.Type)
			continue
		}
		g.Go(func() error {
			e.run(ctx, conn, action)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Executor) executeSequential(ctx context.Context, batch []Action) {
	for _, action := range batch {
		conn, ok := e.connectors[action.Type]
		if !ok {
			slog.Warn("no connector for action", "action", action.Type)
			continue
		}
		e.run(ctx, conn, action)
	}
}

// executeDependencies runs the batch in waves: every action whose
// prerequisites have completed runs concurrently with the rest of its wave.
// Actions absent from the graph run in the first wave.
func (e *Executor) executeDependencies(ctx context.Context, batch []Action) {
	pending := make(map[string][]Action)
	var ungoverned []Action
	for _, a := range batch {
		if e.dag.Contains(a.Type) {
			pending[a.Type] = append(pending[a.Type], a)
		} else {
			ungoverned = append(ungoverned, a)
		}
	}

	e.executeConcurrent(ctx, ungoverned)

	completed := make(map[string]bool)
	for len(pending) > 0 {
		ready := e.dag.Ready(completed)

		var wave []Action
		progressed := false
		for _, name := range ready {
			if as, ok := pending[name]; ok {
				wave = append(wave, as...)
				delete(pending, name)
			}
			// A ready node with no action in this batch still counts as
			// completed, otherwise its dependents would wait forever.
			if !completed[name] {
				completed[name] = true
				progressed = true
			}
		}

		if !progressed {
			// Remaining actions depend on nodes that will never complete.
			for name := range pending {
				slog.Warn("action prerequisites unsatisfiable in batch", "action", name)
			}
			return
		}

		e.executeConcurrent(ctx, wave)
	}
}

func (e *Executor) run(ctx context.Context, conn Connector, action Action) {
	if err := conn.Execute(ctx, action); err != nil {
		slog.Error("action execution failed", "action", action.Type, "error", err)
	}
}
