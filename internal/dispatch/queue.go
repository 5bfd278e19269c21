// Package dispatch fans decided action batches out to simulators and
// reconciles the in-flight dispatches each cycle.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quentin-h/embra/internal/actions"
)

// Simulator consumes full action batches. Implemented by simulator plugins;
// the dispatch layer only needs the batch entry point.
type Simulator interface {
	Name() string
	Sim(batch []actions.Action) error
}

// Promise is a handle to one in-flight simulator dispatch. It is polled to
// completion by Flush rather than awaited synchronously.
type Promise struct {
	ID        string
	Simulator string

	done chan struct{}
	err  error
}

// Done reports whether the dispatch has finished, without blocking.
func (p *Promise) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the dispatch error. Only meaningful once Done reports true.
func (p *Promise) Err() error {
	return p.err
}

// Queue schedules asynchronous dispatches and tracks their promises.
// One simulator's latency never blocks dispatch of the next batch.
type Queue struct {
	simulators []Simulator

	mu      sync.Mutex
	pending []*Promise
}

// NewQueue creates a queue over the mode's simulators.
func NewQueue(simulators []Simulator) *Queue {
	return &Queue{simulators: simulators}
}

// Promise schedules one asynchronous dispatch per simulator. Every simulator
// receives the full batch; the batch is not split per action. There is no
// ordering guarantee among simulators.
func (q *Queue) Promise(batch []actions.Action) {
	for _, sim := range q.simulators {
		p := &Promise{
			ID:        uuid.NewString(),
			Simulator: sim.Name(),
			done:      make(chan struct{}),
		}

		go func(sim Simulator, p *Promise) {
			defer close(p.done)
			p.err = sim.Sim(batch)
		}(sim, p)

		q.mu.Lock()
		q.pending = append(q.pending, p)
		q.mu.Unlock()
	}
}

// Flush partitions the pending list into done and still-pending promises.
// Done promises are awaited (surfacing the error their dispatch raised) and
// removed; promises still in flight are left untouched. Flush never blocks,
// so it is safe to call every tick.
func (q *Queue) Flush() (done []*Promise, pending []*Promise) {
	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := q.pending[:0]
	for _, p := range q.pending {
		if !p.Done() {
			remaining = append(remaining, p)
			continue
		}
		if p.err != nil {
			slog.Error("simulator dispatch failed", "simulator", p.Simulator, "promise", p.ID, "error", p.err)
		}
		done = append(done, p)
	}

	q.pending = remaining
	return done, append([]*Promise(nil), remaining...)
}

// PendingCount returns the number of in-flight dispatches.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
