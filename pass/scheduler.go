package pass

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// Observer receives the wall time of each completed invocation.
type Observer func(pass string, elapsed time.Duration)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers a callback run after every invocation.
func WithObserver(fn Observer) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// Scheduler holds the ordered queue of pending pass invocations and runs
// them against the field set it owns. Invocations run strictly in FIFO
// order; each one's write buffers are swapped only after its Execute and
// Finalize return, so no two invocations interleave writes.
//
// Enqueue and Drop may be called from input handlers between frames;
// DrainOnce is called once per frame from the simulation loop.
type Scheduler struct {
	mu    sync.Mutex
	queue []Pass
	head  int

	set       *field.Set
	ctx       Context
	log       *slog.Logger
	observer  Observer
	executed  uint64
	anomalies uint64
}

// NewScheduler creates a scheduler over set.
func NewScheduler(set *field.Set, opts ...Option) *Scheduler {
	s := &Scheduler{
		set:   set,
		queue: make([]Pass, 0, 16),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx = Context{set: set, log: s.log, writes: make([]writeTarget, 0, 4)}
	return s
}

// Validate checks a pass's bindings against the field set.
func (s *Scheduler) Validate(p Pass) error {
	if p == nil {
		return fmt.Errorf("%w: nil pass", ErrInvalidBinding)
	}
	seen := make(map[Binding]bool, len(p.Bindings()))
	writes := 0
	for _, b := range p.Bindings() {
		if !s.set.Has(b.Field) {
			return fmt.Errorf("%w: %s reads %q: %w", ErrInvalidBinding, p.Name(), b.Field, field.ErrUnknownField)
		}
		if seen[b] {
			return fmt.Errorf("%w: %s binds %q as %s twice", ErrInvalidBinding, p.Name(), b.Field, b.Access)
		}
		seen[b] = true
		if b.Access == WriteNext {
			if s.set.IsStatic(b.Field) {
				return fmt.Errorf("%w: %s writes single-buffered field %q", ErrInvalidBinding, p.Name(), b.Field)
			}
			writes++
		}
	}
	if writes == 0 {
		return fmt.Errorf("%w: %s declares no write target", ErrInvalidBinding, p.Name())
	}
	return nil
}

// Enqueue appends an invocation of p.
func (s *Scheduler) Enqueue(p Pass) error {
	if err := s.Validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	s.queue = append(s.queue, p)
	s.mu.Unlock()
	return nil
}

// Drop removes every pending invocation of p and returns how many were removed.
// Nothing has been written for a pending invocation, so dropping it leaves
// field state untouched.
func (s *Scheduler) Drop(p Pass) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.queue[:s.head]
	dropped := 0
	for _, q := range s.queue[s.head:] {
		if q == p {
			dropped++
			continue
		}
		kept = append(kept, q)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	if dropped > 0 {
		s.log.Debug("dropped pending invocations", "pass", p.Name(), "count", dropped)
	}
	return dropped
}

// Len returns the number of pending invocations.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) - s.head
}

// Executed returns the number of invocations run since creation.
func (s *Scheduler) Executed() uint64 { return s.executed }

// Anomalies returns the number of clamped cells reported since creation.
func (s *Scheduler) Anomalies() uint64 { return s.anomalies }

// Fields returns the field set the scheduler runs against.
func (s *Scheduler) Fields() *field.Set { return s.set }

func (s *Scheduler) pop() Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head >= len(s.queue) {
		// Reuse the backing array once drained.
		s.queue = s.queue[:0]
		s.head = 0
		return nil
	}
	p := s.queue[s.head]
	s.queue[s.head] = nil
	s.head++
	return p
}

// DrainOnce runs pending invocations in FIFO order until the queue is empty
// and returns how many ran. Invocations enqueued by a running pass are
// drained in the same call. An empty queue touches no field.
func (s *Scheduler) DrainOnce() int {
	n := 0
	for {
		p := s.pop()
		if p == nil {
			return n
		}
		s.run(p)
		n++
	}
}

func (s *Scheduler) run(p Pass) {
	start := time.Now()

	s.ctx.bind(p)
	p.Init(&s.ctx)
	err := p.Execute(&s.ctx)
	p.Finalize(&s.ctx)

	if err != nil {
		var cellErr *CellError
		if errors.As(err, &cellErr) {
			s.anomalies += uint64(cellErr.Cells)
			s.log.Warn("clamped cell anomalies", "pass", cellErr.Pass, "field", cellErr.Field, "cells", cellErr.Cells)
		} else {
			s.log.Warn("pass reported error", "pass", p.Name(), "error", err)
		}
	}

	for _, w := range s.ctx.writes {
		w.buffer.Swap()
	}
	s.executed++

	if s.observer != nil {
		s.observer(p.Name(), time.Since(start))
	}
}
