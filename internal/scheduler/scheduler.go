package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/flowgridgo/internal/graph"
)

type task struct {
	r        *graph.Routine
	wait     graph.Wait
	ticks    int
	deadline time.Time
}

// Scheduler resumes parked routines tick by tick.
type Scheduler struct {
	logger *slog.Logger
	now    func() time.Time
	tasks  []*task
	ticks  uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn implements graph.Spawner.
func (s *Scheduler) Spawn(r *graph.Routine, w graph.Wait) {
	s.logger.Debug("Routine parked.", "routine", r.Label(), "wait", fmt.Sprintf("%T", w))
	s.tasks = append(s.tasks, s.park(&task{r: r}, w))
}

func (s *Scheduler) park(t *task, w graph.Wait) *task {
	t.wait = w
	switch w := w.(type) {
	case Ticks:
		t.ticks = int(w)
	case Duration:
		t.deadline = s.now().Add(time.Duration(w))
	}
	return t
}

// Pending returns the number of parked routines.
func (s *Scheduler) Pending() int { return len(s.tasks) }

// Ticks returns the number of ticks run so far.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

func (s *Scheduler) ready(t *task) bool {
	switch w := t.wait.(type) {
	case Ticks:
		t.ticks--
		return t.ticks <= 0
	case Duration:
		return !s.now().Before(t.deadline)
	case Until:
		return w == nil || w()
	}
	return true
}

// Tick resumes every routine whose wait is satisfied. Routines parked during
// the tick are first considered on the next one. Failed routines are logged
// and their errors joined into the result.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ticks++
	current := s.tasks
	s.tasks = nil
	var (
		keep []*task
		errs []error
	)
	for _, t := range current {
		if t.r.Done() {
			continue
		}
		if !s.ready(t) {
			keep = append(keep, t)
			continue
		}
		w, ok := t.r.Step()
		if ok {
			keep = append(keep, s.park(t, w))
			continue
		}
		if _, err := t.r.Result(); err != nil && !errors.Is(err, graph.ErrStopped) {
			s.logger.Error("Routine failed.", "routine", t.r.Label(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.r.Label(), err))
			continue
		}
		s.logger.Debug("Routine finished.", "routine", t.r.Label())
	}
	s.tasks = append(keep, s.tasks...)
	return errors.Join(errs...)
}

// Run ticks inst and the scheduler every interval until nothing is left to
// do, maxTicks is reached (when positive) or ctx is done. Updaters run
// before routines within a tick.
func (s *Scheduler) Run(ctx context.Context, inst *graph.Instance, interval time.Duration, maxTicks int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		if s.Pending() == 0 && !inst.Updating() {
			s.logger.Debug("Scheduler idle, stopping.", "ticks", s.ticks)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := inst.Tick(ctx); err != nil {
			return err
		}
		if err := s.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
