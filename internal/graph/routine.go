package graph

import "iter"

// Wait is an opaque suspension request. The host scheduler decides what it
// means; the runtime only passes it along.
type Wait any

// Spawner receives routines that suspended during a synchronous trigger.
// The host resumes them by calling Step until it reports false.
type Spawner interface {
	Spawn(r *Routine, w Wait)
}

// Routine is a suspended execution of a coroutine flow input, built on
// iter.Pull so that suspension needs no goroutines of its own.
type Routine struct {
	label   string
	next    func() (Wait, bool)
	stop    func()
	jump    Jump
	err     error
	done    bool
	stopped bool
}

func newRoutine(label string, body func(yield func(Wait) bool) (Jump, error)) *Routine {
	r := &Routine{label: label}
	var seq iter.Seq[Wait] = func(yield func(Wait) bool) {
		r.jump, r.err = body(yield)
	}
	r.next, r.stop = iter.Pull(seq)
	return r
}

// finished returns a routine that already completed with j and err.
func finished(label string, j Jump, err error) *Routine {
	return &Routine{label: label, jump: j, err: err, done: true, next: func() (Wait, bool) { return nil, false }, stop: func() {}}
}

// Label names the port the routine was started from.
func (r *Routine) Label() string { return r.label }

// Step resumes the routine until its next wait. It returns false once the
// routine has finished.
func (r *Routine) Step() (Wait, bool) {
	if r.done {
		return nil, false
	}
	w, ok := r.next()
	if !ok {
		r.done = true
		r.stop()
	}
	return w, ok
}

// Stop cancels a suspended routine. Its pending yield returns false and the
// body is expected to return promptly.
func (r *Routine) Stop() {
	if r.done {
		return
	}
	r.done = true
	r.stopped = true
	r.stop()
}

// Done reports whether the routine finished or was stopped.
func (r *Routine) Done() bool { return r.done }

// Result returns the jump and error the routine finished with.
func (r *Routine) Result() (Jump, error) {
	if r.stopped {
		return Jump{}, ErrStopped
	}
	return r.jump, r.err
}
