package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/scheduler"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/modules/event"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/zclconf/go-cty/cty"
)

// waiter yields each of its waits in turn and then fails with err.
type waiter struct {
	graph.CoroutineNode
	waits []graph.Wait
	err   error
}

func (n *waiter) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	return nil
}

func (n *waiter) OnExecutedCoroutine(_ *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	for _, w := range n.waits {
		if !yield(w) {
			return graph.Jump{}, graph.ErrStopped
		}
	}
	return graph.Jump{}, n.err
}

type fixture struct {
	sched *scheduler.Scheduler
	inst  *graph.Instance
	out   *testutil.SafeBuffer
}

func setup(t *testing.T, w *waiter, opts ...scheduler.Option) *fixture {
	t.Helper()
	b := testutil.NewBuilder(t)
	testutil.Add(b, "start", &event.Event{Count: 1})
	testutil.Add(b, "w", w)
	p := testutil.Add(b, "done", &print.Print{})
	p.In.WithDefault(cty.StringVal("done"))
	b.Connect("start.out[0]", "w.enter").Connect("w.exit", "done.enter")

	f := &fixture{sched: scheduler.New(opts...), out: new(testutil.SafeBuffer)}
	f.inst = graph.NewInstance(b.G, graph.WithOutput(f.out), graph.WithSpawner(f.sched))
	require.NoError(t, f.inst.Trigger(context.Background(), "start"))
	return f
}

func TestTick_Ticks(t *testing.T) {
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Ticks(2)}})
	ctx := context.Background()
	require.Equal(t, 1, f.sched.Pending())

	require.NoError(t, f.sched.Tick(ctx))
	assert.Empty(t, f.out.String())
	require.NoError(t, f.sched.Tick(ctx))
	assert.Equal(t, "done\n", f.out.String())
	assert.Zero(t, f.sched.Pending())
	assert.Equal(t, uint64(2), f.sched.Ticks())
}

func TestTick_Until(t *testing.T) {
	ready := false
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Until(func() bool { return ready })}})
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))
	require.NoError(t, f.sched.Tick(ctx))
	assert.Empty(t, f.out.String())

	ready = true
	require.NoError(t, f.sched.Tick(ctx))
	assert.Equal(t, "done\n", f.out.String())
}

func TestTick_ChainedWaitsReparkOnNextTick(t *testing.T) {
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Ticks(1), scheduler.Ticks(1)}})
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))
	assert.Equal(t, 1, f.sched.Pending())
	assert.Empty(t, f.out.String())

	require.NoError(t, f.sched.Tick(ctx))
	assert.Equal(t, "done\n", f.out.String())
}

func TestTick_Duration(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Duration(time.Second)}},
		scheduler.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	now = now.Add(999 * time.Millisecond)
	require.NoError(t, f.sched.Tick(ctx))
	assert.Empty(t, f.out.String())

	now = now.Add(time.Millisecond)
	require.NoError(t, f.sched.Tick(ctx))
	assert.Equal(t, "done\n", f.out.String())
}

func TestTick_ReportsFailedRoutines(t *testing.T) {
	boom := errors.New("boom")
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Ticks(1)}, err: boom})

	err := f.sched.Tick(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "w.enter")
	assert.Zero(t, f.sched.Pending())
	assert.Empty(t, f.out.String())
}

func TestTick_CanceledContext(t *testing.T) {
	f := setup(t, &waiter{waits: []graph.Wait{scheduler.Ticks(1)}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, f.sched.Tick(ctx), context.Canceled)
	assert.Equal(t, 1, f.sched.Pending())
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name        string
		maxTicks    int
		wantOut     string
		wantPending int
	}{
		{name: "until idle", maxTicks: 0, wantOut: "done\n"},
		{name: "tick limit", maxTicks: 1, wantPending: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, &waiter{waits: []graph.Wait{scheduler.Ticks(3)}})
			err := f.sched.Run(context.Background(), f.inst, time.Millisecond, tc.maxTicks)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOut, f.out.String())
			assert.Equal(t, tc.wantPending, f.sched.Pending())
		})
	}
}
