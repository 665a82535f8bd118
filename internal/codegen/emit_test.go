package codegen_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/codegen"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/modules/event"
	"github.com/vk/flowgridgo/modules/flow"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/vk/flowgridgo/modules/statemachine"
	"github.com/vk/flowgridgo/modules/value"
	"github.com/vk/flowgridgo/modules/variable"
	"github.com/zclconf/go-cty/cty"
)

func start(t *testing.T) *testutil.Builder {
	t.Helper()
	b := testutil.NewBuilder(t)
	testutil.Add(b, "start", &event.Event{Count: 1})
	return b
}

func say(b *testutil.Builder, id string, v cty.Value) {
	p := testutil.Add(b, id, &print.Print{})
	p.In.WithDefault(v)
}

func countingLoop(t *testing.T) *testutil.Builder {
	b := start(t)
	testutil.Add(b, "loop", &flow.For{To: 3})
	testutil.Add(b, "body", &print.Print{})
	testutil.Add(b, "after", &print.Print{})
	b.Connect("start.out[0]", "loop.enter").
		Connect("loop.body", "body.enter").
		Connect("loop.index", "body.value").
		Connect("loop.exit", "after.enter").
		Connect("loop.index", "after.value")
	return b
}

func guardedLoop(t *testing.T, op string, jump graph.Node) *testutil.Builder {
	b := start(t)
	testutil.Add(b, "loop", &flow.For{To: 4})
	cmp := testutil.Add(b, "cmp", &value.Compare{Op: op})
	cmp.B.WithDefault(cty.NumberIntVal(2))
	testutil.Add(b, "if", &flow.If{})
	testutil.Add(b, "jump", jump)
	testutil.Add(b, "print", &print.Print{})
	say(b, "done", cty.StringVal("done"))
	b.Connect("start.out[0]", "loop.enter").
		Connect("loop.index", "cmp.a").
		Connect("loop.body", "if.enter").
		Connect("cmp.result", "if.condition").
		Connect("if.true", "jump.enter").
		Connect("if.false", "print.enter").
		Connect("loop.index", "print.value").
		Connect("loop.exit", "done.enter")
	return b
}

func accumulate(t *testing.T) *testutil.Builder {
	b := start(t)
	b.G.DeclareVariable("total", cty.Zero)
	testutil.Add(b, "items", &value.Literal{Value: cty.TupleVal([]cty.Value{
		cty.NumberIntVal(4), cty.NumberIntVal(5), cty.NumberIntVal(6),
	})})
	testutil.Add(b, "each", &flow.ForEach{})
	testutil.Add(b, "get", &variable.Get{Name: "total"})
	testutil.Add(b, "add", &value.Arith{Op: "+"})
	testutil.Add(b, "set", &variable.Set{Name: "total"})
	testutil.Add(b, "mod", &value.Arith{Op: "%"})
	testutil.Add(b, "len", &value.Length{})
	testutil.Add(b, "print", &print.Print{})
	testutil.Add(b, "modprint", &print.Print{})
	b.Connect("start.out[0]", "each.enter").
		Connect("items.value", "each.collection").
		Connect("each.body", "set.enter").
		Connect("get.value", "add.a").
		Connect("each.element", "add.b").
		Connect("add.result", "set.value").
		Connect("each.exit", "print.enter").
		Connect("set.value", "print.value").
		Connect("print.exit", "modprint.enter").
		Connect("get.value", "mod.a").
		Connect("items.value", "len.collection").
		Connect("len.length", "mod.b").
		Connect("mod.result", "modprint.value")
	return b
}

func sequenceAndWait(t *testing.T) *testutil.Builder {
	b := start(t)
	testutil.Add(b, "seq", &flow.Sequence{Steps: 2})
	say(b, "a", cty.StringVal("a"))
	testutil.Add(b, "nap", &flow.Wait{Ms: 1})
	say(b, "b", cty.TupleVal([]cty.Value{cty.True, cty.StringVal("b")}))
	b.Connect("start.out[0]", "seq.enter").
		Connect("seq.then[0]", "a.enter").
		Connect("seq.then[1]", "nap.enter").
		Connect("nap.exit", "b.enter")
	return b
}

// comparisons prints AND over boundary comparisons, one of them reading the
// length of an empty collection.
func comparisons(t *testing.T) *testutil.Builder {
	b := start(t)
	testutil.Add(b, "empty", &value.Literal{Value: cty.EmptyTupleVal})
	testutil.Add(b, "len", &value.Length{})
	eq := testutil.Add(b, "eq", &value.Compare{Op: "=="})
	eq.B.WithDefault(cty.Zero)
	le := testutil.Add(b, "le", &value.Compare{Op: "<="})
	le.A.WithDefault(cty.NumberIntVal(3))
	le.B.WithDefault(cty.NumberIntVal(3))
	gt := testutil.Add(b, "gt", &value.Compare{Op: ">"})
	gt.A.WithDefault(cty.NumberIntVal(3))
	gt.B.WithDefault(cty.NumberIntVal(3))
	testutil.Add(b, "two", &value.Gate{Inputs: 2})
	testutil.Add(b, "three", &value.Gate{Inputs: 3})
	testutil.Add(b, "p2", &print.Print{})
	testutil.Add(b, "p3", &print.Print{})
	testutil.Add(b, "each", &flow.ForEach{})
	say(b, "never", cty.StringVal("never"))
	testutil.Add(b, "count", &print.Print{})
	b.Connect("start.out[0]", "p2.enter").
		Connect("empty.value", "len.collection").
		Connect("len.length", "eq.a").
		Connect("eq.result", "two.in[0]").
		Connect("le.result", "two.in[1]").
		Connect("eq.result", "three.in[0]").
		Connect("le.result", "three.in[1]").
		Connect("gt.result", "three.in[2]").
		Connect("two.result", "p2.value").
		Connect("p2.exit", "p3.enter").
		Connect("three.result", "p3.value").
		Connect("p3.exit", "each.enter").
		Connect("empty.value", "each.collection").
		Connect("each.body", "never.enter").
		Connect("each.exit", "count.enter").
		Connect("len.length", "count.value")
	return b
}

// branchAndReturn takes the true branch of an if, which returns before the
// event's second output runs.
func branchAndReturn(t *testing.T) *testutil.Builder {
	b := testutil.NewBuilder(t)
	testutil.Add(b, "start", &event.Event{Count: 2})
	lt := testutil.Add(b, "lt", &value.Compare{Op: "<"})
	lt.A.WithDefault(cty.NumberIntVal(2))
	lt.B.WithDefault(cty.NumberIntVal(3))
	testutil.Add(b, "if", &flow.If{})
	say(b, "yes", cty.StringVal("yes"))
	say(b, "no", cty.StringVal("no"))
	testutil.Add(b, "ret", &flow.Return{})
	say(b, "never", cty.StringVal("never"))
	b.Connect("start.out[0]", "if.enter").
		Connect("lt.result", "if.condition").
		Connect("if.true", "yes.enter").
		Connect("yes.exit", "ret.enter").
		Connect("if.false", "no.enter").
		Connect("start.out[1]", "never.enter")
	return b
}

// machine moves from idle to running two ticks after start.
func machine(t *testing.T) *testutil.Builder {
	b := start(t)
	testutil.Add(b, "idle", &statemachine.State{Transitions: []string{"later"}})
	testutil.Add(b, "later", &statemachine.After{Ticks: 2})
	testutil.Add(b, "running", &statemachine.State{})
	say(b, "hello", cty.StringVal("idle"))
	say(b, "bye", cty.StringVal("bye"))
	say(b, "go", cty.StringVal("running"))
	b.Connect("start.out[0]", "idle.enter").
		Connect("idle.on_enter", "hello.enter").
		Connect("idle.on_exit", "bye.enter").
		Connect("later.exit", "running.enter").
		Connect("running.on_enter", "go.enter")
	return b
}

func divideByZero(t *testing.T) *testutil.Builder {
	b := start(t)
	div := testutil.Add(b, "div", &value.Arith{Op: "/"})
	div.A.WithDefault(cty.NumberIntVal(1))
	div.B.WithDefault(cty.Zero)
	testutil.Add(b, "print", &print.Print{})
	b.Connect("start.out[0]", "print.enter").Connect("div.result", "print.value")
	return b
}

// interpret runs the program on a fresh instance, ticking it ticks times
// after the trigger.
func interpret(t *testing.T, g *graph.Graph, ticks int) (string, error) {
	t.Helper()
	var out bytes.Buffer
	inst := graph.NewInstance(g, graph.WithOutput(&out))
	ctx := context.Background()
	if err := inst.Trigger(ctx, "start"); err != nil {
		return out.String(), err
	}
	for range ticks {
		if err := inst.Tick(ctx); err != nil {
			return out.String(), err
		}
	}
	return out.String(), nil
}

// runEmitted emits g and runs it with the go tool, skipping the test when
// the tool is unavailable.
func runEmitted(t *testing.T, g *graph.Graph) (stdout, stderr string, err error) {
	t.Helper()
	if testing.Short() {
		t.Skip("compiles emitted programs")
	}
	goBin, lookErr := exec.LookPath("go")
	if lookErr != nil {
		t.Skip("go toolchain not found")
	}
	src, emitErr := codegen.Emit(g, []string{"start"})
	require.NoError(t, emitErr, string(src))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module emitted\n\ngo 1.24\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), src, 0o644))

	var out, errOut bytes.Buffer
	cmd := exec.Command(goBin, "run", ".")
	cmd.Dir = dir
	cmd.Stdout, cmd.Stderr = &out, &errOut
	err = cmd.Run()
	return out.String(), errOut.String() + "\n" + string(src), err
}

var programs = []struct {
	name  string
	build func(t *testing.T) *testutil.Builder
	ticks int
	want  string
}{
	{name: "for", build: countingLoop, want: "0\n1\n2\n3\n"},
	{name: "break", build: func(t *testing.T) *testutil.Builder { return guardedLoop(t, ">=", &flow.Break{}) }, want: "0\n1\ndone\n"},
	{name: "continue", build: func(t *testing.T) *testutil.Builder { return guardedLoop(t, "==", &flow.Continue{}) }, want: "0\n1\n3\ndone\n"},
	{name: "foreach with variable", build: accumulate, want: "15\n0\n"},
	{name: "sequence and wait", build: sequenceAndWait, want: "a\n[true b]\n"},
	{name: "and over boundary comparisons", build: comparisons, want: "true\nfalse\n0\n"},
	{name: "if and return", build: branchAndReturn, want: "yes\n"},
	{name: "state machine", build: machine, ticks: 2, want: "idle\nbye\nrunning\n"},
}

func TestEmit_Shape(t *testing.T) {
	b := countingLoop(t)
	src, err := codegen.Emit(b.G, nil)
	require.NoError(t, err)
	code := string(src)

	assert.Contains(t, code, "// Code generated by flowgridgo. DO NOT EDIT.")
	assert.Contains(t, code, "package main")
	assert.Contains(t, code, "func ev_start() any {")
	assert.Contains(t, code, "var i float64", "the index is read after the loop")
	assert.Contains(t, code, "for i = float64(0); i < float64(3); i++ {")
	assert.Contains(t, code, "ev_start()\n}")
}

func TestEmit_DivisionGuard(t *testing.T) {
	src, err := codegen.Emit(divideByZero(t).G, nil)
	require.NoError(t, err)
	code := string(src)
	assert.Contains(t, code, "if y == 0 {")
	assert.Contains(t, code, `panic("division by zero")`)
	assert.NotContains(t, code, "float64(1) / float64(0)")
}

func TestEmit_EventFunctionNamesAreUnique(t *testing.T) {
	b := testutil.NewBuilder(t)
	testutil.Add(b, "a", &event.Event{Count: 1})
	testutil.Add(b, "a2", &event.Event{Count: 1})
	say(b, "p", cty.StringVal("x"))
	b.Connect("a.out[0]", "p.enter").Connect("a2.out[0]", "p.enter")

	src, err := codegen.Emit(b.G, []string{"a", "a", "a2"})
	require.NoError(t, err)
	code := string(src)
	for _, fn := range []string{"func ev_a() any", "func ev_a2() any", "func ev_a22() any"} {
		assert.Equal(t, 1, strings.Count(code, fn), fn)
	}
}

func TestEmit_LocalLoopIndex(t *testing.T) {
	b := start(t)
	testutil.Add(b, "loop", &flow.For{To: 2})
	testutil.Add(b, "body", &print.Print{})
	b.Connect("start.out[0]", "loop.enter").
		Connect("loop.body", "body.enter").
		Connect("loop.index", "body.value")

	src, err := codegen.Emit(b.G, []string{"start"})
	require.NoError(t, err)
	assert.Contains(t, string(src), "for i := float64(0); i < float64(2); i++ {")
	assert.NotContains(t, string(src), "var i float64")
}

func TestEmit_Variables(t *testing.T) {
	b := start(t)
	b.G.DeclareVariable("name", cty.StringVal("x"))
	b.G.DeclareVariable("anything", cty.NilVal)
	testutil.Add(b, "get", &variable.Get{Name: "name"})
	testutil.Add(b, "print", &print.Print{})
	b.Connect("start.out[0]", "print.enter").Connect("get.value", "print.value")

	src, err := codegen.Emit(b.G, nil)
	require.NoError(t, err)
	assert.Contains(t, string(src), `var v_name string = "x"`)
	assert.Contains(t, string(src), "var v_anything any")
	assert.Contains(t, string(src), "fmt.Println(v_name)")
}

func TestEmit_State(t *testing.T) {
	b := start(t)
	testutil.Add(b, "idle", &statemachine.State{Transitions: []string{"later"}})
	testutil.Add(b, "later", &statemachine.After{Ticks: 2})
	say(b, "bye", cty.StringVal("bye"))
	b.Connect("start.out[0]", "idle.enter").Connect("later.exit", "bye.enter")

	src, err := codegen.Emit(b.G, nil)
	require.NoError(t, err)
	code := string(src)
	assert.Contains(t, code, "func state_idle() any {")
	assert.Contains(t, code, "ticks := 0")
	assert.Contains(t, code, "if ticks >= 2 {")
	assert.Contains(t, code, "state_idle()\n")
}

func TestEmit_Errors(t *testing.T) {
	t.Run("break outside loop", func(t *testing.T) {
		b := start(t)
		testutil.Add(b, "brk", &flow.Break{})
		b.Connect("start.out[0]", "brk.enter")
		_, err := codegen.Emit(b.G, nil)
		assert.ErrorContains(t, err, "jump outside of a loop")
	})

	t.Run("unassigned input", func(t *testing.T) {
		b := start(t)
		testutil.Add(b, "print", &print.Print{})
		b.Connect("start.out[0]", "print.enter")
		_, err := codegen.Emit(b.G, nil)
		assert.ErrorContains(t, err, "unassigned")
	})

	t.Run("unknown event", func(t *testing.T) {
		b := start(t)
		_, err := codegen.Emit(b.G, []string{"nope"})
		assert.ErrorContains(t, err, "unknown node")
	})

	t.Run("not an event", func(t *testing.T) {
		b := start(t)
		say(b, "print", cty.StringVal("x"))
		_, err := codegen.Emit(b.G, []string{"print"})
		assert.ErrorContains(t, err, "is not an event")
	})
}

// TestEmit_MatchesInterpreter runs every program both ways and compares the
// output. It needs a Go toolchain.
func TestEmit_MatchesInterpreter(t *testing.T) {
	for _, p := range programs {
		t.Run(p.name, func(t *testing.T) {
			b := p.build(t)
			interpreted, err := interpret(t, b.G, p.ticks)
			require.NoError(t, err)
			assert.Equal(t, p.want, interpreted)

			stdout, stderr, err := runEmitted(t, b.G)
			require.NoError(t, err, stderr)
			assert.Equal(t, interpreted, stdout)
		})
	}
}

func TestEmit_DivisionByZeroFailsBothWays(t *testing.T) {
	b := divideByZero(t)
	out, err := interpret(t, b.G, 0)
	require.ErrorIs(t, err, value.ErrDivisionByZero)
	assert.Empty(t, out)

	stdout, stderr, err := runEmitted(t, b.G)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "panic: division by zero")
}
