package vm

import (
	"math"
	"testing"
)

// run compiles and executes src against a fresh table, returning it
func run(t *testing.T, src string) *Bindings {
	t.Helper()
	b := NewBindings()
	prog, err := Compile(src, b)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	if err := NewSeededVM(1).Execute(prog, b); err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	return b
}

// varOf reads a named variable after execution
func varOf(t *testing.T, b *Bindings, name string) float64 {
	t.Helper()
	s, ok := b.Lookup(name)
	if !ok {
		t.Fatalf("variable %s not registered", name)
	}
	return b.Get(s)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		script string
		want   float64
	}{
		{"v = 1 + 2", 3},
		{"v = 10 - 4 - 3", 3},
		{"v = 2 * 3 + 4", 10},
		{"v = 2 + 3 * 4", 14},
		{"v = (2 + 3) * 4", 20},
		{"v = 7 / 2", 3.5},
		{"v = 7 % 3", 1},
		{"v = -5 + 2", -3},
		{"v = 2 * -3", -6},
		{"v = 1e2 + 0.5", 100.5},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			b := run(t, tt.script)
			if got := varOf(t, b, "v"); got != tt.want {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestComparisonsAndLogic(t *testing.T) {
	tests := []struct {
		script string
		want   float64
	}{
		{"v = 1 < 2", 1},
		{"v = 2 < 1", 0},
		{"v = 2 <= 2", 1},
		{"v = 3 > 2", 1},
		{"v = 2 >= 3", 0},
		{"v = 1 == 1", 1},
		{"v = 1 != 1", 0},
		{"v = 1 && 2", 1},
		{"v = 1 && 0", 0},
		{"v = 0 || 3", 1},
		{"v = 0 || 0", 0},
		{"v = !0", 1},
		{"v = !5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			b := run(t, tt.script)
			if got := varOf(t, b, "v"); got != tt.want {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestBuiltinFunctions(t *testing.T) {
	tests := []struct {
		script string
		want   float64
	}{
		{"v = sin(0)", 0},
		{"v = cos(0)", 1},
		{"v = sqrt(16)", 4},
		{"v = sqr(3)", 9},
		{"v = abs(-2.5)", 2.5},
		{"v = pow(2, 10)", 1024},
		{"v = min(3, 7)", 3},
		{"v = max(3, 7)", 7},
		{"v = sign(-4)", -1},
		{"v = sign(0)", 0},
		{"v = sign(9)", 1},
		{"v = floor(1.9)", 1},
		{"v = ceil(1.1)", 2},
		{"v = atan2(0, 1)", 0},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			b := run(t, tt.script)
			if got := varOf(t, b, "v"); got != tt.want {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestIEEESemantics(t *testing.T) {
	b := run(t, "inf = 1/0; ninf = -1/0; nan = sqrt(-1); prop = nan + 1")
	if v := varOf(t, b, "inf"); !math.IsInf(v, 1) {
		t.Errorf("expected +Inf, got %g", v)
	}
	if v := varOf(t, b, "ninf"); !math.IsInf(v, -1) {
		t.Errorf("expected -Inf, got %g", v)
	}
	if v := varOf(t, b, "nan"); !math.IsNaN(v) {
		t.Errorf("expected NaN, got %g", v)
	}
	// NaN propagates silently through further arithmetic
	if v := varOf(t, b, "prop"); !math.IsNaN(v) {
		t.Errorf("expected NaN propagation, got %g", v)
	}
}

func TestIfShortCircuit(t *testing.T) {
	// Only the taken branch may execute its assignment side effect
	b := run(t, "a=0; b=0; v = if(1, a=10, b=20)")
	if got := varOf(t, b, "a"); got != 10 {
		t.Errorf("expected taken branch a=10, got %g", got)
	}
	if got := varOf(t, b, "b"); got != 0 {
		t.Errorf("untaken branch executed: b=%g", got)
	}
	if got := varOf(t, b, "v"); got != 10 {
		t.Errorf("expected if value 10, got %g", got)
	}

	b = run(t, "a=0; b=0; v = if(0, a=10, b=20)")
	if got := varOf(t, b, "a"); got != 0 {
		t.Errorf("untaken branch executed: a=%g", got)
	}
	if got := varOf(t, b, "b"); got != 20 {
		t.Errorf("expected taken branch b=20, got %g", got)
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	b := run(t, "a=0; v = 0 && (a=1)")
	if got := varOf(t, b, "a"); got != 0 {
		t.Errorf("&& rhs executed despite false lhs: a=%g", got)
	}
	b = run(t, "a=0; v = 1 || (a=1)")
	if got := varOf(t, b, "a"); got != 0 {
		t.Errorf("|| rhs executed despite true lhs: a=%g", got)
	}
}

func TestAssignChainValue(t *testing.T) {
	b := run(t, "a = b = 3; c = (d = 5) + 1")
	if got := varOf(t, b, "a"); got != 3 {
		t.Errorf("expected a=3, got %g", got)
	}
	if got := varOf(t, b, "b"); got != 3 {
		t.Errorf("expected b=3, got %g", got)
	}
	if got := varOf(t, b, "c"); got != 6 {
		t.Errorf("expected c=6, got %g", got)
	}
}

func TestDeterminism(t *testing.T) {
	src := "v = sin(x)*cos(x) + pow(x, 2) % 3; w = if(v > 0, v, -v)"

	b1 := NewBindings()
	x1 := b1.Register("x")
	prog, err := Compile(src, b1)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	b1.Set(x1, 0.7)
	m := NewSeededVM(42)
	if err := m.Execute(prog, b1); err != nil {
		t.Fatalf("execute: %v", err)
	}
	first := b1.Get(b1.Register("w"))

	// Repeated execution with identical inputs yields identical outputs
	for i := 0; i < 10; i++ {
		b1.Set(x1, 0.7)
		if err := m.Execute(prog, b1); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
		if got := b1.Get(b1.Register("w")); got != first {
			t.Fatalf("run %d diverged: %g != %g", i, got, first)
		}
	}
}

func TestBindingsPersistAcrossExecutions(t *testing.T) {
	b := NewBindings()
	prog, err := Compile("accum = accum + 1", b)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := NewSeededVM(1)
	for i := 0; i < 5; i++ {
		if err := m.Execute(prog, b); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	if got := varOf(t, b, "accum"); got != 5 {
		t.Errorf("expected accumulator 5, got %g", got)
	}
}

func TestCloneIsolation(t *testing.T) {
	b := NewBindings()
	slot := b.Register("g")
	b.Set(slot, 7)

	clone := b.Clone()
	clone.Set(slot, 99)

	if got := b.Get(slot); got != 7 {
		t.Errorf("clone write leaked into parent: %g", got)
	}
	if got := clone.Get(slot); got != 99 {
		t.Errorf("clone lost its write: %g", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		script string
	}{
		{"v = nosuchfunc(1)"},
		{"v = sin(1, 2)"},
		{"v = if(1, 2)"},
		{"v = "},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			_, err := Compile(tt.script, NewBindings())
			if err == nil {
				t.Fatal("expected compile error")
			}
		})
	}
}

func TestFuncNamesMatchLookup(t *testing.T) {
	names := FuncNames()
	if len(names) == 0 {
		t.Fatal("empty builtin table")
	}
	for i, name := range names {
		id, arity, ok := LookupFunc(name)
		if !ok {
			t.Errorf("%s listed but not resolvable", name)
			continue
		}
		if id != i {
			t.Errorf("%s resolves to id %d, listed at %d", name, id, i)
		}
		if arity < 1 || arity > 2 {
			t.Errorf("%s has implausible arity %d", name, arity)
		}
	}
}

func TestAudioSamplerBuiltins(t *testing.T) {
	b := NewBindings()
	prog, err := Compile("s = getspec(0, 0.5); w = getwave(1, 0.25); z = getspec(0, 2)", b)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	m := NewSeededVM(1)
	m.SetAudio(stubSampler{})
	if err := m.Execute(prog, b); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := varOf(t, b, "s"); got != 0.5 {
		t.Errorf("expected getspec echo 0.5, got %g", got)
	}
	if got := varOf(t, b, "w"); got != 1.25 {
		t.Errorf("expected getwave channel+index 1.25, got %g", got)
	}
}

func TestNilAudioSamplerYieldsZero(t *testing.T) {
	b := run(t, "s = getspec(0, 0.5) + getwave(1, 0.5)")
	if got := varOf(t, b, "s"); got != 0 {
		t.Errorf("expected 0 with no sampler, got %g", got)
	}
}

// stubSampler echoes its inputs so tests can verify argument plumbing
type stubSampler struct{}

func (stubSampler) Spec(channel int, index float64) float64 {
	return float64(channel) + index
}

func (stubSampler) Wave(channel int, index float64) float64 {
	return float64(channel) + index
}

func TestCaseInsensitiveVariables(t *testing.T) {
	b := run(t, "Foo = 3; bar = FOO + foo")
	if got := varOf(t, b, "bar"); got != 6 {
		t.Errorf("expected case-insensitive lookup to give 6, got %g", got)
	}
}

func BenchmarkExecutePointProgram(b *testing.B) {
	binds := NewBindings()
	x := binds.Register("x")
	binds.Register("y")
	binds.Register("d")
	binds.Register("r")
	prog, err := Compile("d = d * 0.98; x = cos(r)*d; y = sin(r)*d", binds)
	if err != nil {
		b.Fatalf("compile: %v", err)
	}

	m := NewSeededVM(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		binds.Set(x, 0.5)
		if err := m.Execute(prog, binds); err != nil {
			b.Fatal(err)
		}
	}
}
