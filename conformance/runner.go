// Package conformance runs YAML-defined script suites against the
// expression engine. Each case compiles a script against a fresh binding
// table, seeds variables, executes once, and checks the resulting
// variable values.
package conformance

import (
	"fmt"
	"math"

	"strobe/vm"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	machine *vm.VM
}

// NewRunner creates a test runner with a deterministic engine
func NewRunner() *Runner {
	return &Runner{machine: vm.NewSeededVM(1)}
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	binds := vm.NewBindings()
	// Register expectation and seed variables before compiling so the
	// script resolves them to the same slots
	for name := range test.Test.Vars {
		binds.Register(name)
	}
	for name := range test.Test.Expect.Values {
		binds.Register(name)
	}
	for name := range test.Test.Expect.Special {
		binds.Register(name)
	}

	prog, err := vm.Compile(test.Test.Script, binds)
	if test.Test.Expect.Error {
		if err == nil {
			return TestResult{Test: test, Error: fmt.Errorf("expected compile error, script compiled")}
		}
		return TestResult{Test: test, Passed: true}
	}
	if err != nil {
		return TestResult{Test: test, Error: fmt.Errorf("compile: %w", err)}
	}

	for name, val := range test.Test.Vars {
		slot, _ := binds.Lookup(name)
		binds.Set(slot, val)
	}

	if err := r.machine.Execute(prog, binds); err != nil {
		return TestResult{Test: test, Error: fmt.Errorf("execute: %w", err)}
	}

	if err := checkExpectation(&test.Test.Expect, binds); err != nil {
		return TestResult{Test: test, Error: err}
	}
	return TestResult{Test: test, Passed: true}
}

// RunAll executes every loaded test in order
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, test := range tests {
		results = append(results, r.Run(test))
	}
	return results
}

// checkExpectation compares final variable values against the case's
// expectations
func checkExpectation(exp *Expectation, binds *vm.Bindings) error {
	for name, want := range exp.Values {
		got, err := varValue(binds, name)
		if err != nil {
			return err
		}
		if !closeEnough(got, want, exp.Tolerance) {
			return fmt.Errorf("%s = %g, want %g (tolerance %g)", name, got, want, exp.Tolerance)
		}
	}

	for name, kind := range exp.Special {
		got, err := varValue(binds, name)
		if err != nil {
			return err
		}
		switch kind {
		case "nan":
			if !math.IsNaN(got) {
				return fmt.Errorf("%s = %g, want NaN", name, got)
			}
		case "inf":
			if !math.IsInf(got, 1) {
				return fmt.Errorf("%s = %g, want +Inf", name, got)
			}
		case "-inf":
			if !math.IsInf(got, -1) {
				return fmt.Errorf("%s = %g, want -Inf", name, got)
			}
		default:
			return fmt.Errorf("%s: unknown special expectation %q", name, kind)
		}
	}

	return nil
}

// varValue reads a variable's final value by name
func varValue(binds *vm.Bindings, name string) (float64, error) {
	slot, ok := binds.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("variable %s not bound", name)
	}
	return binds.Get(slot), nil
}

// closeEnough compares with an absolute tolerance; exact when tol is 0
func closeEnough(got, want, tol float64) bool {
	if tol == 0 {
		return got == want
	}
	return math.Abs(got-want) <= tol
}

// Stats summarizes a result set
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats tallies results
func ComputeStats(results []TestResult) Stats {
	var s Stats
	for _, r := range results {
		s.Total++
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatStats renders a one-line summary
func FormatStats(s Stats) string {
	return fmt.Sprintf("%d total, %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}
