package conformance

// TestSuite represents a complete YAML suite file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single script test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string reason
	Script      string      `yaml:"script"`
	// Vars are pre-set variable values applied before the script runs
	Vars   map[string]float64 `yaml:"vars,omitempty"`
	Expect Expectation        `yaml:"expect"`
}

// Expectation defines the engine state expected after a script runs
type Expectation struct {
	// Values maps variable names to expected final values
	Values map[string]float64 `yaml:"values,omitempty"`
	// Tolerance is the absolute comparison tolerance; zero means exact
	Tolerance float64 `yaml:"tolerance,omitempty"`
	// Special maps variable names to non-finite expectations:
	// "nan", "inf" or "-inf"
	Special map[string]string `yaml:"special,omitempty"`
	// Error expects the script to fail compilation
	Error bool `yaml:"error,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
