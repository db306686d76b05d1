package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestPath is the suite directory, relative to this package
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks the suite directory and loads all test cases
func LoadAllTests() ([]LoadedTest, error) {
	return LoadTestsFrom(TestPath)
}

// LoadTestsFrom loads every .yaml suite under dir
func LoadTestsFrom(dir string) ([]LoadedTest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("suite directory %s: %w", dir, err)
	}

	var loaded []LoadedTest
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		tests, err := loadSuiteFile(path)
		if err != nil {
			relPath, _ := filepath.Rel(abs, path)
			return fmt.Errorf("%s: %w", relPath, err)
		}

		relPath, _ := filepath.Rel(abs, path)
		for _, test := range tests {
			test.File = relPath
			loaded = append(loaded, test)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// loadSuiteFile parses a single YAML file and returns all its test cases
func loadSuiteFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}

	var tests []LoadedTest
	for _, test := range suite.Tests {
		tests = append(tests, LoadedTest{
			Suite: suite,
			Test:  test,
		})
	}
	return tests, nil
}
