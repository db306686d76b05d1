package effects

import (
	"strobe/vm"
)

// SectionKind identifies one of a scriptable node's four script sections
type SectionKind int

const (
	SectionInit SectionKind = iota
	SectionFrame
	SectionBeat
	SectionPoint

	sectionCount
)

var sectionNames = [sectionCount]string{"init", "frame", "beat", "point"}

// String returns the section's script-parameter name
func (k SectionKind) String() string {
	if k >= 0 && k < sectionCount {
		return sectionNames[k]
	}
	return "?"
}

// DefaultPointSource is the identity Point script a node falls back to
// when no Point source is set or its compilation failed.
const DefaultPointSource = "x=x;y=y"

// section holds one script section's source and its compiled program.
// Compilation is per-section: a failed section records its error and
// degrades to nil (default behavior) without touching its siblings.
type section struct {
	source string
	prog   *vm.Program
	err    error
}

// set compiles src against binds and installs the result. The source text
// is kept even when compilation fails so editors can round-trip it.
func (s *section) set(src string, binds *vm.Bindings) error {
	s.source = src
	if src == "" {
		s.prog, s.err = nil, nil
		return nil
	}
	prog, err := vm.Compile(src, binds)
	if err != nil {
		s.prog, s.err = nil, err
		return err
	}
	s.prog, s.err = prog, nil
	return nil
}
