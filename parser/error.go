package parser

import "fmt"

// CompileError reports a script compilation failure with its source location.
// It covers both parse-time and code-generation failures; a failed section
// never affects its node's other sections.
type CompileError struct {
	Pos     Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// errorf builds a CompileError at the given position
func errorf(pos Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
