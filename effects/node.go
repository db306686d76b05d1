// Package effects implements the effect-node object model: the common
// Render contract, parameter introspection for external property editors,
// the scripted transform node, a set of simple builtin pixel effects, the
// nested-list node, and the pass-through placeholder that stands in for
// unresolvable effects.
package effects

import (
	"fmt"

	"strobe/render"
)

// Node is an effect instance in a chain. Nodes are created by preset
// loading (or directly by hosts), mutated through the parameter surface,
// and rendered once per frame while enabled.
type Node interface {
	render.Node

	SetEnabled(bool)

	// RecordID identifies the node in the preset binary format: a builtin
	// index, or ExtensionBase plus a name for named extensions.
	RecordID() RecordID

	// EncodePayload serializes the node's parameters (and scripts) to its
	// binary payload. Decoding is the constructor's job.
	EncodePayload() []byte

	// Describe, GetParam and SetParam form the editor/property surface.
	Describe() []ParamDesc
	GetParam(name string) (ParamValue, error)
	SetParam(name string, v ParamValue) error
}

// RecordID is a node's identity in the preset format
type RecordID struct {
	Index int32
	Name  string // set for named extensions; empty for builtins
}

// ParamKind classifies a node parameter for editor binding
type ParamKind uint8

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamBool
	ParamSelect
	ParamScript
)

// ParamDesc describes one introspectable node parameter
type ParamDesc struct {
	Name     string
	Kind     ParamKind
	Min, Max float64  // valid range for Float/Int
	Options  []string // labels for Select, indexed by value
}

// ParamValue carries a parameter value: Num for numeric/bool/select
// kinds, Text for scripts
type ParamValue struct {
	Num  float64
	Text string
}

// Number builds a numeric ParamValue
func Number(v float64) ParamValue {
	return ParamValue{Num: v}
}

// Text builds a script-text ParamValue
func Text(s string) ParamValue {
	return ParamValue{Text: s}
}

// Bool reads a ParamValue as a flag
func (v ParamValue) Bool() bool {
	return v.Num != 0
}

// baseNode carries the name and enabled flag every node shares
type baseNode struct {
	name    string
	enabled bool
}

func newBase(name string) baseNode {
	return baseNode{name: name, enabled: true}
}

// Name returns the node's effect name
func (b *baseNode) Name() string { return b.name }

// Enabled reports whether the node renders; disabled nodes are skipped
// entirely by the chain
func (b *baseNode) Enabled() bool { return b.enabled }

// SetEnabled toggles the node
func (b *baseNode) SetEnabled(on bool) { b.enabled = on }

// errUnknownParam builds the standard unknown-parameter error
func errUnknownParam(node, param string) error {
	return fmt.Errorf("%s: unknown parameter %q", node, param)
}

// enabledDesc is the parameter description shared by all nodes
var enabledDesc = ParamDesc{Name: "enabled", Kind: ParamBool}

// boolByte encodes a flag for payloads
func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
