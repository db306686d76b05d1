package effects

import (
	"fmt"

	"strobe/render"
)

// Placeholder stands in for an effect that could not be resolved at load
// time: an unknown builtin index or a missing named extension. It forwards
// its input unchanged and preserves the original record (index and raw
// payload) so the preset survives a load/save cycle byte-for-byte even
// though the effect itself is unavailable.
type Placeholder struct {
	baseNode
	rawIndex int32
	payload  []byte
}

// NewPlaceholder preserves an unresolvable record
func NewPlaceholder(index int32, payload []byte) *Placeholder {
	kept := make([]byte, len(payload))
	copy(kept, payload)
	return &Placeholder{
		baseNode: newBase(fmt.Sprintf("unknown(%d)", index)),
		rawIndex: index,
		payload:  kept,
	}
}

// RecordID returns the preserved original index
func (n *Placeholder) RecordID() RecordID {
	return RecordID{Index: n.rawIndex}
}

// EncodePayload returns the preserved original payload
func (n *Placeholder) EncodePayload() []byte {
	out := make([]byte, len(n.payload))
	copy(out, n.payload)
	return out
}

// Render forwards the input unchanged
func (n *Placeholder) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	return false, nil
}

// Describe exposes only the enabled flag; the payload is opaque
func (n *Placeholder) Describe() []ParamDesc {
	return []ParamDesc{enabledDesc}
}

// GetParam reads a parameter by name
func (n *Placeholder) GetParam(name string) (ParamValue, error) {
	if name == "enabled" {
		return Number(boolFloat(n.enabled)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

// SetParam writes a parameter by name
func (n *Placeholder) SetParam(name string, v ParamValue) error {
	if name == "enabled" {
		n.enabled = v.Bool()
		return nil
	}
	return errUnknownParam(n.name, name)
}
