package effects

import (
	"fmt"

	"strobe/render"
)

// List is a nested sub-chain: an ordered sequence of child nodes rendered
// into private scratch buffers, then composited into the parent buffer
// with the list's blend mode. A preset's root chain is itself a List with
// replace blend. Chains are strictly trees; a List never contains itself.
type List struct {
	baseNode

	blend    render.BlendMode
	children []Node

	scratchA *render.ImageBuffer
	scratchB *render.ImageBuffer
}

// NewList creates an empty list with the given composite mode
func NewList(blend render.BlendMode) *List {
	return &List{baseNode: newBase("list"), blend: blend}
}

// Append adds a child to the end of the chain
func (n *List) Append(child Node) {
	n.children = append(n.children, child)
}

// Children returns the ordered child nodes
func (n *List) Children() []Node {
	return n.children
}

// Blend returns the list's composite mode
func (n *List) Blend() render.BlendMode {
	return n.blend
}

// SetBlend sets the list's composite mode
func (n *List) SetBlend(m render.BlendMode) {
	n.blend = m
}

// Len returns the number of direct children
func (n *List) Len() int {
	return len(n.children)
}

// RecordID returns the nested-list sentinel
func (n *List) RecordID() RecordID {
	return RecordID{Index: ListIndex}
}

// EncodePayload returns the list's blend-mode byte. The child records are
// framing, which the preset writer appends itself.
func (n *List) EncodePayload() []byte {
	return []byte{byte(n.blend)}
}

// Render runs the child chain over a scratch copy of src, then composites
// the result into dst. Child failures degrade that child to pass-through
// and are reported through the frame's error hook; only frame abortion
// (context cancellation) stops the chain.
func (n *List) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	if n.scratchA == nil || n.scratchA.W != fc.Width || n.scratchA.H != fc.Height {
		n.scratchA = render.NewImageBuffer(fc.Width, fc.Height)
		n.scratchB = render.NewImageBuffer(fc.Width, fc.Height)
	}

	n.scratchA.CopyFrom(src)
	out, err := RunChain(fc, n.children, n.scratchA, n.scratchB)
	if err != nil {
		return false, err
	}

	if n.blend == render.BlendReplace {
		dst.CopyFrom(out)
	} else {
		for i, base := range src.Pix {
			dst.Pix[i] = render.BlendPixel(n.blend, base, out.Pix[i], 0.5)
		}
	}
	return true, nil
}

// RunChain drives nodes in order with front/back ping-pong and returns
// the buffer holding the final output (one of front or back). Disabled
// nodes are skipped without touching the buffers. A node error is
// reported via fc and the node acts as pass-through for this frame.
func RunChain(fc *render.FrameContext, nodes []Node, front, back *render.ImageBuffer) (*render.ImageBuffer, error) {
	for _, node := range nodes {
		if fc.Done() {
			return nil, fc.Ctx.Err()
		}
		if !node.Enabled() {
			continue
		}

		swapped, err := node.Render(fc, front, back)
		if err != nil {
			if fc.Done() {
				return nil, fc.Ctx.Err()
			}
			fc.ReportError(node.Name(), err)
			continue
		}
		if swapped {
			front, back = back, front
		}
	}
	return front, nil
}

// Describe lists the list's editable parameters
func (n *List) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "blend", Kind: ParamSelect, Options: []string{"replace", "additive", "average", "alpha"}},
	}
}

// GetParam reads a parameter by name
func (n *List) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "blend":
		return Number(float64(n.blend)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

// SetParam writes a parameter by name
func (n *List) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "blend":
		m := render.BlendMode(v.Num)
		if !m.Valid() {
			return fmt.Errorf("list: bad blend mode %g", v.Num)
		}
		n.blend = m
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}
