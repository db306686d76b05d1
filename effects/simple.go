package effects

import (
	"fmt"

	"strobe/render"
)

// The simple builtins below carry no scripts and do trivial per-pixel
// math; they exist to exercise the loader, chain and blending paths and
// to give presets the usual frame-maintenance tools. In-place effects
// return swapped=false; Mosaic resamples into dst and swaps.

// Clear fills the frame with a solid color
type Clear struct {
	baseNode
	Color uint32
}

// NewClear creates a clear node painting opaque black
func NewClear() *Clear {
	return &Clear{baseNode: newBase("clear"), Color: 0xFF000000}
}

func newClearPayload(payload []byte) (Node, error) {
	n := NewClear()
	r := &payloadReader{data: payload}
	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	color, err := r.i32()
	if err != nil {
		return nil, err
	}
	n.SetEnabled(enabled != 0)
	n.Color = uint32(color)
	return n, nil
}

func (n *Clear) RecordID() RecordID { return RecordID{Index: IndexClear} }

func (n *Clear) EncodePayload() []byte {
	return appendI32([]byte{boolByte(n.enabled)}, int32(n.Color))
}

func (n *Clear) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	src.Fill(n.Color)
	return false, nil
}

func (n *Clear) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "color", Kind: ParamInt, Min: 0, Max: float64(0xFFFFFFFF)},
	}
}

func (n *Clear) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "color":
		return Number(float64(n.Color)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

func (n *Clear) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "color":
		n.Color = uint32(v.Num)
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}

// Invert flips every color channel
type Invert struct {
	baseNode
}

// NewInvert creates an invert node
func NewInvert() *Invert {
	return &Invert{baseNode: newBase("invert")}
}

func newInvertPayload(payload []byte) (Node, error) {
	n := NewInvert()
	r := &payloadReader{data: payload}
	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	n.SetEnabled(enabled != 0)
	return n, nil
}

func (n *Invert) RecordID() RecordID { return RecordID{Index: IndexInvert} }

func (n *Invert) EncodePayload() []byte {
	return []byte{boolByte(n.enabled)}
}

func (n *Invert) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	for i, p := range src.Pix {
		src.Pix[i] = p ^ 0x00FFFFFF
	}
	return false, nil
}

func (n *Invert) Describe() []ParamDesc {
	return []ParamDesc{enabledDesc}
}

func (n *Invert) GetParam(name string) (ParamValue, error) {
	if name == "enabled" {
		return Number(boolFloat(n.enabled)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

func (n *Invert) SetParam(name string, v ParamValue) error {
	if name == "enabled" {
		n.enabled = v.Bool()
		return nil
	}
	return errUnknownParam(n.name, name)
}

// Brightness adds a signed offset to every channel
type Brightness struct {
	baseNode
	Add int32 // -255..255
}

// NewBrightness creates a brightness node with no offset
func NewBrightness() *Brightness {
	return &Brightness{baseNode: newBase("brightness")}
}

func newBrightnessPayload(payload []byte) (Node, error) {
	n := NewBrightness()
	r := &payloadReader{data: payload}
	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	add, err := r.i32()
	if err != nil {
		return nil, err
	}
	n.SetEnabled(enabled != 0)
	n.Add = clampI32(add, -255, 255)
	return n, nil
}

func (n *Brightness) RecordID() RecordID { return RecordID{Index: IndexBrightness} }

func (n *Brightness) EncodePayload() []byte {
	return appendI32([]byte{boolByte(n.enabled)}, n.Add)
}

func (n *Brightness) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	add := n.Add
	if add == 0 {
		return false, nil
	}
	for i, p := range src.Pix {
		out := uint32(0xFF000000)
		for shift := uint(0); shift <= 16; shift += 8 {
			c := int32((p>>shift)&0xFF) + add
			if c < 0 {
				c = 0
			} else if c > 255 {
				c = 255
			}
			out |= uint32(c) << shift
		}
		src.Pix[i] = out
	}
	return false, nil
}

func (n *Brightness) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "add", Kind: ParamInt, Min: -255, Max: 255},
	}
}

func (n *Brightness) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "add":
		return Number(float64(n.Add)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

func (n *Brightness) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "add":
		if v.Num < -255 || v.Num > 255 {
			return fmt.Errorf("brightness: add out of range: %g", v.Num)
		}
		n.Add = int32(v.Num)
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}

// Fadeout pulls every channel toward black by a fixed step each frame,
// the classic trails decay
type Fadeout struct {
	baseNode
	Step int32 // 0..255 per frame
}

// NewFadeout creates a fadeout with a gentle default step
func NewFadeout() *Fadeout {
	return &Fadeout{baseNode: newBase("fadeout"), Step: 8}
}

func newFadeoutPayload(payload []byte) (Node, error) {
	n := NewFadeout()
	r := &payloadReader{data: payload}
	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	step, err := r.i32()
	if err != nil {
		return nil, err
	}
	n.SetEnabled(enabled != 0)
	n.Step = clampI32(step, 0, 255)
	return n, nil
}

func (n *Fadeout) RecordID() RecordID { return RecordID{Index: IndexFadeout} }

func (n *Fadeout) EncodePayload() []byte {
	return appendI32([]byte{boolByte(n.enabled)}, n.Step)
}

func (n *Fadeout) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	step := uint32(n.Step)
	if step == 0 {
		return false, nil
	}
	for i, p := range src.Pix {
		out := uint32(0xFF000000)
		for shift := uint(0); shift <= 16; shift += 8 {
			c := (p >> shift) & 0xFF
			if c > step {
				c -= step
			} else {
				c = 0
			}
			out |= c << shift
		}
		src.Pix[i] = out
	}
	return false, nil
}

func (n *Fadeout) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "step", Kind: ParamInt, Min: 0, Max: 255},
	}
}

func (n *Fadeout) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "step":
		return Number(float64(n.Step)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

func (n *Fadeout) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "step":
		if v.Num < 0 || v.Num > 255 {
			return fmt.Errorf("fadeout: step out of range: %g", v.Num)
		}
		n.Step = int32(v.Num)
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}

// Mosaic pixelates the frame by sampling one pixel per size x size block
type Mosaic struct {
	baseNode
	Size int32
}

// NewMosaic creates a mosaic with 8-pixel blocks
func NewMosaic() *Mosaic {
	return &Mosaic{baseNode: newBase("mosaic"), Size: 8}
}

func newMosaicPayload(payload []byte) (Node, error) {
	n := NewMosaic()
	r := &payloadReader{data: payload}
	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	size, err := r.i32()
	if err != nil {
		return nil, err
	}
	n.SetEnabled(enabled != 0)
	if size < 1 {
		size = 1
	}
	n.Size = size
	return n, nil
}

func (n *Mosaic) RecordID() RecordID { return RecordID{Index: IndexMosaic} }

func (n *Mosaic) EncodePayload() []byte {
	return appendI32([]byte{boolByte(n.enabled)}, n.Size)
}

func (n *Mosaic) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	size := int(n.Size)
	if size <= 1 {
		return false, nil
	}
	for y := 0; y < src.H; y++ {
		srcRow := src.Row((y / size) * size)
		dstRow := dst.Row(y)
		for x := 0; x < src.W; x++ {
			dstRow[x] = srcRow[(x/size)*size]
		}
	}
	return true, nil
}

func (n *Mosaic) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "size", Kind: ParamInt, Min: 1, Max: 256},
	}
}

func (n *Mosaic) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "size":
		return Number(float64(n.Size)), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

func (n *Mosaic) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "size":
		if v.Num < 1 || v.Num > 256 {
			return fmt.Errorf("mosaic: size out of range: %g", v.Num)
		}
		n.Size = int32(v.Num)
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
