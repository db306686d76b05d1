package effects

import (
	"fmt"
	"math"

	"strobe/render"
	"strobe/vm"
)

// BoundaryMode is the policy for source coordinates that map outside the
// buffer during the Point phase. The numeric values are part of the
// preset binary format.
type BoundaryMode uint8

const (
	BoundaryWrap BoundaryMode = iota
	BoundaryClamp
	BoundaryTransparent
)

var boundaryNames = []string{"wrap", "clamp", "transparent"}

// String returns the boundary policy's preset-facing name
func (m BoundaryMode) String() string {
	if int(m) < len(boundaryNames) {
		return boundaryNames[m]
	}
	return "unknown"
}

// Transform is the scriptable coordinate-transform node. Four script
// sections share one binding table: Init runs once per node lifetime,
// Frame runs every frame, Beat runs on beat frames, and Point runs per
// pixel in row-parallel batches to compute a reverse mapping from each
// output pixel to a source position.
//
// Point-phase workers operate on private snapshots of the binding table
// seeded from the post-Frame/Beat state; only x, y and alpha are honored
// per pixel, and writes to any other variable from Point are discarded
// when the phase joins. Accumulators must be advanced from Frame or Beat,
// which run single-threaded.
type Transform struct {
	baseNode

	binds    *vm.Bindings
	machine  *vm.VM
	sections [sectionCount]section
	identity *vm.Program

	blend    render.BlendMode
	boundary BoundaryMode
	subpixel bool

	inited bool

	sX, sY, sD, sR vm.Slot
	sB, sT, sW, sH vm.Slot
	sAlpha         vm.Slot
}

// NewTransform creates a transform node with empty scripts and the
// identity Point mapping
func NewTransform() *Transform {
	n := &Transform{
		baseNode: newBase("transform"),
		binds:    vm.NewBindings(),
		machine:  vm.NewVM(),
		blend:    render.BlendReplace,
		boundary: BoundaryClamp,
	}

	// Built-in slots, registered before any script compiles
	n.sX = n.binds.Register("x")
	n.sY = n.binds.Register("y")
	n.sD = n.binds.Register("d")
	n.sR = n.binds.Register("r")
	n.sB = n.binds.Register("b")
	n.sT = n.binds.Register("t")
	n.sW = n.binds.Register("w")
	n.sH = n.binds.Register("h")
	n.sAlpha = n.binds.Register("alpha")
	n.binds.Set(n.sAlpha, 1)

	// The identity program can't fail to compile
	prog, err := vm.Compile(DefaultPointSource, n.binds)
	if err != nil {
		panic(fmt.Sprintf("identity point script: %v", err))
	}
	n.identity = prog

	return n
}

// newTransformPayload decodes a transform record payload
func newTransformPayload(payload []byte) (Node, error) {
	n := NewTransform()
	r := &payloadReader{data: payload}

	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	blend, err := r.byte()
	if err != nil {
		return nil, err
	}
	boundary, err := r.byte()
	if err != nil {
		return nil, err
	}
	subpixel, err := r.byte()
	if err != nil {
		return nil, err
	}

	n.SetEnabled(enabled != 0)
	if m := render.BlendMode(blend); m.Valid() {
		n.blend = m
	}
	if boundary <= byte(BoundaryTransparent) {
		n.boundary = BoundaryMode(boundary)
	}
	n.subpixel = subpixel != 0

	for k := SectionInit; k < sectionCount; k++ {
		src, err := r.string()
		if err != nil {
			return nil, err
		}
		// A compile error degrades the section but never fails the load
		_ = n.SetSection(k, src)
	}

	return n, nil
}

// RecordID returns the transform's builtin index
func (n *Transform) RecordID() RecordID {
	return RecordID{Index: IndexTransform}
}

// EncodePayload serializes flags and the four script sources
func (n *Transform) EncodePayload() []byte {
	buf := []byte{
		boolByte(n.enabled),
		byte(n.blend),
		byte(n.boundary),
		boolByte(n.subpixel),
	}
	for k := SectionInit; k < sectionCount; k++ {
		buf = appendString(buf, n.sections[k].source)
	}
	return buf
}

// SetSection replaces one section's source text, recompiling just that
// section. On a compile error the section degrades to its default
// behavior (identity for Point, no-op for the others), the error is
// returned to the caller, and the node's other sections are untouched.
func (n *Transform) SetSection(k SectionKind, source string) error {
	if k < 0 || k >= sectionCount {
		return fmt.Errorf("transform: no section %d", k)
	}
	return n.sections[k].set(source, n.binds)
}

// Section returns a section's current source text
func (n *Transform) Section(k SectionKind) string {
	if k < 0 || k >= sectionCount {
		return ""
	}
	return n.sections[k].source
}

// SectionError returns a section's last compile error, if any
func (n *Transform) SectionError(k SectionKind) error {
	if k < 0 || k >= sectionCount {
		return nil
	}
	return n.sections[k].err
}

// Bindings exposes the node's variable table for inspection
func (n *Transform) Bindings() *vm.Bindings {
	return n.binds
}

// SetBlend configures the composite rule for the Point phase
func (n *Transform) SetBlend(m render.BlendMode) {
	n.blend = m
}

// SetBoundary configures the out-of-bounds sampling policy
func (n *Transform) SetBoundary(m BoundaryMode) {
	n.boundary = m
}

// SetSubpixel toggles bilinear source sampling
func (n *Transform) SetSubpixel(on bool) {
	n.subpixel = on
}

// SetSeed reseeds the node's rand() stream. Point-phase workers fork
// from this machine, so one seed makes the whole node deterministic.
func (n *Transform) SetSeed(seed int64) {
	n.machine = vm.NewSeededVM(seed)
}

// pointProgram returns the Point program, falling back to identity when
// the section is unset or failed to compile
func (n *Transform) pointProgram() *vm.Program {
	if p := n.sections[SectionPoint].prog; p != nil {
		return p
	}
	return n.identity
}

// Render runs the node's per-frame state machine: Frame once, Beat when
// the frame carries a beat, then the row-parallel Point phase producing
// dst. Any script runtime error degrades the node to pass-through for
// this frame.
func (n *Transform) Render(fc *render.FrameContext, src, dst *render.ImageBuffer) (bool, error) {
	n.binds.Set(n.sW, float64(fc.Width))
	n.binds.Set(n.sH, float64(fc.Height))
	n.binds.Set(n.sT, fc.Time)
	n.binds.Set(n.sB, boolFloat(fc.Beat))

	if fc.Audio != nil {
		n.machine.SetAudio(fc.Audio)
	} else {
		n.machine.SetAudio(nil)
	}

	if !n.inited {
		if p := n.sections[SectionInit].prog; p != nil {
			if err := n.machine.Execute(p, n.binds); err != nil {
				return false, fmt.Errorf("init: %w", err)
			}
		}
		n.inited = true
	}

	if p := n.sections[SectionFrame].prog; p != nil {
		if err := n.machine.Execute(p, n.binds); err != nil {
			return false, fmt.Errorf("frame: %w", err)
		}
	}

	if fc.Beat {
		if p := n.sections[SectionBeat].prog; p != nil {
			if err := n.machine.Execute(p, n.binds); err != nil {
				return false, fmt.Errorf("beat: %w", err)
			}
		}
	}

	if err := n.renderPoint(fc, src, dst); err != nil {
		return false, fmt.Errorf("point: %w", err)
	}
	return true, nil
}

// renderPoint executes the Point program for every destination pixel.
// Rows are partitioned across workers; each worker holds a private
// binding-table clone and VM, and every pixel is reseeded from the
// post-Frame snapshot so results do not depend on the partitioning.
func (n *Transform) renderPoint(fc *render.FrameContext, src, dst *render.ImageBuffer) error {
	prog := n.pointProgram()
	w, h := fc.Width, fc.Height

	count := fc.Workers
	if count < 1 {
		count = 1
	}

	// Per-worker state built before the parallel phase begins
	snapshot := n.binds.Clone()
	tables := make([]*vm.Bindings, count)
	machines := make([]*vm.VM, count)
	for i := range tables {
		tables[i] = snapshot.Clone()
		machines[i] = n.machine.Fork()
	}

	xSpan := float64(w - 1)
	ySpan := float64(h - 1)

	return render.ForEachRow(h, count, func(worker, y0, y1 int) error {
		binds := tables[worker]
		machine := machines[worker]

		for py := y0; py < y1; py++ {
			srcRow := src.Row(py)
			dstRow := dst.Row(py)

			ny := 0.0
			if ySpan > 0 {
				ny = float64(py)/ySpan*2 - 1
			}

			for px := 0; px < w; px++ {
				binds.CopyValuesFrom(snapshot)

				nx := 0.0
				if xSpan > 0 {
					nx = float64(px)/xSpan*2 - 1
				}
				binds.Set(n.sX, nx)
				binds.Set(n.sY, ny)
				binds.Set(n.sD, math.Sqrt(nx*nx+ny*ny))
				binds.Set(n.sR, math.Atan2(ny, nx))

				if err := machine.Execute(prog, binds); err != nil {
					return err
				}

				// Only x, y and alpha are honored as Point outputs
				outX := binds.Get(n.sX)
				outY := binds.Get(n.sY)
				alpha := binds.Get(n.sAlpha)

				fx := (outX + 1) / 2 * xSpan
				fy := (outY + 1) / 2 * ySpan

				sample, ok := n.sample(src, fx, fy)
				if !ok {
					// Transparent boundary: the input shows through
					dstRow[px] = srcRow[px]
					continue
				}
				if n.blend == render.BlendReplace {
					dstRow[px] = sample
				} else {
					dstRow[px] = render.BlendPixel(n.blend, srcRow[px], sample, alpha)
				}
			}
		}
		return nil
	})
}

// sample reads the source at fractional coordinates under the node's
// boundary and subpixel policies. ok=false means the write is skipped
// (transparent boundary).
func (n *Transform) sample(src *render.ImageBuffer, fx, fy float64) (uint32, bool) {
	if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
		if n.boundary == BoundaryTransparent {
			return 0, false
		}
		fx, fy = 0, 0
	}

	if !n.subpixel {
		ix, ok := resolveCoord(int(math.Round(fx)), src.W, n.boundary)
		if !ok {
			return 0, false
		}
		iy, ok := resolveCoord(int(math.Round(fy)), src.H, n.boundary)
		if !ok {
			return 0, false
		}
		return src.At(ix, iy), true
	}

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x0r, ok := resolveCoord(x0, src.W, n.boundary)
	if !ok {
		return 0, false
	}
	y0r, ok := resolveCoord(y0, src.H, n.boundary)
	if !ok {
		return 0, false
	}
	x1r, ok := resolveCoord(x0+1, src.W, n.boundary)
	if !ok {
		x1r = x0r
	}
	y1r, ok := resolveCoord(y0+1, src.H, n.boundary)
	if !ok {
		y1r = y0r
	}

	c00 := src.At(x0r, y0r)
	c10 := src.At(x1r, y0r)
	c01 := src.At(x0r, y1r)
	c11 := src.At(x1r, y1r)

	out := uint32(0xFF000000)
	for shift := uint(0); shift <= 16; shift += 8 {
		top := float64((c00>>shift)&0xFF)*(1-tx) + float64((c10>>shift)&0xFF)*tx
		bot := float64((c01>>shift)&0xFF)*(1-tx) + float64((c11>>shift)&0xFF)*tx
		out |= uint32(top*(1-ty)+bot*ty+0.5) << shift
	}
	return out, true
}

// resolveCoord applies the boundary policy to one axis
func resolveCoord(v, size int, mode BoundaryMode) (int, bool) {
	if v >= 0 && v < size {
		return v, true
	}
	switch mode {
	case BoundaryWrap:
		v %= size
		if v < 0 {
			v += size
		}
		return v, true
	case BoundaryClamp:
		if v < 0 {
			return 0, true
		}
		return size - 1, true
	default:
		return 0, false
	}
}

// Describe lists the transform's editable parameters
func (n *Transform) Describe() []ParamDesc {
	return []ParamDesc{
		enabledDesc,
		{Name: "blend", Kind: ParamSelect, Options: []string{"replace", "additive", "average", "alpha"}},
		{Name: "boundary", Kind: ParamSelect, Options: boundaryNames},
		{Name: "subpixel", Kind: ParamBool},
		{Name: "init", Kind: ParamScript},
		{Name: "frame", Kind: ParamScript},
		{Name: "beat", Kind: ParamScript},
		{Name: "point", Kind: ParamScript},
	}
}

// GetParam reads a parameter by name
func (n *Transform) GetParam(name string) (ParamValue, error) {
	switch name {
	case "enabled":
		return Number(boolFloat(n.enabled)), nil
	case "blend":
		return Number(float64(n.blend)), nil
	case "boundary":
		return Number(float64(n.boundary)), nil
	case "subpixel":
		return Number(boolFloat(n.subpixel)), nil
	case "init", "frame", "beat", "point":
		return Text(n.Section(sectionByName(name))), nil
	}
	return ParamValue{}, errUnknownParam(n.name, name)
}

// SetParam writes a parameter by name. Script parameters recompile their
// section and surface any compile error.
func (n *Transform) SetParam(name string, v ParamValue) error {
	switch name {
	case "enabled":
		n.enabled = v.Bool()
	case "blend":
		m := render.BlendMode(v.Num)
		if !m.Valid() {
			return fmt.Errorf("transform: bad blend mode %g", v.Num)
		}
		n.blend = m
	case "boundary":
		if v.Num < 0 || v.Num > float64(BoundaryTransparent) {
			return fmt.Errorf("transform: bad boundary mode %g", v.Num)
		}
		n.boundary = BoundaryMode(v.Num)
	case "subpixel":
		n.subpixel = v.Bool()
	case "init", "frame", "beat", "point":
		return n.SetSection(sectionByName(name), v.Text)
	default:
		return errUnknownParam(n.name, name)
	}
	return nil
}

// sectionByName maps a script parameter name to its SectionKind
func sectionByName(name string) SectionKind {
	for k, n := range sectionNames {
		if n == name {
			return SectionKind(k)
		}
	}
	return SectionInit
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
