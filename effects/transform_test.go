package effects

import (
	"testing"

	"strobe/render"
)

// testFrame builds a frame context for direct node rendering
func testFrame(w, h int, beat bool) *render.FrameContext {
	return &render.FrameContext{
		Width:   w,
		Height:  h,
		Delta:   1.0 / 60,
		Beat:    beat,
		Workers: 1,
	}
}

// gradient fills a buffer with a deterministic per-pixel pattern
func gradient(b *render.ImageBuffer) {
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			b.Set(x, y, render.RGB(uint8(x*37), uint8(y*53), uint8((x+y)*11)))
		}
	}
}

func TestIdentityPointScript(t *testing.T) {
	n := NewTransform()
	n.SetBlend(render.BlendReplace)
	n.SetBoundary(BoundaryClamp)

	src := render.NewImageBuffer(16, 12)
	gradient(src)
	want := src.Clone()
	dst := render.NewImageBuffer(16, 12)

	swapped, err := n.Render(testFrame(16, 12, false), src, dst)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !swapped {
		t.Fatal("expected transform to produce into dst")
	}
	for i := range want.Pix {
		if dst.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel %d changed: got %08x, want %08x", i, dst.Pix[i], want.Pix[i])
		}
	}
}

func TestTrigBoundary(t *testing.T) {
	// sin(0) = 0, so with t=0 this is the identity mapping
	n := NewTransform()
	if err := n.SetSection(SectionPoint, "x = x + sin(t)*0.1; y = y"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	src := render.NewImageBuffer(8, 8)
	gradient(src)
	want := src.Clone()
	dst := render.NewImageBuffer(8, 8)

	fc := testFrame(8, 8, false)
	fc.Time = 0
	if _, err := n.Render(fc, src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range want.Pix {
		if dst.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel %d changed with sin(0) offset", i)
		}
	}
}

func TestInitRunsOnce(t *testing.T) {
	n := NewTransform()
	if err := n.SetSection(SectionInit, "base = 10"); err != nil {
		t.Fatalf("set init: %v", err)
	}
	if err := n.SetSection(SectionFrame, "base = base + 1"); err != nil {
		t.Fatalf("set frame: %v", err)
	}

	src := render.NewImageBuffer(4, 4)
	dst := render.NewImageBuffer(4, 4)
	for i := 0; i < 3; i++ {
		if _, err := n.Render(testFrame(4, 4, false), src, dst); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	slot, ok := n.Bindings().Lookup("base")
	if !ok {
		t.Fatal("base not registered")
	}
	// Init once (10), then three frame increments
	if got := n.Bindings().Get(slot); got != 13 {
		t.Errorf("expected base=13, got %g", got)
	}
}

func TestBeatGating(t *testing.T) {
	n := NewTransform()
	if err := n.SetSection(SectionBeat, "hits = hits + 1"); err != nil {
		t.Fatalf("set beat: %v", err)
	}

	src := render.NewImageBuffer(4, 4)
	dst := render.NewImageBuffer(4, 4)

	// Exactly one beat among N frames: the Beat script runs exactly once
	beats := []bool{false, false, true, false, false}
	for i, beat := range beats {
		if _, err := n.Render(testFrame(4, 4, beat), src, dst); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	slot, _ := n.Bindings().Lookup("hits")
	if got := n.Bindings().Get(slot); got != 1 {
		t.Errorf("expected exactly one beat execution, got %g", got)
	}
}

func TestPointGlobalWritesDiscarded(t *testing.T) {
	n := NewTransform()
	if err := n.SetSection(SectionFrame, "g = 5"); err != nil {
		t.Fatalf("set frame: %v", err)
	}
	if err := n.SetSection(SectionPoint, "g = g + 1; x = x; y = y"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	src := render.NewImageBuffer(8, 8)
	dst := render.NewImageBuffer(8, 8)
	fc := testFrame(8, 8, false)
	fc.Workers = 4
	if _, err := n.Render(fc, src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Point-phase writes to globals other than x/y/alpha are discarded:
	// g keeps its Frame value no matter how many pixels incremented it
	slot, _ := n.Bindings().Lookup("g")
	if got := n.Bindings().Get(slot); got != 5 {
		t.Errorf("point-phase global write leaked: g=%g, want 5", got)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	script := "d = d * 0.8; x = cos(r)*d; y = sin(r)*d"

	renderWith := func(workers int) *render.ImageBuffer {
		n := NewTransform()
		n.SetSubpixel(true)
		if err := n.SetSection(SectionPoint, script); err != nil {
			t.Fatalf("set point: %v", err)
		}
		src := render.NewImageBuffer(32, 24)
		gradient(src)
		dst := render.NewImageBuffer(32, 24)
		fc := testFrame(32, 24, false)
		fc.Workers = workers
		if _, err := n.Render(fc, src, dst); err != nil {
			t.Fatalf("render: %v", err)
		}
		return dst
	}

	serial := renderWith(1)
	parallel := renderWith(4)
	for i := range serial.Pix {
		if serial.Pix[i] != parallel.Pix[i] {
			t.Fatalf("pixel %d differs between serial and parallel: %08x vs %08x",
				i, serial.Pix[i], parallel.Pix[i])
		}
	}
}

func TestBoundaryWrap(t *testing.T) {
	// x+2 in normalized space is one full width: pixel column p samples
	// column (p + w - 1) mod w
	n := NewTransform()
	n.SetBoundary(BoundaryWrap)
	if err := n.SetSection(SectionPoint, "x = x + 2; y = y"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	src := render.NewImageBuffer(4, 1)
	for x := 0; x < 4; x++ {
		src.Set(x, 0, render.RGB(uint8(x), 0, 0))
	}
	dst := render.NewImageBuffer(4, 1)
	if _, err := n.Render(testFrame(4, 1, false), src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}

	want := []int{3, 0, 1, 2}
	for x := 0; x < 4; x++ {
		if dst.At(x, 0) != src.At(want[x], 0) {
			t.Errorf("column %d: expected sample from column %d", x, want[x])
		}
	}
}

func TestBoundaryClamp(t *testing.T) {
	n := NewTransform()
	n.SetBoundary(BoundaryClamp)
	if err := n.SetSection(SectionPoint, "x = x + 2; y = y"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	src := render.NewImageBuffer(4, 1)
	for x := 0; x < 4; x++ {
		src.Set(x, 0, render.RGB(uint8(10+x), 0, 0))
	}
	dst := render.NewImageBuffer(4, 1)
	if _, err := n.Render(testFrame(4, 1, false), src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Column 0 maps exactly to the last column; the rest clamp to it too
	edge := src.At(3, 0)
	for x := 0; x < 4; x++ {
		if dst.At(x, 0) != edge {
			t.Errorf("column %d: expected clamp to edge pixel %08x, got %08x", x, edge, dst.At(x, 0))
		}
	}
}

func TestBoundaryTransparent(t *testing.T) {
	n := NewTransform()
	n.SetBoundary(BoundaryTransparent)
	if err := n.SetSection(SectionPoint, "x = x + 10; y = y"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	src := render.NewImageBuffer(6, 4)
	gradient(src)
	want := src.Clone()
	dst := render.NewImageBuffer(6, 4)
	if _, err := n.Render(testFrame(6, 4, false), src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Every mapped coordinate is out of bounds; the input shows through
	for i := range want.Pix {
		if dst.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel %d not passed through under transparent boundary", i)
		}
	}
}

func TestSectionErrorIsolation(t *testing.T) {
	n := NewTransform()
	if err := n.SetSection(SectionFrame, "ticks = ticks + 1"); err != nil {
		t.Fatalf("set frame: %v", err)
	}

	// A broken Point section degrades to identity and reports the error
	if err := n.SetSection(SectionPoint, "x = +"); err == nil {
		t.Fatal("expected compile error for broken point script")
	}
	if n.SectionError(SectionPoint) == nil {
		t.Error("expected recorded section error")
	}
	if n.SectionError(SectionFrame) != nil {
		t.Error("frame section poisoned by point error")
	}

	src := render.NewImageBuffer(8, 8)
	gradient(src)
	want := src.Clone()
	dst := render.NewImageBuffer(8, 8)
	if _, err := n.Render(testFrame(8, 8, false), src, dst); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Frame section still ran
	slot, _ := n.Bindings().Lookup("ticks")
	if got := n.Bindings().Get(slot); got != 1 {
		t.Errorf("expected frame script to run, ticks=%g", got)
	}
	// Point fell back to identity
	for i := range want.Pix {
		if dst.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel %d not identity under degraded point section", i)
		}
	}
}

func TestSeededRandIsReproducible(t *testing.T) {
	rollSum := func(seed int64) float64 {
		n := NewTransform()
		n.SetSeed(seed)
		if err := n.SetSection(SectionFrame, "sum = sum + rand(1000000)"); err != nil {
			t.Fatalf("set frame: %v", err)
		}

		src := render.NewImageBuffer(4, 4)
		dst := render.NewImageBuffer(4, 4)
		for i := 0; i < 8; i++ {
			if _, err := n.Render(testFrame(4, 4, false), src, dst); err != nil {
				t.Fatalf("render %d: %v", i, err)
			}
		}
		slot, ok := n.Bindings().Lookup("sum")
		if !ok {
			t.Fatal("sum not registered")
		}
		return n.Bindings().Get(slot)
	}

	a, b := rollSum(7), rollSum(7)
	if a != b {
		t.Errorf("same seed diverged: %g vs %g", a, b)
	}
	if a == 0 {
		t.Error("rand() never produced a value")
	}
	if c := rollSum(8); c == a {
		t.Errorf("different seeds produced the same rand sequence: %g", c)
	}
}

func TestTransformPayloadRoundTrip(t *testing.T) {
	n := NewTransform()
	n.SetBlend(render.BlendAdditive)
	n.SetBoundary(BoundaryWrap)
	n.SetSubpixel(true)
	n.SetEnabled(false)
	if err := n.SetSection(SectionInit, "seed = 1"); err != nil {
		t.Fatalf("set init: %v", err)
	}
	if err := n.SetSection(SectionPoint, "x = x*0.9; y = y*0.9"); err != nil {
		t.Fatalf("set point: %v", err)
	}

	payload := n.EncodePayload()
	decoded, err := newTransformPayload(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := decoded.(*Transform)

	if m.Enabled() {
		t.Error("enabled flag lost")
	}
	if m.blend != render.BlendAdditive || m.boundary != BoundaryWrap || !m.subpixel {
		t.Error("flags lost in round trip")
	}
	for k := SectionInit; k < sectionCount; k++ {
		if m.Section(k) != n.Section(k) {
			t.Errorf("section %s lost: %q != %q", k, m.Section(k), n.Section(k))
		}
	}

	reencoded := m.EncodePayload()
	if string(reencoded) != string(payload) {
		t.Error("payload round trip not byte-identical")
	}
}

func TestTransformParamSurface(t *testing.T) {
	n := NewTransform()

	if err := n.SetParam("point", Text("x=x*0.5; y=y*0.5")); err != nil {
		t.Fatalf("set point param: %v", err)
	}
	got, err := n.GetParam("point")
	if err != nil {
		t.Fatalf("get point param: %v", err)
	}
	if got.Text != "x=x*0.5; y=y*0.5" {
		t.Errorf("point source mismatch: %q", got.Text)
	}

	if err := n.SetParam("point", Text("x = !")); err == nil {
		t.Error("expected compile error surfaced through SetParam")
	}

	if err := n.SetParam("blend", Number(99)); err == nil {
		t.Error("expected range error for bad blend value")
	}
	if _, err := n.GetParam("nope"); err == nil {
		t.Error("expected unknown-parameter error")
	}

	descs := n.Describe()
	names := map[string]bool{}
	for _, d := range descs {
		names[d.Name] = true
	}
	for _, want := range []string{"enabled", "blend", "boundary", "subpixel", "init", "frame", "beat", "point"} {
		if !names[want] {
			t.Errorf("missing parameter description %q", want)
		}
	}
}
