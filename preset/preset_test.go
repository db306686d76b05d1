package preset

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"strobe/effects"
	"strobe/render"
)

// frame appends an {index, length, payload} record to raw preset bytes
func frame(out []byte, index int32, payload []byte) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(index))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	doc := NewDocument()

	clear := effects.NewClear()
	clear.Color = 0xFF204060
	doc.Root.Append(clear)

	tr := effects.NewTransform()
	if err := tr.SetSection(effects.SectionPoint, "x = x*0.95; y = y*0.95"); err != nil {
		t.Fatalf("set point: %v", err)
	}
	tr.SetBlend(render.BlendAdditive)
	doc.Root.Append(tr)

	inner := effects.NewList(render.BlendAverage)
	inner.Append(effects.NewInvert())
	fade := effects.NewFadeout()
	fade.Step = 24
	inner.Append(fade)
	doc.Root.Append(inner)

	data, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(SignatureV2)) {
		t.Fatal("saved preset missing signature")
	}

	loaded, err := Load(data, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != SignatureV2 {
		t.Errorf("version: %q", loaded.Version)
	}
	if got := loaded.Root.Len(); got != 3 {
		t.Fatalf("expected 3 top-level records, got %d", got)
	}

	lt, ok := loaded.Root.Children()[1].(*effects.Transform)
	if !ok {
		t.Fatal("second record is not a transform")
	}
	if lt.Section(effects.SectionPoint) != "x = x*0.95; y = y*0.95" {
		t.Errorf("point source lost: %q", lt.Section(effects.SectionPoint))
	}

	li, ok := loaded.Root.Children()[2].(*effects.List)
	if !ok {
		t.Fatal("third record is not a list")
	}
	if li.Blend() != render.BlendAverage || li.Len() != 2 {
		t.Errorf("nested list lost: blend=%v len=%d", li.Blend(), li.Len())
	}

	// Byte-identical second generation
	data2, err := Save(loaded)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if !bytes.Equal(data, data2) {
		t.Error("save/load/save not byte-identical")
	}
}

func TestUnknownEffectBecomesPlaceholder(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = frame(raw, 40, []byte{1, 2, 3, 4}) // index in range, unregistered
	raw = frame(raw, effects.IndexInvert, []byte{1})

	doc, err := Load(raw, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Root.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", doc.Root.Len())
	}

	ph, ok := doc.Root.Children()[0].(*effects.Placeholder)
	if !ok {
		t.Fatal("unknown effect not substituted with a placeholder")
	}
	if id := ph.RecordID(); id.Index != 40 {
		t.Errorf("placeholder index: %d", id.Index)
	}
	if _, ok := doc.Root.Children()[1].(*effects.Invert); !ok {
		t.Error("known effect after the placeholder not decoded")
	}

	// The placeholder round-trips the raw record untouched
	saved, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.Equal(saved, raw) {
		t.Error("placeholder record not preserved byte for byte")
	}
}

func TestMaxIndexBecomesPlaceholder(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = frame(raw, 0x7FFFFFFF, []byte{0xAA, 0xBB})

	doc, err := Load(raw, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load must survive an unresolvable index: %v", err)
	}
	ph, ok := doc.Root.Children()[0].(*effects.Placeholder)
	if !ok {
		t.Fatal("expected a pass-through placeholder")
	}
	if ph.RecordID().Index != 0x7FFFFFFF {
		t.Errorf("index not preserved: %d", ph.RecordID().Index)
	}

	saved, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.Equal(saved, raw) {
		t.Error("record not preserved byte for byte")
	}
}

func TestUndecodablePayloadBecomesPlaceholder(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = frame(raw, effects.IndexBrightness, []byte{1}) // missing the add field

	doc, err := Load(raw, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := doc.Root.Children()[0].(*effects.Placeholder); !ok {
		t.Fatal("truncated builtin payload must degrade to a placeholder")
	}

	saved, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.Equal(saved, raw) {
		t.Error("undecodable record not preserved byte for byte")
	}
}

func TestOldSignatureAccepted(t *testing.T) {
	raw := []byte(SignatureV1)
	raw = frame(raw, effects.IndexInvert, []byte{1})

	doc, err := Load(raw, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Version != SignatureV1 {
		t.Errorf("version: %q", doc.Version)
	}

	// Saving upgrades to the current signature
	saved, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.HasPrefix(saved, []byte(SignatureV2)) {
		t.Error("save did not write the current signature")
	}
}

func TestBadSignatureRejected(t *testing.T) {
	_, err := Load([]byte("Winamp EQ library file v1.1\x1a"), effects.NewRegistry())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Offset != 0 {
		t.Errorf("offset: %d", pe.Offset)
	}
}

func TestOversizedLengthRejected(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(effects.IndexClear))
	raw = binary.LittleEndian.AppendUint32(raw, 0x7FFFFFFF)
	raw = append(raw, 1, 2, 3)

	_, err := Load(raw, effects.NewRegistry())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for oversized length, got %v", err)
	}
}

func TestNegativeLengthRejected(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(effects.IndexClear))
	raw = binary.LittleEndian.AppendUint32(raw, 0xFFFFFFFF)

	_, err := Load(raw, effects.NewRegistry())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for negative length, got %v", err)
	}
}

func TestTruncatedHeaderRejected(t *testing.T) {
	raw := []byte(SignatureV2)
	raw = append(raw, 0x05, 0x00) // half an index field

	_, err := Load(raw, effects.NewRegistry())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for truncated header, got %v", err)
	}
	if pe.Offset != len(SignatureV2) {
		t.Errorf("offset: %d, want %d", pe.Offset, len(SignatureV2))
	}
}

func TestNestedListFramingErrorReportsFileOffset(t *testing.T) {
	inner := []byte{byte(render.BlendReplace)}
	inner = append(inner, 0x01) // truncated child header
	raw := []byte(SignatureV2)
	raw = frame(raw, effects.ListIndex, inner)

	_, err := Load(raw, effects.NewRegistry())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	// The offset points inside the list payload, past signature and header
	if pe.Offset <= len(SignatureV2)+8 {
		t.Errorf("offset %d not inside nested payload", pe.Offset)
	}
}

func TestExtensionRecords(t *testing.T) {
	reg := effects.NewRegistry()
	reg.RegisterNamed("negate", func(payload []byte) (effects.Node, error) {
		return effects.NewInvert(), nil
	})

	name := make([]byte, 32)
	copy(name, "negate")
	known := append(append([]byte{}, name...), 1)

	unknownName := make([]byte, 32)
	copy(unknownName, "hyperblur")
	unknown := append(append([]byte{}, unknownName...), 9, 9)

	raw := []byte(SignatureV2)
	raw = frame(raw, effects.ExtensionBase, known)
	raw = frame(raw, effects.ExtensionBase+7, unknown)

	doc, err := Load(raw, reg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := doc.Root.Children()[0].(*effects.Invert); !ok {
		t.Error("registered extension not resolved")
	}
	ph, ok := doc.Root.Children()[1].(*effects.Placeholder)
	if !ok {
		t.Fatal("unknown extension not substituted with a placeholder")
	}
	if ph.RecordID().Index != effects.ExtensionBase+7 {
		t.Errorf("extension index not preserved: %d", ph.RecordID().Index)
	}

	// The unknown extension record survives a save byte for byte
	saved, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !bytes.Contains(saved, unknown) {
		t.Error("unknown extension payload not preserved")
	}
}

func TestEmptyPresetLoads(t *testing.T) {
	doc, err := Load([]byte(SignatureV2), effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Root.Len() != 0 {
		t.Errorf("expected empty root, got %d records", doc.Root.Len())
	}
}

func TestLoadedPresetRenders(t *testing.T) {
	// Build: clear to white, then a nested additive list holding an invert.
	// Invert of white is black; additive blend of black over white leaves
	// white untouched.
	doc := NewDocument()
	clear := effects.NewClear()
	clear.Color = render.RGB(255, 255, 255)
	doc.Root.Append(clear)

	inner := effects.NewList(render.BlendAdditive)
	inner.Append(effects.NewInvert())
	doc.Root.Append(inner)

	data, err := Save(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(data, effects.NewRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	s := render.NewScheduler(8, 8, loaded.Root)
	out, err := s.Frame(context.Background(), 1.0/60, false, nil)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	want := render.RGB(255, 255, 255)
	for i, p := range out.Pix {
		if p != want {
			t.Fatalf("pixel %d: got %08x, want white", i, p)
		}
	}
}
