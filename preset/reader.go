package preset

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"strobe/effects"
	"strobe/render"
)

// extensionNameLen is the fixed width of the ASCII name field that
// prefixes an extension record's payload
const extensionNameLen = 32

// ParseError reports a structural problem in preset data with the byte
// offset where it was found. Structural errors abort the load: record
// framing cannot be resynchronized once a length field is wrong.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("preset: offset %d: %s", e.Offset, e.Reason)
}

// parseErrorf builds a *ParseError at the given offset
func parseErrorf(off int, format string, args ...any) error {
	return &ParseError{Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// reader walks preset bytes tracking the absolute offset for errors.
// base is the offset of data[0] within the whole file, so nested list
// payloads report file positions rather than payload-relative ones.
type reader struct {
	data []byte
	base int
	off  int
}

func (r *reader) pos() int       { return r.base + r.off }
func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) i32() (int32, error) {
	if r.remaining() < 4 {
		return 0, parseErrorf(r.pos(), "truncated int32")
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, parseErrorf(r.pos(), "record payload of %d bytes exceeds remaining %d", n, r.remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Load parses preset bytes into a Document, resolving effect records
// through reg. A record whose effect is unknown, or whose payload its
// constructor rejects, is substituted with a placeholder that preserves
// the raw bytes; only broken record framing fails the load.
func Load(data []byte, reg *effects.Registry) (*Document, error) {
	var version string
	switch {
	case bytes.HasPrefix(data, []byte(SignatureV2)):
		version = SignatureV2
	case bytes.HasPrefix(data, []byte(SignatureV1)):
		version = SignatureV1
	default:
		return nil, parseErrorf(0, "bad signature")
	}

	r := &reader{data: data[len(version):], base: len(version)}
	root := effects.NewList(render.BlendReplace)
	if err := readRecords(r, reg, root); err != nil {
		return nil, err
	}
	return &Document{Version: version, Root: root}, nil
}

// readRecords consumes records until the reader is exhausted, appending
// each resolved node to list
func readRecords(r *reader, reg *effects.Registry, list *effects.List) error {
	for r.remaining() > 0 {
		node, err := readRecord(r, reg)
		if err != nil {
			return err
		}
		list.Append(node)
	}
	return nil
}

// readRecord parses one {index, length, payload} record and resolves it
// to a node
func readRecord(r *reader, reg *effects.Registry) (effects.Node, error) {
	index, err := r.i32()
	if err != nil {
		return nil, err
	}
	length, err := r.i32()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, parseErrorf(r.pos()-4, "negative record length %d", length)
	}
	payload, err := r.bytes(int(length))
	if err != nil {
		return nil, err
	}
	payloadBase := r.pos() - int(length)

	switch {
	case index == effects.ListIndex:
		return readList(payload, payloadBase, reg)
	case index >= effects.ExtensionBase:
		return readExtension(index, payload, reg), nil
	default:
		ctor := reg.Builtin(index)
		if ctor == nil {
			return effects.NewPlaceholder(index, payload), nil
		}
		node, err := ctor(payload)
		if err != nil {
			// Undecodable payload: keep the bytes, skip the effect
			return effects.NewPlaceholder(index, payload), nil
		}
		return node, nil
	}
}

// readList parses a list record payload: one blend byte followed by the
// child record stream
func readList(payload []byte, base int, reg *effects.Registry) (effects.Node, error) {
	if len(payload) < 1 {
		return nil, parseErrorf(base, "list payload missing blend byte")
	}
	blend := render.BlendMode(payload[0])
	if !blend.Valid() {
		blend = render.BlendReplace
	}
	list := effects.NewList(blend)
	r := &reader{data: payload[1:], base: base + 1}
	if err := readRecords(r, reg, list); err != nil {
		return nil, err
	}
	return list, nil
}

// readExtension resolves a named extension record. The payload's first
// 32 bytes are a NUL-padded ASCII name; the rest is the effect payload.
// Unknown names keep the whole raw payload in a placeholder.
func readExtension(index int32, payload []byte, reg *effects.Registry) effects.Node {
	if len(payload) < extensionNameLen {
		return effects.NewPlaceholder(index, payload)
	}
	name := extensionName(payload[:extensionNameLen])
	ctor := reg.Named(name)
	if ctor == nil {
		return effects.NewPlaceholder(index, payload)
	}
	node, err := ctor(payload[extensionNameLen:])
	if err != nil {
		return effects.NewPlaceholder(index, payload)
	}
	return node
}

// extensionName trims the fixed-width name field at its first NUL
func extensionName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
