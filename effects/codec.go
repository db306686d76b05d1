package effects

import (
	"encoding/binary"
	"fmt"
)

// Payload encoding helpers. Each effect constructor owns its payload
// layout; these helpers keep the primitive encodings (little-endian i32,
// length-prefixed strings) uniform across the builtins.

// appendI32 appends a little-endian int32
func appendI32(buf []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(v))
}

// appendString appends an int32 length prefix followed by the raw bytes
func appendString(buf []byte, s string) []byte {
	buf = appendI32(buf, int32(len(s)))
	return append(buf, s...)
}

// payloadReader decodes an effect payload sequentially
type payloadReader struct {
	data []byte
	off  int
}

func (r *payloadReader) byte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, fmt.Errorf("payload truncated at byte %d", r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *payloadReader) i32() (int32, error) {
	if r.off+4 > len(r.data) {
		return 0, fmt.Errorf("payload truncated at byte %d", r.off)
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v, nil
}

func (r *payloadReader) string() (string, error) {
	n, err := r.i32()
	if err != nil {
		return "", err
	}
	if n < 0 || r.off+int(n) > len(r.data) {
		return "", fmt.Errorf("bad string length %d at byte %d", n, r.off)
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}
