// Package preset reads and writes the binary preset format: a signature
// line followed by a flat stream of effect records, where list records
// nest a further record stream inside their payload. Unknown or
// undecodable records are preserved as placeholders so a load/save cycle
// is byte-identical even for effects this build does not implement.
package preset

import (
	"strobe/effects"
	"strobe/render"
)

// Preset format signatures. Version 0.2 is written; 0.1 is accepted on
// read for older files.
const (
	SignatureV2 = "Nullsoft AVS Preset 0.2\x1a"
	SignatureV1 = "Nullsoft AVS Preset 0.1\x1a"
)

// Document is a loaded preset: its format version and the root effect
// list. The root list's children are the preset's top-level records.
type Document struct {
	Version string
	Root    *effects.List
}

// NewDocument creates an empty current-version preset
func NewDocument() *Document {
	return &Document{
		Version: SignatureV2,
		Root:    effects.NewList(render.BlendReplace),
	}
}
