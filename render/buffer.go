// Package render owns the image pipeline: packed pixel buffers, the
// per-frame context handed to effect nodes, pixel blending, the
// row-parallel worker helper, and the scheduler that drives an effect
// chain frame by frame.
package render

// ImageBuffer is a width x height buffer of packed 0xAARRGGBB pixels,
// row-major. Buffers are owned by the scheduler (or by a nested list's
// scratch pair) and handed to nodes by reference; two nodes never mutate
// one concurrently.
type ImageBuffer struct {
	W, H int
	Pix  []uint32
}

// NewImageBuffer allocates a zeroed buffer
func NewImageBuffer(w, h int) *ImageBuffer {
	return &ImageBuffer{W: w, H: h, Pix: make([]uint32, w*h)}
}

// At returns the pixel at (x, y). Bounds are the caller's problem; the
// hot paths index Pix directly.
func (b *ImageBuffer) At(x, y int) uint32 {
	return b.Pix[y*b.W+x]
}

// Set writes the pixel at (x, y)
func (b *ImageBuffer) Set(x, y int, c uint32) {
	b.Pix[y*b.W+x] = c
}

// Row returns the pixel slice for row y
func (b *ImageBuffer) Row(y int) []uint32 {
	return b.Pix[y*b.W : (y+1)*b.W]
}

// Fill sets every pixel to c
func (b *ImageBuffer) Fill(c uint32) {
	for i := range b.Pix {
		b.Pix[i] = c
	}
}

// CopyFrom copies src's pixels into b. The buffers must be the same size.
func (b *ImageBuffer) CopyFrom(src *ImageBuffer) {
	copy(b.Pix, src.Pix)
}

// Clone returns an independent copy of b
func (b *ImageBuffer) Clone() *ImageBuffer {
	c := NewImageBuffer(b.W, b.H)
	copy(c.Pix, b.Pix)
	return c
}

// RGB packs an opaque color
func RGB(r, g, b uint8) uint32 {
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
