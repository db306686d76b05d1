package render

import (
	"context"

	"strobe/audio"
)

// FrameContext carries one frame's parameters through the chain. It is
// ephemeral: built by the scheduler for each frame and never retained by
// nodes.
type FrameContext struct {
	// Ctx is checked between node boundaries so an in-flight frame can be
	// abandoned; rendering is never cancelled mid pixel loop.
	Ctx context.Context

	Width  int
	Height int
	Time   float64 // seconds since the chain started
	Delta  float64 // seconds since the previous frame
	Beat   bool
	Audio  *audio.Features // borrowed, read-only; may be nil

	// Workers caps the Point-phase worker pool for scriptable nodes.
	// Zero means one worker per CPU.
	Workers int

	// OnError receives node-level render failures. By the time it is
	// called the failing node has already degraded to pass-through for
	// this frame; the chain render continues.
	OnError func(node string, err error)
}

// ReportError forwards a node failure to the frame's error hook, if any
func (fc *FrameContext) ReportError(node string, err error) {
	if fc.OnError != nil {
		fc.OnError(node, err)
	}
}

// Done reports whether the frame has been aborted
func (fc *FrameContext) Done() bool {
	return fc.Ctx != nil && fc.Ctx.Err() != nil
}
