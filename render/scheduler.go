package render

import (
	"context"
	"fmt"

	"strobe/audio"
)

// Node is the contract the scheduler drives. Package effects implements
// it; the scheduler only needs rendering and the enabled flag.
//
// Render consumes src and may produce into dst. A node that wrote its
// full output into dst returns swapped=true and the scheduler ping-pongs
// the buffers; a node that worked in place on src (or did nothing)
// returns false. src and dst are never the same buffer.
type Node interface {
	Name() string
	Enabled() bool
	Render(fc *FrameContext, src, dst *ImageBuffer) (swapped bool, err error)
}

// Scheduler drives a root node (normally an effects.List holding the
// preset's chain) across frames. It owns the front/back buffer pair; the
// front buffer persists between frames, which is what makes feedback
// presets (trails, decaying blurs) work.
type Scheduler struct {
	root  Node
	front *ImageBuffer
	back  *ImageBuffer

	workers int
	time    float64

	// OnNodeError is called when a node fails during a frame. The failing
	// node passes its input through; the frame is never aborted for it.
	OnNodeError func(node string, err error)
}

// NewScheduler creates a scheduler rendering w x h frames through root
func NewScheduler(w, h int, root Node) *Scheduler {
	return &Scheduler{
		root:  root,
		front: NewImageBuffer(w, h),
		back:  NewImageBuffer(w, h),
	}
}

// SetWorkers caps the Point-phase worker pool (0 = one per CPU)
func (s *Scheduler) SetWorkers(n int) {
	s.workers = n
}

// Size returns the frame dimensions
func (s *Scheduler) Size() (w, h int) {
	return s.front.W, s.front.H
}

// Frame renders one frame and returns the front buffer, which stays valid
// until the next Frame call. delta is the elapsed time since the previous
// frame in seconds; beat and features come from the host's audio analysis.
//
// If ctx is cancelled between node boundaries the partial frame is
// discarded and ctx's error returned; per-frame state is untouched, so
// the next Frame call proceeds normally.
func (s *Scheduler) Frame(ctx context.Context, delta float64, beat bool, features *audio.Features) (*ImageBuffer, error) {
	s.time += delta

	fc := &FrameContext{
		Ctx:     ctx,
		Width:   s.front.W,
		Height:  s.front.H,
		Time:    s.time,
		Delta:   delta,
		Beat:    beat,
		Audio:   features,
		Workers: Workers(s.workers),
		OnError: s.OnNodeError,
	}

	if fc.Done() {
		return nil, ctx.Err()
	}

	if s.root.Enabled() {
		swapped, err := s.root.Render(fc, s.front, s.back)
		if err != nil {
			if fc.Done() {
				return nil, ctx.Err()
			}
			if s.OnNodeError != nil {
				s.OnNodeError(s.root.Name(), err)
			} else {
				return nil, fmt.Errorf("render %s: %w", s.root.Name(), err)
			}
		}
		if swapped {
			s.front, s.back = s.back, s.front
		}
	}

	return s.front, nil
}
