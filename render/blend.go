package render

// BlendMode is the pixel-combination rule used when compositing a node's
// or sub-chain's output onto its destination. The numeric values are part
// of the preset binary format and must not be reordered.
type BlendMode uint8

const (
	BlendReplace BlendMode = iota
	BlendAdditive
	BlendAverage
	BlendAlpha
)

// String returns the blend mode's preset-facing name
func (m BlendMode) String() string {
	switch m {
	case BlendReplace:
		return "replace"
	case BlendAdditive:
		return "additive"
	case BlendAverage:
		return "average"
	case BlendAlpha:
		return "alpha"
	}
	return "unknown"
}

// Valid reports whether m is a defined blend mode
func (m BlendMode) Valid() bool {
	return m <= BlendAlpha
}

// BlendPixel composites src over base. alpha is only consulted for
// BlendAlpha, where 1 means fully src.
func BlendPixel(mode BlendMode, base, src uint32, alpha float64) uint32 {
	switch mode {
	case BlendAdditive:
		return addSaturate(base, src)
	case BlendAverage:
		return average(base, src)
	case BlendAlpha:
		if alpha <= 0 {
			return base
		}
		if alpha >= 1 {
			return src
		}
		return lerpColor(base, src, alpha)
	default:
		return src
	}
}

// addSaturate adds channels with per-channel clamping at 255
func addSaturate(a, b uint32) uint32 {
	out := uint32(0xFF000000)
	for shift := uint(0); shift <= 16; shift += 8 {
		sum := (a>>shift)&0xFF + (b>>shift)&0xFF
		if sum > 0xFF {
			sum = 0xFF
		}
		out |= sum << shift
	}
	return out
}

// average returns the per-channel mean of a and b
func average(a, b uint32) uint32 {
	out := uint32(0xFF000000)
	for shift := uint(0); shift <= 16; shift += 8 {
		out |= (((a>>shift)&0xFF + (b>>shift)&0xFF) / 2) << shift
	}
	return out
}

// lerpColor interpolates channels from a toward b by t in (0, 1)
func lerpColor(a, b uint32, t float64) uint32 {
	out := uint32(0xFF000000)
	for shift := uint(0); shift <= 16; shift += 8 {
		ca := float64((a >> shift) & 0xFF)
		cb := float64((b >> shift) & 0xFF)
		out |= uint32(ca+(cb-ca)*t+0.5) << shift
	}
	return out
}
