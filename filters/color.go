// Package filters implements the passes of the digicam effect pipeline:
// the per-pixel color transform chain and the whole-buffer spatial effects.
package filters

import (
	"math/rand/v2"

	"github.com/soypat/digicam"
)

// ColorTransform is the per-pixel color chain:
// brightness, contrast, saturation, hue, grayscale, sepia, invert, tint and grain.
// Intermediate values are kept as floats and only clamped once at the end.
type ColorTransform struct {
	PointFilter
	params digicam.ParameterSet
	rng    *rand.Rand
}

// NewColorTransform creates the color chain for the filter and tint values of p
// plus the grain effect. rng is the grain noise source; nil uses a randomly seeded one.
// The returned filter's controls edit a private copy of p.
func NewColorTransform(p digicam.ParameterSet, rng *rand.Rand) *ColorTransform {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	ct := &ColorTransform{params: p, rng: rng}
	ct.params.Sanitize()
	ct.PointFilter = PointFilter{Fn: ct.row}
	return ct
}

// chain holds per-pass constants derived from the parameters.
type chain struct {
	brightness float64
	contrast   float64
	saturation float64
	hue        hueMatrix
	rotateHue  bool
	grayscale  float64
	sepia      float64
	invert     float64
	shift      [3]float64
	grain      float64
}

func newChain(p *digicam.ParameterSet) chain {
	c := p.Filters.Contrast / 100
	ch := chain{
		brightness: p.Filters.Brightness / 100,
		contrast:   c * c,
		saturation: p.Filters.Saturation / 100,
		rotateHue:  p.Filters.Hue != 0,
		grayscale:  p.Filters.Grayscale / 100,
		sepia:      p.Filters.Sepia / 100,
		invert:     p.Filters.Invert / 100,
		shift:      [3]float64{float64(p.Shift.R), float64(p.Shift.G), float64(p.Shift.B)},
		grain:      p.Effects.Grain,
	}
	if ch.rotateHue {
		ch.hue = newHueMatrix(p.Filters.Hue)
	}
	return ch
}

// apply runs the deterministic part of the chain on one pixel.
func (ch *chain) apply(r, g, b float64) (float64, float64, float64) {
	r, g, b = r*ch.brightness, g*ch.brightness, b*ch.brightness

	r = (r-128)*ch.contrast + 128
	g = (g-128)*ch.contrast + 128
	b = (b-128)*ch.contrast + 128

	l := Luma(r, g, b)
	r, g, b = lerp(l, r, ch.saturation), lerp(l, g, ch.saturation), lerp(l, b, ch.saturation)

	if ch.rotateHue {
		r, g, b = ch.hue.apply(r, g, b)
	}
	if ch.grayscale > 0 {
		r, g, b = grayscaleMix(r, g, b, ch.grayscale)
	}
	if ch.sepia > 0 {
		r, g, b = sepiaMix(r, g, b, ch.sepia)
	}
	if ch.invert > 0 {
		r, g, b = invertMix(r, g, b, ch.invert)
	}
	return r + ch.shift[0], g + ch.shift[1], b + ch.shift[2]
}

func (ct *ColorTransform) row(dst, src []byte) {
	ch := newChain(&ct.params)
	for i := 0; i < len(src); i += 4 {
		r, g, b := ch.apply(float64(src[i]), float64(src[i+1]), float64(src[i+2]))
		if ch.grain > 0 {
			// Same offset on all channels: luminance noise, not colored noise.
			n := (ct.rng.Float64() - 0.5) * ch.grain
			r, g, b = r+n, g+n, b+n
		}
		a := src[i+3]
		dst[i] = digicam.ClampSample(r)
		dst[i+1] = digicam.ClampSample(g)
		dst[i+2] = digicam.ClampSample(b)
		dst[i+3] = a
	}
}
