package filters

// Luma weights of the grayscale conversion.
const (
	lumaR = 0.2989
	lumaG = 0.5870
	lumaB = 0.1140
)

// Luma returns the weighted luminance of an RGB triplet.
func Luma(r, g, b float64) float64 {
	return lumaR*r + lumaG*g + lumaB*b
}

// lerp returns a at t=0 and b at t=1 exactly.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// grayscaleMix blends each channel toward the luma of the triplet by t in [0,1].
func grayscaleMix(r, g, b, t float64) (float64, float64, float64) {
	l := Luma(r, g, b)
	return lerp(r, l, t), lerp(g, l, t), lerp(b, l, t)
}
