package filters

// sepiaTone returns the sepia matrix transform of an RGB triplet.
func sepiaTone(r, g, b float64) (float64, float64, float64) {
	return 0.393*r + 0.769*g + 0.189*b,
		0.349*r + 0.686*g + 0.168*b,
		0.272*r + 0.534*g + 0.131*b
}

// sepiaMix blends each channel toward its sepia tone by t in [0,1].
func sepiaMix(r, g, b, t float64) (float64, float64, float64) {
	sr, sg, sb := sepiaTone(r, g, b)
	return lerp(r, sr, t), lerp(g, sg, t), lerp(b, sb, t)
}
