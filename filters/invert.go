package filters

// invertMix blends each channel toward its negative by t in [0,1].
func invertMix(r, g, b, t float64) (float64, float64, float64) {
	return lerp(r, 255-r, t), lerp(g, 255-g, t), lerp(b, 255-b, t)
}
