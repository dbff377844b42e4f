package filters

import "math"

// hueMatrix is a 3x3 row-major color matrix.
type hueMatrix [9]float64

// newHueMatrix returns the hue rotation matrix for the given angle in degrees.
// The matrix keeps luminance (0.213, 0.715, 0.072 weights) constant.
func newHueMatrix(degrees float64) hueMatrix {
	const (
		lr = 0.213
		lg = 0.715
		lb = 0.072
	)
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return hueMatrix{
		lr + cos*(1-lr) - sin*lr, lg - cos*lg - sin*lg, lb - cos*lb + sin*(1-lb),
		lr - cos*lr + sin*0.143, lg + cos*(1-lg) + sin*0.140, lb - cos*lb - sin*0.283,
		lr - cos*lr - sin*(1-lr), lg - cos*lg + sin*lg, lb + cos*(1-lb) + sin*lb,
	}
}

func (m *hueMatrix) apply(r, g, b float64) (float64, float64, float64) {
	return m[0]*r + m[1]*g + m[2]*b,
		m[3]*r + m[4]*g + m[5]*b,
		m[6]*r + m[7]*g + m[8]*b
}
