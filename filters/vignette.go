package filters

import (
	"image"
	"math"

	"github.com/soypat/digicam"
)

// Vignette composites a black overlay whose opacity grows from 0 at the
// image center to Amount/100 at half the image diagonal.
// The overlay is composited with the "over" operator so transparent pixels
// darken by gaining alpha instead of losing color.
type Vignette struct {
	Amount float64 // Maximum overlay opacity in percent.
	ctrls  []digicam.Control
}

var _ digicam.Filter = (*Vignette)(nil)

// NewVignette creates a vignette pass. An amount of 0 copies the image.
func NewVignette(amount float64) *Vignette {
	f := &Vignette{Amount: digicam.FieldVignette.Domain().Clamp(amount)}
	f.ctrls = []digicam.Control{amountControl(digicam.FieldVignette, &f.Amount)}
	return f
}

func (f *Vignette) ShapeIO() (output, input digicam.Shape) {
	return digicam.ShapeRGBA8888, digicam.ShapeRGBA8888
}

func (f *Vignette) Controls() []digicam.Control { return f.ctrls }

// Opacity returns the overlay opacity in [0,1] at distance d from the center
// of an image whose half diagonal is radius.
func (f *Vignette) Opacity(d, radius float64) float64 {
	if !(radius > 0) {
		return 0
	}
	t := min(1, d/radius)
	t = t * t * (3 - 2*t) // smoothstep
	return t * f.Amount / 100
}

func (f *Vignette) Process(dst []byte, src digicam.Image, roi *image.Rectangle) (digicam.Dims, error) {
	buf, dims, err := prepareSpatial(dst, src, roi)
	if err != nil {
		return digicam.Dims{}, err
	}
	copy(dst, buf.Pix)
	if !(f.Amount > 0) {
		return dims, nil
	}
	w, h := float64(buf.Width), float64(buf.Height)
	cx, cy := w/2, h/2
	radius := math.Hypot(w, h) / 2
	for y := 0; y < buf.Height; y++ {
		dy := float64(y) - cy
		for x := 0; x < buf.Width; x++ {
			o := f.Opacity(math.Hypot(float64(x)-cx, dy), radius)
			if o == 0 {
				continue
			}
			i := buf.Offset(x, y)
			a := float64(buf.Pix[i+3]) / 255
			outA := o + a*(1-o)
			// Black source contributes no color; outA >= o > 0.
			k := a * (1 - o) / outA
			dst[i] = digicam.ClampSample(float64(buf.Pix[i]) * k)
			dst[i+1] = digicam.ClampSample(float64(buf.Pix[i+1]) * k)
			dst[i+2] = digicam.ClampSample(float64(buf.Pix[i+2]) * k)
			dst[i+3] = digicam.ClampSample(outA * 255)
		}
	}
	return dims, nil
}
