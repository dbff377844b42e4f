package filters

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/soypat/digicam"
)

// Blur is a gaussian blur with standard deviation Sigma in pixels.
type Blur struct {
	Sigma float64
	ctrls []digicam.Control
}

var _ digicam.Filter = (*Blur)(nil)

// NewBlur creates a blur pass. A sigma of 0 copies the image.
func NewBlur(sigma float64) *Blur {
	f := &Blur{Sigma: digicam.FieldBlur.Domain().Clamp(sigma)}
	f.ctrls = []digicam.Control{amountControl(digicam.FieldBlur, &f.Sigma)}
	return f
}

func (f *Blur) ShapeIO() (output, input digicam.Shape) {
	return digicam.ShapeRGBA8888, digicam.ShapeRGBA8888
}

func (f *Blur) Controls() []digicam.Control { return f.ctrls }

func (f *Blur) Process(dst []byte, src digicam.Image, roi *image.Rectangle) (digicam.Dims, error) {
	buf, dims, err := prepareSpatial(dst, src, roi)
	if err != nil {
		return digicam.Dims{}, err
	}
	if !(f.Sigma > 0) {
		copy(dst, buf.Pix)
		return dims, nil
	}
	blurred := imaging.Blur(buf.NRGBA(), f.Sigma)
	copy(dst, blurred.Pix)
	return dims, nil
}
