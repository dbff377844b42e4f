package filters

import (
	"image"

	"github.com/soypat/digicam"
)

// ChannelSplit displaces the red channel left and the blue channel right by
// half of Amount pixels, sampling at the image edge when out of bounds.
// Green and alpha are left in place.
type ChannelSplit struct {
	Amount float64 // Split distance in pixels.
	ctrls  []digicam.Control
}

var _ digicam.Filter = (*ChannelSplit)(nil)

// NewChannelSplit creates a channel split pass. Amounts below 2 copy the image.
func NewChannelSplit(amount float64) *ChannelSplit {
	f := &ChannelSplit{Amount: digicam.FieldRGBSplit.Domain().Clamp(amount)}
	f.ctrls = []digicam.Control{amountControl(digicam.FieldRGBSplit, &f.Amount)}
	return f
}

// Shift returns the per-channel displacement in pixels.
func (f *ChannelSplit) Shift() int {
	if !(f.Amount > 0) {
		return 0
	}
	return int(f.Amount / 2)
}

func (f *ChannelSplit) ShapeIO() (output, input digicam.Shape) {
	return digicam.ShapeRGBA8888, digicam.ShapeRGBA8888
}

func (f *ChannelSplit) Controls() []digicam.Control { return f.ctrls }

func (f *ChannelSplit) Process(dst []byte, src digicam.Image, roi *image.Rectangle) (digicam.Dims, error) {
	buf, dims, err := prepareSpatial(dst, src, roi)
	if err != nil {
		return digicam.Dims{}, err
	}
	shift := f.Shift()
	if shift == 0 {
		copy(dst, buf.Pix)
		return dims, nil
	}
	last := buf.Width - 1
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.Offset(x, y)
			dst[i] = buf.Pix[buf.Offset(min(last, x+shift), y)]
			dst[i+1] = buf.Pix[i+1]
			dst[i+2] = buf.Pix[buf.Offset(max(0, x-shift), y)+2]
			dst[i+3] = buf.Pix[i+3]
		}
	}
	return dims, nil
}
