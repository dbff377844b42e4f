package filters

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/soypat/digicam"
)

// Pixelate averages square blocks of pixels and magnifies them back with
// nearest neighbour sampling so block edges stay crisp.
type Pixelate struct {
	Amount float64 // Block size in half pixels, see [BlockSize].
	ctrls  []digicam.Control
}

var _ digicam.Filter = (*Pixelate)(nil)

// NewPixelate creates a pixelate pass. An amount of 0 copies the image.
func NewPixelate(amount float64) *Pixelate {
	f := &Pixelate{Amount: digicam.FieldPixelate.Domain().Clamp(amount)}
	f.ctrls = []digicam.Control{amountControl(digicam.FieldPixelate, &f.Amount)}
	return f
}

// BlockSize returns the side in pixels of a pixelate block for amount.
func BlockSize(amount float64) int {
	return max(2, int(math.Round(amount*2)))
}

func (f *Pixelate) ShapeIO() (output, input digicam.Shape) {
	return digicam.ShapeRGBA8888, digicam.ShapeRGBA8888
}

func (f *Pixelate) Controls() []digicam.Control { return f.ctrls }

func (f *Pixelate) Process(dst []byte, src digicam.Image, roi *image.Rectangle) (digicam.Dims, error) {
	buf, dims, err := prepareSpatial(dst, src, roi)
	if err != nil {
		return digicam.Dims{}, err
	}
	if !(f.Amount > 0) {
		copy(dst, buf.Pix)
		return dims, nil
	}
	block := BlockSize(f.Amount)
	w, h := buf.Width, buf.Height
	sw := (w + block - 1) / block
	sh := (h + block - 1) / block
	small := imaging.Resize(buf.NRGBA(), sw, sh, imaging.Box)
	big := imaging.Resize(small, w, h, imaging.NearestNeighbor)
	copy(dst, big.Pix)
	return dims, nil
}
