package filters

import (
	"errors"
	"image"
	"io"

	"github.com/soypat/digicam"
)

var (
	errROIUnsupported   = errors.New("neighbourhood filter does not support ROI")
	errInPlaceForbidden = errors.New("neighbourhood filter cannot run in place")
)

// prepareSpatial validates the arguments of a whole-buffer filter and returns
// the source as a buffer that never aliases dst.
func prepareSpatial(dst []byte, src digicam.Image, roi *image.Rectangle) (*digicam.Buffer, digicam.Dims, error) {
	if roi != nil {
		return nil, digicam.Dims{}, errROIUnsupported
	} else if dst == nil {
		return nil, digicam.Dims{}, errInPlaceForbidden
	}
	srcDims := src.Dims()
	if srcDims.Shape != digicam.ShapeRGBA8888 {
		return nil, digicam.Dims{}, errShapeMismatch
	}
	dstDims := digicam.Dims{
		Width:  srcDims.Width,
		Height: srcDims.Height,
		Stride: srcDims.Width * bytesPerPixel,
		Shape:  digicam.ShapeRGBA8888,
	}
	if _, _, err := digicam.ValidateProcessArgs(dst, dstDims, src, nil); err != nil {
		return nil, digicam.Dims{}, err
	}
	buf, err := loadBuffer(src)
	if err != nil {
		return nil, digicam.Dims{}, err
	}
	if len(buf.Pix) > 0 && len(dst) > 0 && &buf.Pix[0] == &dst[0] {
		// Shifted reads must see the pre-pass values.
		buf = buf.Clone()
	}
	return buf, dstDims, nil
}

// loadBuffer returns src as a contiguous buffer, copying only when src is not
// already a tightly packed in-memory image.
func loadBuffer(src digicam.Image) (*digicam.Buffer, error) {
	if b, ok := src.(*digicam.Buffer); ok {
		return b, nil
	}
	d := src.Dims()
	b, err := digicam.NewBuffer(d.Width, d.Height)
	if err != nil {
		return nil, err
	}
	rowBytes := d.SizeRow()
	for y := 0; y < d.Height; y++ {
		row := b.Pix[y*rowBytes : (y+1)*rowBytes]
		n, err := src.ReadAt(row, int64(y)*int64(d.Stride))
		if n < len(row) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return b, nil
}

// amountControl returns a slider control editing *amount within field's domain.
func amountControl(field digicam.Field, amount *float64) digicam.Control {
	return field.Control(*amount, func(v float64) error {
		*amount = v
		return nil
	})
}
