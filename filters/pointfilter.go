package filters

import (
	"errors"
	"image"

	"github.com/soypat/digicam"
)

var errShapeMismatch = errors.New("pixel shape mismatch")

const bytesPerPixel = 4

// PointFunc processes a contiguous row of RGBA8888 pixels.
// dst and src have equal length and may alias the same memory, so a
// PointFunc must read a pixel before writing it.
type PointFunc func(dst, src []byte)

// PointFilter applies a per-pixel transformation using a callback function.
// It handles the iteration, buffering, and ROI logic common to all per-pixel filters.
// The callback is invoked once per row with contiguous pixel data.
type PointFilter struct {
	Fn    PointFunc
	Ctrls []digicam.Control // User-defined controls for this filter.
}

var _ digicam.Filter = (*PointFilter)(nil)

// ShapeIO implements [digicam.Filter].
func (f *PointFilter) ShapeIO() (output, input digicam.Shape) {
	return digicam.ShapeRGBA8888, digicam.ShapeRGBA8888
}

// Controls implements [digicam.Filter].
func (f *PointFilter) Controls() []digicam.Control {
	return f.Ctrls
}

// Process implements [digicam.Filter].
func (f *PointFilter) Process(dst []byte, src digicam.Image, roi *image.Rectangle) (digicam.Dims, error) {
	if f.Fn == nil {
		return digicam.Dims{}, errNilPixelFunc
	}
	srcDims := src.Dims()
	if srcDims.Shape != digicam.ShapeRGBA8888 {
		return digicam.Dims{}, errShapeMismatch
	}

	// Calculate output dimensions based on ROI or full image.
	outWidth, outHeight := srcDims.Width, srcDims.Height
	if roi != nil {
		outWidth, outHeight = roi.Dx(), roi.Dy()
	}
	outStride := outWidth * bytesPerPixel
	dstDims := digicam.Dims{
		Width:  outWidth,
		Height: outHeight,
		Stride: outStride,
		Shape:  digicam.ShapeRGBA8888,
	}
	dst, _, err := digicam.ValidateProcessArgs(dst, dstDims, src, roi)
	if err != nil {
		return digicam.Dims{}, err
	}

	startX, startY := 0, 0
	endX, endY := srcDims.Width, srcDims.Height
	if roi != nil {
		startX, startY = roi.Min.X, roi.Min.Y
		endX, endY = roi.Max.X, roi.Max.Y
	}

	// Try to get direct buffer access for better performance.
	var srcBuf []byte
	if buffered, ok := src.(digicam.ImageBuffered); ok {
		srcBuf = buffered.Buffer()
	}
	srcRowBytes := srcDims.SizeRow()
	rowBuf := make([]byte, srcRowBytes) // Fallback buffer for ReadAt.

	for y := startY; y < endY; y++ {
		var srcRow []byte
		srcRowStart := y * srcDims.Stride
		if srcBuf != nil {
			srcRow = srcBuf[srcRowStart : srcRowStart+srcRowBytes]
		} else {
			_, err := src.ReadAt(rowBuf, int64(srcRowStart))
			if err != nil {
				return digicam.Dims{}, err
			}
			srcRow = rowBuf
		}
		dstRowStart := (y - startY) * outStride
		f.Fn(dst[dstRowStart:dstRowStart+outStride], srcRow[startX*bytesPerPixel:endX*bytesPerPixel])
	}
	return dstDims, nil
}

var errNilPixelFunc = errorString("nil PointFunc")

type errorString string

func (e errorString) Error() string { return string(e) }
