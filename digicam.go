// Package digicam holds the shared pixel buffer and filter abstractions of the
// digicam photo effect pipeline along with the adjustable parameter model.
//
// A pipeline run takes a source [Buffer] and a [ParameterSet] and passes the
// buffer through a chain of [Filter] implementations (see the filters package),
// each producing a fresh buffer. Stickers are drawn last by the sticker package.
package digicam

import (
	"errors"
	"image"
	"io"
	"math"

	"golang.org/x/image/draw"
)

// Image is a low-level, whole-buffer image access abstraction of raw memory.
// It does not do bounds abstraction. As made implicit by Dims signature, row spacing must be homogenous in images.
type Image interface {
	// Dims returns information on in-memory image structure.
	Dims() Dims
	// ReadAt reads from the image buffer of pixels.
	//
	// Users should always try casting [Image] to [ImageBuffered]
	// to see if they can work with the image in-memory which is more efficient.
	io.ReaderAt
}

type ImageBuffered interface {
	Image
	// Buffer returns the raw underlying buffer for images stored in memory
	// or nil to signal buffer is currently not in memory.
	Buffer() []byte
}

// Filter is a single pass of the effect pipeline.
type Filter interface {
	// ShapeIO returns expected output and input [Shape] of the filter.
	ShapeIO() (output, input Shape)
	// Process processes an input image and writes the result to
	// destination buffer and returns the dimensions of the resulting image.
	//
	// If destination buffer is nil Filter will assert [ImageBuffered.Buffer] non-nilness
	// and use the buffer as the destination data. In-place does not support ROI.
	// Filters that read neighbouring pixels never run in place and reject a non-nil roi.
	Process(dstOrNilForInPlace []byte, src Image, roi *image.Rectangle) (Dims, error)
	// Controls returns the actual controls of the filter. May be nil.
	Controls() []Control
}

type Shape int

const (
	shapeUndefined Shape = iota // undefined
	// ShapeRGBA8888 is 4 straight (non-premultiplied) 8 bit samples per pixel.
	ShapeRGBA8888 // rgba8888
)

func (sh Shape) BitsPerPixel() (bits int) {
	switch sh {
	default:
		bits = -1
	case ShapeRGBA8888:
		bits = 32
	}
	return bits
}

func (sh Shape) String() string {
	switch sh {
	case ShapeRGBA8888:
		return "rgba8888"
	default:
		return "undefined"
	}
}

type Dims struct {
	Width  int
	Height int
	Stride int
	Shape  Shape
}

func (d Dims) Validate() error {
	pixbits := d.Shape.BitsPerPixel()
	if d.Height <= 0 || d.Width <= 0 {
		return errors.New("empty image")
	} else if pixbits < 1 {
		return errors.New("bad pixel shape")
	} else if (d.Width*pixbits+7)/8 > d.Stride {
		return errors.New("stride smaller than pixel row size")
	}
	return nil
}

func (d Dims) NumPixels() int64 {
	return int64(d.Height) * int64(d.Width)
}

// Size returns the readable section size of raw image in bytes.
func (d Dims) Size() int64 {
	if d.Height == 0 || d.Width == 0 {
		return 0
	}
	return int64(d.Height-1)*int64(d.Stride) + int64(d.SizeRow())
}

func (d Dims) SizeRow() int {
	return (d.Width*d.Shape.BitsPerPixel() + 7) / 8
}

// ValidateProcessArgs gets correct write destination buffer and
// provides basic guarantees of inputs to Filter such as:
//   - Source [Dims.Validate] early validation. Always returned as called.
//   - Valid ROI argument.
//   - Valid input image for buffered in-place operations. In-place rejects non-nil ROI.
//   - shape match for in-place operations.
//   - Destination buffer size. Use dstDims.Stride=0 to omit this check.
func ValidateProcessArgs(dst []byte, dstDims Dims, src Image, roi *image.Rectangle) (_ []byte, srcDims Dims, err error) {
	srcDims = src.Dims()
	if err = srcDims.Validate(); err != nil {
		return nil, srcDims, err
	}
	var requiredMinDstSize int64
	if roi != nil {
		if roi.Max.X < 0 || roi.Min.X < 0 || roi.Min.Y < 0 || roi.Max.Y < 0 {
			return nil, srcDims, errors.New("negative ROI")
		} else if roi.Max.X > srcDims.Width || roi.Max.Y > srcDims.Height {
			return nil, srcDims, errors.New("ROI exceeds image bounds")
		} else if roi.Empty() {
			return nil, srcDims, errors.New("empty ROI")
		}
		requiredMinDstSize = int64(dstDims.Stride) * int64(roi.Dy())
	} else {
		requiredMinDstSize = int64(dstDims.Stride) * int64(dstDims.Height)
	}
	if dst == nil {
		if roi != nil {
			return nil, srcDims, errors.New("in-place operation does not support ROI")
		}
		if dstDims.Shape != srcDims.Shape {
			return nil, srcDims, errors.New("src must match filter output shape for in-place op")
		}
		buffered, ok := src.(ImageBuffered)
		if !ok {
			return nil, srcDims, errors.New("src does not implement ImageBuffered for in-place op")
		}
		buf := buffered.Buffer()
		if buf == nil {
			return nil, srcDims, errors.New("src returned nil buffer on in-place op")
		} else if int64(len(buf)) < srcDims.Size() {
			return nil, srcDims, errors.New("src ImageBuffered returned a buffer too small to represent complete image")
		}
		dst = buf
	}
	if int64(len(dst)) < requiredMinDstSize {
		return dst, srcDims, errors.New("destination buffer not large enough to store output")
	}
	return dst, srcDims, nil
}

// Buffer is a decoded raster image stored as contiguous row-major RGBA samples
// with straight alpha. len(Pix) == Width*Height*4.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

var _ ImageBuffered = (*Buffer)(nil)

// maxPixels bounds buffer allocation; 1<<28 pixels is a 1 GiB buffer.
const maxPixels = 1 << 28

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("empty image")
	}
	if int64(width)*int64(height) > maxPixels {
		return nil, errors.New("image dimensions exceed buffer limit")
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}, nil
}

// BufferFromImage copies img into a new buffer, converting to straight RGBA.
func BufferFromImage(img image.Image) (*Buffer, error) {
	r := img.Bounds()
	b, err := NewBuffer(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == 4*b.Width {
		copy(b.Pix, nrgba.Pix[nrgba.PixOffset(r.Min.X, r.Min.Y):])
		return b, nil
	}
	dst := b.NRGBA()
	draw.Draw(dst, dst.Rect, img, r.Min, draw.Src)
	return b, nil
}

// Dims implements [Image].
func (b *Buffer) Dims() Dims {
	return Dims{Width: b.Width, Height: b.Height, Stride: 4 * b.Width, Shape: ShapeRGBA8888}
}

// Buffer implements [ImageBuffered].
func (b *Buffer) Buffer() []byte { return b.Pix }

// ReadAt implements [io.ReaderAt].
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	} else if off >= int64(len(b.Pix)) {
		return 0, io.EOF
	}
	n := copy(p, b.Pix[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Offset returns the index of the red sample of pixel (x,y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	c := *b
	c.Pix = append([]byte(nil), b.Pix...)
	return &c
}

// NRGBA returns an [image.NRGBA] view sharing the buffer memory.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: 4 * b.Width,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Apply runs f over src and returns the result in a newly allocated buffer.
// src is never modified.
func Apply(f Filter, src *Buffer) (*Buffer, error) {
	dst, err := NewBuffer(src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	dims, err := f.Process(dst.Pix, src, nil)
	if err != nil {
		return nil, err
	}
	if dims.Width != dst.Width || dims.Height != dst.Height || dims.Shape != ShapeRGBA8888 {
		return nil, errors.New("filter changed buffer geometry")
	}
	return dst, nil
}

// ClampSample rounds v to the nearest integer and clamps it to [0,255].
// NaN maps to 0.
func ClampSample(v float64) uint8 {
	if !(v > 0) {
		return 0
	} else if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
