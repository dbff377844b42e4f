// Package imageio converts between encoded image files and [digicam.Buffer].
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxBytes is the default limit on encoded input size.
const DefaultMaxBytes = 5 * humanize.MByte

// supported lists the MIME types the registered decoders handle.
var supported = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// Decoder decodes and validates encoded images.
type Decoder struct {
	MaxBytes  uint64 // Encoded size limit. Zero means no limit.
	MaxPixels int64  // Decoded pixel count limit. Zero means no limit.
}

// Detect returns the MIME type of data and whether it can be decoded.
func Detect(data []byte) (mime string, ok bool) {
	mt := mimetype.Detect(data)
	for _, s := range supported {
		if mt.Is(s) {
			return s, true
		}
	}
	return mt.String(), false
}

// Decode validates data against the limits and decodes it into a buffer.
// Failures wrap [digicam.ErrImageTooLarge] or [digicam.ErrUnsupportedImage].
func (d Decoder) Decode(data []byte) (*digicam.Buffer, error) {
	size := uint64(len(data))
	if d.MaxBytes > 0 && size > d.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %s limit", digicam.ErrImageTooLarge,
			humanize.Bytes(size), humanize.Bytes(d.MaxBytes))
	}
	mime, ok := Detect(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", digicam.ErrUnsupportedImage, mime)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %v", digicam.ErrUnsupportedImage, mime, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has empty dimensions", digicam.ErrUnsupportedImage, mime)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); d.MaxPixels > 0 && px > d.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d is %s pixels, limit is %s", digicam.ErrImageTooLarge,
			cfg.Width, cfg.Height, humanize.Comma(px), humanize.Comma(d.MaxPixels))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", digicam.ErrUnsupportedImage, mime, err)
	}
	buf, err := digicam.BufferFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", digicam.ErrImageTooLarge, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Decoder.Decode",
		"mime":     mime,
		"size":     humanize.Bytes(size),
		"width":    buf.Width,
		"height":   buf.Height,
	}).Debug("Image decoded")
	return buf, nil
}

// Format is an export encoding.
type Format uint8

const (
	FormatPNG Format = iota
	FormatJPEG
)

// DefaultJPEGQuality is used when Encode is given a quality outside 1-100.
const DefaultJPEGQuality = 92

var errUnknownFormat = errors.New("unknown export format")

// ParseFormat parses "png", "jpeg" or "jpg", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return 0, fmt.Errorf("%w %q", errUnknownFormat, s)
}

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	}
	return "Format(" + fmt.Sprint(uint8(f)) + ")"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// Encode writes buf in format f. JPEG drops alpha; quality applies to JPEG only.
func Encode(w io.Writer, buf *digicam.Buffer, f Format, quality int) error {
	img := buf.NRGBA()
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
	return fmt.Errorf("%w %v", errUnknownFormat, f)
}

var (
	invalidCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\s]`)
	multiDash      = regexp.MustCompile(`[-_]{2,}`)
)

// ExportName returns a timestamped file name such as "digicam-20261019-150405.png".
// prefix is reduced to filename-safe characters; an empty result becomes "digicam".
func ExportName(prefix string, f Format, t time.Time) string {
	s := invalidCharsRe.ReplaceAllString(strings.TrimSpace(prefix), "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if len(s) > 64 {
		s = strings.TrimRight(s[:64], "-.")
	}
	if s == "" {
		s = "digicam"
	}
	return s + "-" + t.Format("20060102-150405") + f.Ext()
}
