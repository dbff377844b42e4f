package digicam

import (
	"errors"
	"fmt"
)

// ErrInput is matched by every caller error. Input errors never mutate state.
var ErrInput = errors.New("invalid input")

var (
	ErrUnsupportedImage = fmt.Errorf("%w: unsupported image", ErrInput)
	ErrImageTooLarge    = fmt.Errorf("%w: image too large", ErrInput)
	ErrUnknownPreset    = fmt.Errorf("%w: unknown preset", ErrInput)
	ErrStickerNotFound  = fmt.Errorf("%w: sticker not found", ErrInput)
	ErrUnknownGlyph     = fmt.Errorf("%w: unknown glyph", ErrInput)
	ErrNoImage          = fmt.Errorf("%w: no image loaded", ErrInput)
)

// ErrRender is matched by every [RenderError].
var ErrRender = errors.New("render failed")

// RenderError reports a failed pipeline run. The run's output is discarded and
// the previously rendered output stays current.
type RenderError struct {
	Seq uint64 // Run sequence number.
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render run %d: %v", e.Seq, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }
