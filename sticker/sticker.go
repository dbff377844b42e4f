// Package sticker implements the sticker overlay: an ordered list of placed
// glyphs with position, scale and rotation, drawn above all pixel effects.
package sticker

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	"github.com/soypat/geometry/ms2"
)

// Sticker is a placed glyph. Pos is in output buffer pixel coordinates.
type Sticker struct {
	ID       uuid.UUID // Version 7: ordered by creation time.
	Glyph    string
	Pos      ms2.Vec
	Scale    float32
	Rotation float32 // Degrees, unbounded.
}

// DisplayRotation returns the rotation wrapped into [0,360).
func (s Sticker) DisplayRotation() float32 {
	r := math32.Mod(s.Rotation, 360)
	if r < 0 {
		r += 360
	}
	return r
}

// Limits bound sticker transforms.
type Limits struct {
	MinScale float32
	MaxScale float32
	Spawn    ms2.Vec // Position of newly added stickers.
}

// DefaultLimits returns the limits used by the editor.
func DefaultLimits() Limits {
	return Limits{MinScale: 0.1, MaxScale: 5, Spawn: ms2.Vec{X: 150, Y: 150}}
}

// Overlay owns all stickers. Slice order is paint order: later stickers are drawn on top.
// Overlay is not safe for concurrent use; readers on other goroutines must use [Overlay.Stickers].
type Overlay struct {
	stickers []Sticker
	glyphs   []Glyph
	limits   Limits
}

// NewOverlay creates an empty overlay accepting the given glyphs.
// A nil glyphs uses [DefaultGlyphs].
func NewOverlay(glyphs []Glyph, lim Limits) *Overlay {
	if glyphs == nil {
		glyphs = DefaultGlyphs
	}
	if !(lim.MinScale > 0) {
		lim.MinScale = DefaultLimits().MinScale
	}
	if lim.MaxScale < lim.MinScale {
		lim.MaxScale = lim.MinScale
	}
	return &Overlay{glyphs: glyphs, limits: lim}
}

// Glyphs returns the glyphs accepted by [Overlay.Add].
func (o *Overlay) Glyphs() []Glyph { return o.glyphs }

// Glyph looks up a glyph by name.
func (o *Overlay) Glyph(name string) (Glyph, bool) {
	for _, g := range o.glyphs {
		if g.Name == name {
			return g, true
		}
	}
	return Glyph{}, false
}

// Limits returns the transform bounds of the overlay.
func (o *Overlay) Limits() Limits { return o.limits }

// Add places a new sticker with the named glyph at the spawn position.
func (o *Overlay) Add(glyph string) (Sticker, error) {
	if _, ok := o.Glyph(glyph); !ok {
		return Sticker{}, fmt.Errorf("%w: %q", digicam.ErrUnknownGlyph, glyph)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Sticker{}, fmt.Errorf("sticker id: %w", err)
	}
	s := Sticker{ID: id, Glyph: glyph, Pos: o.limits.Spawn, Scale: 1}
	o.stickers = append(o.stickers, s)
	logrus.WithFields(logrus.Fields{
		"function": "Overlay.Add",
		"id":       id,
		"glyph":    glyph,
	}).Debug("Sticker added")
	return s, nil
}

func (o *Overlay) index(id uuid.UUID) (int, error) {
	i := slices.IndexFunc(o.stickers, func(s Sticker) bool { return s.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", digicam.ErrStickerNotFound, id)
	}
	return i, nil
}

// Get returns the sticker with the given id.
func (o *Overlay) Get(id uuid.UUID) (Sticker, error) {
	i, err := o.index(id)
	if err != nil {
		return Sticker{}, err
	}
	return o.stickers[i], nil
}

// Remove deletes the sticker with the given id.
func (o *Overlay) Remove(id uuid.UUID) error {
	i, err := o.index(id)
	if err != nil {
		return err
	}
	o.stickers = slices.Delete(o.stickers, i, i+1)
	logrus.WithFields(logrus.Fields{
		"function": "Overlay.Remove",
		"id":       id,
	}).Debug("Sticker removed")
	return nil
}

// Move sets the position of a sticker.
func (o *Overlay) Move(id uuid.UUID, pos ms2.Vec) error {
	i, err := o.index(id)
	if err != nil {
		return err
	}
	o.stickers[i].Pos = pos
	return nil
}

// Rescale adds delta to the sticker scale, clamped to the overlay limits.
func (o *Overlay) Rescale(id uuid.UUID, delta float32) (Sticker, error) {
	i, err := o.index(id)
	if err != nil {
		return Sticker{}, err
	}
	s := &o.stickers[i]
	s.Scale = o.clampScale(s.Scale + delta)
	return *s, nil
}

// Rotate adds delta degrees to the sticker rotation.
func (o *Overlay) Rotate(id uuid.UUID, delta float32) (Sticker, error) {
	i, err := o.index(id)
	if err != nil {
		return Sticker{}, err
	}
	s := &o.stickers[i]
	s.Rotation += delta
	return *s, nil
}

// Update replaces the transform of an existing sticker, clamping its scale.
func (o *Overlay) Update(s Sticker) error {
	i, err := o.index(s.ID)
	if err != nil {
		return err
	}
	s.Glyph = o.stickers[i].Glyph
	s.Scale = o.clampScale(s.Scale)
	o.stickers[i] = s
	return nil
}

func (o *Overlay) clampScale(v float32) float32 {
	if math32.IsNaN(v) {
		return 1
	}
	return max(o.limits.MinScale, min(o.limits.MaxScale, v))
}

// Reset removes all stickers.
func (o *Overlay) Reset() {
	o.stickers = o.stickers[:0]
}

// Len returns the number of stickers.
func (o *Overlay) Len() int { return len(o.stickers) }

// Stickers returns a copy of the stickers in paint order.
func (o *Overlay) Stickers() []Sticker {
	return slices.Clone(o.stickers)
}

// HitTest returns the sticker whose position is strictly closer than radius to p.
// When several qualify the nearest wins; among equally near stickers the
// topmost (last painted) wins.
func (o *Overlay) HitTest(p ms2.Vec, radius float32) (Sticker, bool) {
	best := -1
	var bestDist float32
	for i, s := range o.stickers {
		d := ms2.Norm(ms2.Sub(p, s.Pos))
		if d < radius && (best < 0 || d <= bestDist) {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Sticker{}, false
	}
	return o.stickers[best], true
}
