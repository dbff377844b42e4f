// Package editor ties the parameter set, sticker overlay, interaction
// controller and preset catalog into one editing session whose output is
// re-rendered on demand after every change.
package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	"github.com/soypat/digicam/interact"
	"github.com/soypat/digicam/pipeline"
	"github.com/soypat/digicam/preset"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
)

// Decoder turns encoded image bytes into a buffer.
type Decoder interface {
	Decode(data []byte) (*digicam.Buffer, error)
}

// Options configure a [Session]. Zero fields take defaults.
type Options struct {
	Runner    *pipeline.Runner
	Presets   *preset.Catalog
	Glyphs    []sticker.Glyph
	Limits    sticker.Limits
	HitRadius float32
}

// Session is the editing state of one image. All methods are safe for
// concurrent use. Every mutation bumps the revision which marks the
// rendered output stale.
type Session struct {
	runner  *pipeline.Runner
	presets *preset.Catalog

	mu       sync.Mutex
	source   *digicam.Buffer
	params   digicam.ParameterSet
	overlay  *sticker.Overlay
	ctrl     *interact.Controller
	preset   string
	revision uint64
	notify   func()

	output      *digicam.Buffer
	outputRev   uint64
	renderedRev uint64 // Last revision a render was attempted for, successful or not.
}

// New creates a session with default parameters and no image.
func New(opts Options) *Session {
	if opts.Runner == nil {
		opts.Runner = &pipeline.Runner{}
	}
	if opts.Presets == nil {
		opts.Presets = preset.Default()
	}
	if opts.Limits == (sticker.Limits{}) {
		opts.Limits = sticker.DefaultLimits()
	}
	overlay := sticker.NewOverlay(opts.Glyphs, opts.Limits)
	return &Session{
		runner:  opts.Runner,
		presets: opts.Presets,
		params:  digicam.DefaultParameters(),
		overlay: overlay,
		ctrl:    interact.NewController(overlay, opts.HitRadius),
		preset:  preset.NameNormal,
	}
}

// Presets returns the catalog used by [Session.ApplyPreset].
func (s *Session) Presets() *preset.Catalog { return s.presets }

// touch must be called with mu held.
func (s *Session) touch() {
	s.revision++
	if s.notify != nil {
		s.notify()
	}
}

func (s *Session) setNotify(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Revision returns the mutation counter.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// SetSource replaces the source image. Parameters and stickers are kept.
func (s *Session) SetSource(buf *digicam.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = buf
	s.touch()
}

// LoadImage decodes data and makes it the source image. On failure the
// session is left untouched.
func (s *Session) LoadImage(dec Decoder, data []byte) error {
	buf, err := dec.Decode(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Session.LoadImage",
			"bytes":    len(data),
			"error":    err.Error(),
		}).Warn("Image rejected")
		return err
	}
	s.SetSource(buf)
	logrus.WithFields(logrus.Fields{
		"function": "Session.LoadImage",
		"width":    buf.Width,
		"height":   buf.Height,
	}).Debug("Image loaded")
	return nil
}

// HasImage reports whether a source image is loaded.
func (s *Session) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// Parameters returns a copy of the current parameters.
func (s *Session) Parameters() digicam.ParameterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetField clamps and stores v, returning the stored value.
func (s *Session) SetField(f digicam.Field, v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	got := s.params.Set(f, v)
	s.touch()
	return got
}

// Controls returns one slider per field holding the current value. Changing a
// control updates the session like [Session.SetField].
func (s *Session) Controls() []digicam.Control {
	params := s.Parameters()
	fields := digicam.Fields()
	ctrls := make([]digicam.Control, len(fields))
	for i, f := range fields {
		ctrls[i] = f.Control(params.Get(f), func(v float64) error {
			s.SetField(f, v)
			return nil
		})
	}
	return ctrls
}

// ApplyPreset merges the named preset into the parameters and records it as selected.
// Stickers are not affected. An unknown name changes nothing.
func (s *Session) ApplyPreset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, err := s.presets.Apply(name, &s.params)
	if err != nil {
		return err
	}
	s.preset = pr.Name
	s.touch()
	return nil
}

// Preset returns the name of the last applied preset.
func (s *Session) Preset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// Reset restores default parameters, removes every sticker and selects the
// Normal preset. The source image is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = digicam.DefaultParameters()
	s.ctrl.Reset()
	s.preset = preset.NameNormal
	s.touch()
}

// AddSticker places a new sticker with the named glyph.
func (s *Session) AddSticker(glyph string) (sticker.Sticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.overlay.Add(glyph)
	if err != nil {
		return st, err
	}
	s.touch()
	return st, nil
}

// RemoveSticker deletes a sticker, clearing the selection if it pointed at it.
func (s *Session) RemoveSticker(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.overlay.Remove(id); err != nil {
		return err
	}
	s.ctrl.Forget(id)
	s.touch()
	return nil
}

// MoveSticker sets a sticker position.
func (s *Session) MoveSticker(id uuid.UUID, pos ms2.Vec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.overlay.Move(id, pos); err != nil {
		return err
	}
	s.touch()
	return nil
}

// UpdateSticker replaces the position, scale and rotation of an existing sticker.
// Scale is clamped to the session limits.
func (s *Session) UpdateSticker(st sticker.Sticker) (sticker.Sticker, error) {
	return s.editSticker(func() (sticker.Sticker, error) {
		if err := s.overlay.Update(st); err != nil {
			return sticker.Sticker{}, err
		}
		return s.overlay.Get(st.ID)
	})
}

// RescaleSticker adds delta to a sticker scale.
func (s *Session) RescaleSticker(id uuid.UUID, delta float32) (sticker.Sticker, error) {
	return s.editSticker(func() (sticker.Sticker, error) { return s.overlay.Rescale(id, delta) })
}

// RotateSticker adds delta degrees to a sticker rotation.
func (s *Session) RotateSticker(id uuid.UUID, delta float32) (sticker.Sticker, error) {
	return s.editSticker(func() (sticker.Sticker, error) { return s.overlay.Rotate(id, delta) })
}

// RescaleSelected adds delta to the selected sticker scale.
func (s *Session) RescaleSelected(delta float32) (sticker.Sticker, error) {
	return s.editSticker(func() (sticker.Sticker, error) { return s.ctrl.Rescale(delta) })
}

// RotateSelected adds delta degrees to the selected sticker rotation.
func (s *Session) RotateSelected(delta float32) (sticker.Sticker, error) {
	return s.editSticker(func() (sticker.Sticker, error) { return s.ctrl.Rotate(delta) })
}

func (s *Session) editSticker(edit func() (sticker.Sticker, error)) (sticker.Sticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := edit()
	if err != nil {
		return st, err
	}
	s.touch()
	return st, nil
}

// DeleteSelected removes the selected sticker.
func (s *Session) DeleteSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.Delete(); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Stickers returns a snapshot of the overlay in paint order.
func (s *Session) Stickers() []sticker.Sticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.Stickers()
}

// Glyphs returns the glyphs accepted by [Session.AddSticker].
func (s *Session) Glyphs() []sticker.Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay.Glyphs()
}

// Selected returns the selected sticker, if any.
func (s *Session) Selected() (sticker.Sticker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Selected()
}

// SelectSticker selects a sticker without dragging it.
// Selection does not change the rendered output.
func (s *Session) SelectSticker(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Select(id)
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Deselect()
}

// InteractionState returns the state of the pointer controller.
func (s *Session) InteractionState() interact.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.State()
}

// PointerDown selects and starts dragging the sticker under p.
func (s *Session) PointerDown(p ms2.Vec) (sticker.Sticker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerDown(p)
}

// PointerMove drags the selected sticker to p.
func (s *Session) PointerMove(p ms2.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl.PointerMove(p) {
		s.touch()
	}
}

// PointerUp ends a drag.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.PointerUp()
}

// snapshot is the immutable input of one render.
type snapshot struct {
	revision uint64
	source   *digicam.Buffer
	params   digicam.ParameterSet
	stickers []sticker.Sticker
}

func (s *Session) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		revision: s.revision,
		source:   s.source,
		params:   s.params,
		stickers: s.overlay.Stickers(),
	}
}

// render runs the pipeline over a snapshot without holding the lock.
func (s *Session) render(ctx context.Context, snap snapshot) (*digicam.Buffer, error) {
	if snap.source == nil {
		return nil, digicam.ErrNoImage
	}
	return s.runner.Run(ctx, snap.source, snap.params, snap.stickers)
}

// publish stores buf as output if rev is newer than the stored output.
func (s *Session) publish(rev uint64, buf *digicam.Buffer, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev < s.renderedRev {
		return false
	}
	s.renderedRev = rev
	if err != nil || rev < s.outputRev {
		return false
	}
	s.output, s.outputRev = buf, rev
	return true
}

// Render brings the output up to date with the current revision and returns it.
// If nothing changed since the last attempt the stored output is returned.
// A failed render keeps the previous output and returns a [*digicam.RenderError];
// the same failure is not reported again until the session changes.
// A cancelled ctx returns its error and leaves the output stale.
func (s *Session) Render(ctx context.Context) (*digicam.Buffer, error) {
	s.mu.Lock()
	if s.renderedRev == s.revision && s.revision != 0 {
		out := s.output
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	snap := s.snapshot()
	buf, err := s.render(ctx, snap)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The revision stays dirty so the next Render retries it.
		return s.Output(), ctxErr
	}
	s.publish(snap.revision, buf, err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Session.Render",
			"revision": snap.revision,
			"error":    err.Error(),
		}).Warn("Render failed, keeping previous output")
		return s.Output(), &digicam.RenderError{Seq: snap.revision, Err: err}
	}
	return s.Output(), nil
}

// Output returns the last successfully rendered buffer, or nil. The buffer
// must not be modified.
func (s *Session) Output() *digicam.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// Dirty reports whether the output is older than the current revision.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderedRev != s.revision
}
