package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/soypat/digicam"
	"github.com/soypat/digicam/interact"
	"github.com/soypat/digicam/pipeline"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	buf *digicam.Buffer
	err error
}

func (d stubDecoder) Decode([]byte) (*digicam.Buffer, error) { return d.buf, d.err }

func gradient(t *testing.T, w, h int) *digicam.Buffer {
	t.Helper()
	buf, err := digicam.NewBuffer(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := buf.Offset(x, y)
			buf.Pix[o] = uint8(x * 255 / max(1, w-1))
			buf.Pix[o+1] = uint8(y * 255 / max(1, h-1))
			buf.Pix[o+2] = 128
			buf.Pix[o+3] = 255
		}
	}
	return buf
}

func newSession(t *testing.T) *Session {
	t.Helper()
	glyphs, err := sticker.NewRenderer(nil, nil, 0)
	require.NoError(t, err)
	s := New(Options{Runner: &pipeline.Runner{Glyphs: glyphs, Seed: 7}})
	s.SetSource(gradient(t, 64, 48))
	return s
}

func TestResetScenario(t *testing.T) {
	s := newSession(t)
	for _, g := range []string{"heart", "sun", "note"} {
		_, err := s.AddSticker(g)
		require.NoError(t, err)
	}
	s.SetField(digicam.FieldSepia, 60)
	s.SetField(digicam.FieldShiftR, 12)
	s.SetField(digicam.FieldGrain, 30)
	require.NoError(t, s.ApplyPreset("Goth Dark"))
	_, ok := s.PointerDown(sticker.DefaultLimits().Spawn)
	require.True(t, ok)

	s.Reset()
	p := s.Parameters()
	assert.Equal(t, digicam.DefaultFilters(), p.Filters)
	assert.Equal(t, digicam.RGBShift{}, p.Shift)
	assert.Equal(t, digicam.EffectSettings{}, p.Effects)
	assert.Empty(t, s.Stickers())
	assert.Equal(t, "Normal", s.Preset())
	assert.Equal(t, interact.StateIdle, s.InteractionState())
	assert.True(t, s.HasImage())
}

func TestApplyPreset(t *testing.T) {
	s := newSession(t)
	s.SetField(digicam.FieldGrayscale, 50)
	st, err := s.AddSticker("heart")
	require.NoError(t, err)

	require.NoError(t, s.ApplyPreset("Digicam"))
	p := s.Parameters()
	assert.Equal(t, 50.0, p.Filters.Grayscale)
	assert.Equal(t, 105.0, p.Filters.Brightness)
	assert.Equal(t, "Digicam", s.Preset())
	require.Len(t, s.Stickers(), 1)
	assert.Equal(t, st.ID, s.Stickers()[0].ID)

	rev := s.Revision()
	err = s.ApplyPreset("nope")
	require.ErrorIs(t, err, digicam.ErrUnknownPreset)
	assert.Equal(t, "Digicam", s.Preset())
	assert.Equal(t, rev, s.Revision())
	assert.Equal(t, p, s.Parameters())
}

func TestSetFieldClamps(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, 200.0, s.SetField(digicam.FieldBrightness, 1e6))
	assert.Equal(t, 0.0, s.SetField(digicam.FieldSepia, -4))
}

func TestControlsEditSession(t *testing.T) {
	s := newSession(t)
	s.SetField(digicam.FieldSepia, 30)
	_, err := s.Render(context.Background())
	require.NoError(t, err)

	ctrls := s.Controls()
	require.Len(t, ctrls, len(digicam.Fields()))
	byName := map[string]digicam.Control{}
	for _, c := range ctrls {
		name, _ := c.Describe()
		byName[name] = c
	}
	assert.Equal(t, 30.0, byName["sepia"].ActualValue())

	rev := s.Revision()
	require.NoError(t, byName["hue"].ChangeValue(370.0))
	assert.InDelta(t, 10, byName["hue"].ActualValue(), 1e-9)
	assert.InDelta(t, 10, s.Parameters().Filters.Hue, 1e-9)
	assert.Greater(t, s.Revision(), rev)
	assert.True(t, s.Dirty())

	require.NoError(t, byName["shift-r"].ChangeValue(12.6))
	assert.Equal(t, 13.0, byName["shift-r"].ActualValue())
	assert.Equal(t, 13, s.Parameters().Shift.R)
	require.Error(t, byName["blur"].ChangeValue("lots"))
}

func TestCancelledRenderStaysDirty(t *testing.T) {
	s := newSession(t)
	before, err := s.Render(context.Background())
	require.NoError(t, err)

	s.SetField(digicam.FieldInvert, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := s.Render(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Same(t, before, out)
	assert.True(t, s.Dirty())

	out, err = s.Render(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Dirty())
	assert.NotSame(t, before, out)
	assert.Equal(t, 255-before.Pix[0], out.Pix[0])
}

func TestSelectAndUpdateSticker(t *testing.T) {
	s := newSession(t)
	a, err := s.AddSticker("heart")
	require.NoError(t, err)
	_, err = s.Render(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.SelectSticker(a.ID))
	assert.Equal(t, interact.StateSelected, s.InteractionState())
	assert.False(t, s.Dirty(), "selection alone does not change pixels")
	s.Deselect()
	assert.Equal(t, interact.StateIdle, s.InteractionState())
	require.ErrorIs(t, s.SelectSticker(uuid.New()), digicam.ErrStickerNotFound)

	want := a
	want.Pos = ms2.Vec{X: 5, Y: 6}
	want.Scale = 99
	want.Rotation = 400
	want.Glyph = "sun"
	got, err := s.UpdateSticker(want)
	require.NoError(t, err)
	assert.Equal(t, "heart", got.Glyph)
	assert.Equal(t, ms2.Vec{X: 5, Y: 6}, got.Pos)
	assert.Equal(t, sticker.DefaultLimits().MaxScale, got.Scale)
	assert.EqualValues(t, 400, got.Rotation)
	assert.True(t, s.Dirty())

	want.ID = uuid.New()
	_, err = s.UpdateSticker(want)
	require.ErrorIs(t, err, digicam.ErrStickerNotFound)
}

func TestLoadImage(t *testing.T) {
	s := newSession(t)
	before := s.Revision()
	err := s.LoadImage(stubDecoder{err: digicam.ErrUnsupportedImage}, []byte("junk"))
	require.ErrorIs(t, err, digicam.ErrUnsupportedImage)
	assert.Equal(t, before, s.Revision())

	img := gradient(t, 10, 10)
	require.NoError(t, s.LoadImage(stubDecoder{buf: img}, nil))
	assert.Greater(t, s.Revision(), before)
	out, err := s.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestRenderOnDemand(t *testing.T) {
	s := newSession(t)
	require.True(t, s.Dirty())
	out, err := s.Render(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.False(t, s.Dirty())

	again, err := s.Render(context.Background())
	require.NoError(t, err)
	assert.Same(t, out, again, "clean session must not re-render")

	s.SetField(digicam.FieldInvert, 100)
	assert.True(t, s.Dirty())
	inverted, err := s.Render(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, out, inverted)
	assert.Equal(t, 255-out.Pix[0], inverted.Pix[0])
}

func TestRenderFailureKeepsOutput(t *testing.T) {
	s := New(Options{}) // No glyph renderer.
	_, err := s.Render(context.Background())
	require.ErrorIs(t, err, digicam.ErrRender)
	require.ErrorIs(t, err, digicam.ErrNoImage)

	s.SetSource(gradient(t, 16, 16))
	good, err := s.Render(context.Background())
	require.NoError(t, err)

	_, err = s.AddSticker("heart")
	require.NoError(t, err)
	out, err := s.Render(context.Background())
	var rerr *digicam.RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, s.Revision(), rerr.Seq)
	assert.Same(t, good, out)
	assert.Same(t, good, s.Output())

	// Reported once.
	out, err = s.Render(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, out)
}

func TestStickerCommands(t *testing.T) {
	s := newSession(t)
	a, err := s.AddSticker("heart")
	require.NoError(t, err)
	b, err := s.AddSticker("club")
	require.NoError(t, err)
	_, err = s.AddSticker("unicorn")
	require.ErrorIs(t, err, digicam.ErrUnknownGlyph)

	require.NoError(t, s.MoveSticker(a.ID, ms2.Vec{X: 10, Y: 10}))
	got, err := s.RescaleSticker(a.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Scale)
	got, err = s.RotateSticker(b.ID, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 90, got.Rotation)

	_, ok := s.PointerDown(ms2.Vec{X: 12, Y: 9})
	require.True(t, ok)
	s.PointerUp()
	got, err = s.RotateSelected(-30)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	_, err = s.RescaleSelected(-0.5)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSticker(a.ID))
	_, ok = s.Selected()
	assert.False(t, ok)
	require.ErrorIs(t, s.RemoveSticker(a.ID), digicam.ErrStickerNotFound)
	require.ErrorIs(t, s.MoveSticker(a.ID, ms2.Vec{}), digicam.ErrStickerNotFound)
	require.ErrorIs(t, s.DeleteSelected(), digicam.ErrStickerNotFound)

	_, ok = s.PointerDown(sticker.DefaultLimits().Spawn)
	require.True(t, ok)
	require.NoError(t, s.DeleteSelected())
	assert.Empty(t, s.Stickers())
	assert.Len(t, s.Glyphs(), len(sticker.DefaultGlyphs))
}

func TestDragMarksDirty(t *testing.T) {
	s := newSession(t)
	st, err := s.AddSticker("sun")
	require.NoError(t, err)
	_, err = s.Render(context.Background())
	require.NoError(t, err)

	_, ok := s.PointerDown(st.Pos)
	require.True(t, ok)
	assert.False(t, s.Dirty(), "selection alone does not change pixels")
	s.PointerMove(ms2.Vec{X: 20, Y: 20})
	assert.True(t, s.Dirty())
	s.PointerUp()
	require.Equal(t, ms2.Vec{X: 20, Y: 20}, s.Stickers()[0].Pos)
}

func TestSchedulerRendersLatest(t *testing.T) {
	s := newSession(t)
	var mu sync.Mutex
	var frames []Frame
	sc := NewScheduler(s, func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	for i := 0; i <= 100; i += 10 {
		s.SetField(digicam.FieldBrightness, float64(i))
	}
	want := s.Revision()
	require.Eventually(t, func() bool {
		return sc.Latest().Revision == want
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].Seq, frames[i-1].Seq)
		assert.GreaterOrEqual(t, frames[i].Revision, frames[i-1].Revision)
	}
	mu.Unlock()
	assert.NotNil(t, sc.Latest().Buffer)
	assert.Equal(t, 100.0, s.Parameters().Filters.Brightness)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSchedulerReportsErrors(t *testing.T) {
	s := New(Options{})
	s.SetSource(gradient(t, 8, 8))
	errs := make(chan error, 4)
	sc := NewScheduler(s, nil, func(err error) { errs <- err })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sc.Run(ctx)

	_, err := s.AddSticker("heart")
	require.NoError(t, err)
	select {
	case err := <-errs:
		require.ErrorIs(t, err, digicam.ErrRender)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
	assert.Nil(t, sc.Latest().Buffer)
}

func TestSchedulerDiscardsStale(t *testing.T) {
	sc := NewScheduler(New(Options{}), nil, nil)
	newer := Frame{Seq: 5, Revision: 9, Buffer: &digicam.Buffer{}}
	require.True(t, sc.publish(newer))
	assert.False(t, sc.publish(Frame{Seq: 4, Revision: 10}))
	assert.False(t, sc.publish(Frame{Seq: 6, Revision: 8}))
	assert.Same(t, newer.Buffer, sc.Latest().Buffer)
	assert.True(t, sc.publish(Frame{Seq: 6, Revision: 9}))
}

func TestSchedulerKickCoalesces(t *testing.T) {
	sc := NewScheduler(New(Options{}), nil, nil)
	for range 10 {
		sc.Kick()
	}
	assert.Len(t, sc.kick, 1)
}
