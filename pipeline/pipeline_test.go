package pipeline

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/soypat/digicam"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noise(t *testing.T, seed uint64, w, h int) *digicam.Buffer {
	t.Helper()
	buf, err := digicam.NewBuffer(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range buf.Pix {
		buf.Pix[i] = uint8(rng.UintN(256))
	}
	return buf
}

func stageNames(p digicam.ParameterSet) []string {
	var names []string
	for _, st := range Stages(p, nil) {
		names = append(names, st.Name)
	}
	return names
}

func TestStagesOrder(t *testing.T) {
	assert.Empty(t, stageNames(digicam.DefaultParameters()))

	p := digicam.DefaultParameters()
	p.Set(digicam.FieldPixelate, 3)
	p.Set(digicam.FieldSepia, 20)
	p.Set(digicam.FieldBlur, 2)
	p.Set(digicam.FieldVignette, 50)
	p.Set(digicam.FieldRGBSplit, 10)
	assert.Equal(t, []string{"pixelate", "color", "blur", "vignette", "split"}, stageNames(p))

	// Grain and shift alone need the color stage; a split below 2 px is a no-op.
	p = digicam.DefaultParameters()
	p.Set(digicam.FieldGrain, 5)
	p.Set(digicam.FieldRGBSplit, 1)
	assert.Equal(t, []string{"color"}, stageNames(p))
	p = digicam.DefaultParameters()
	p.Set(digicam.FieldShiftB, -3)
	assert.Equal(t, []string{"color"}, stageNames(p))
}

func TestRunIdentity(t *testing.T) {
	src := noise(t, 1, 33, 17)
	orig := src.Clone()
	var r Runner
	out, err := r.Run(context.Background(), src, digicam.DefaultParameters(), nil)
	require.NoError(t, err)
	assert.Equal(t, orig.Pix, out.Pix)
	out.Pix[0]++
	assert.Equal(t, orig.Pix, src.Pix, "output must not alias source")
}

func fullParams() digicam.ParameterSet {
	p := digicam.DefaultParameters()
	p.Set(digicam.FieldBrightness, 120)
	p.Set(digicam.FieldContrast, 130)
	p.Set(digicam.FieldHue, 40)
	p.Set(digicam.FieldBlur, 1)
	p.Set(digicam.FieldGrain, 40)
	p.Set(digicam.FieldVignette, 60)
	p.Set(digicam.FieldRGBSplit, 8)
	p.Set(digicam.FieldPixelate, 2)
	return p
}

func TestRunDeterministicWithSeed(t *testing.T) {
	src := noise(t, 2, 40, 30)
	orig := src.Clone()
	r := Runner{Seed: 99}
	a, err := r.Run(context.Background(), src, fullParams(), nil)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), src, fullParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, orig.Pix, a.Pix)
	assert.Equal(t, orig.Pix, src.Pix)
}

func TestRunDegenerateParameters(t *testing.T) {
	src := noise(t, 3, 8, 8)
	r := Runner{Seed: 1}
	p := digicam.ParameterSet{
		Filters: digicam.FilterSettings{Brightness: -50, Contrast: 1e9, Saturation: -1, Hue: -725, Blur: 500, Sepia: 300},
		Shift:   digicam.RGBShift{R: 9000, G: -9000},
		Effects: digicam.EffectSettings{Grain: 1e6, Vignette: 500, RGBSplit: 1e4, Pixelate: 1e3},
	}
	out, err := r.Run(context.Background(), src, p, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Width, out.Width)
	assert.Equal(t, src.Height, out.Height)
	assert.Len(t, out.Pix, len(src.Pix))
}

func TestRunOneByOne(t *testing.T) {
	src := noise(t, 4, 1, 1)
	r := Runner{Seed: 5}
	out, err := r.Run(context.Background(), src, fullParams(), nil)
	require.NoError(t, err)
	assert.Len(t, out.Pix, 4)
}

func TestRunStickers(t *testing.T) {
	glyphs, err := sticker.NewRenderer(nil, nil, 0)
	require.NoError(t, err)
	src := noise(t, 5, 120, 120)
	stickers := []sticker.Sticker{{Glyph: "heart", Pos: ms2.Vec{X: 60, Y: 60}, Scale: 1}}

	var bare Runner
	_, err = bare.Run(context.Background(), src, digicam.DefaultParameters(), stickers)
	require.Error(t, err)

	r := Runner{Glyphs: glyphs}
	out, err := r.Run(context.Background(), src, digicam.DefaultParameters(), stickers)
	require.NoError(t, err)
	assert.NotEqual(t, src.Pix, out.Pix)
	// Corners are far from the sticker and keep the source pixels.
	o := out.Offset(0, 0)
	assert.Equal(t, src.Pix[o:o+4], out.Pix[o:o+4])

	stickers[0].Glyph = "unicorn"
	_, err = r.Run(context.Background(), src, digicam.DefaultParameters(), stickers)
	require.ErrorIs(t, err, digicam.ErrUnknownGlyph)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var r Runner
	_, err := r.Run(ctx, noise(t, 6, 4, 4), fullParams(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunNoImage(t *testing.T) {
	var r Runner
	_, err := r.Run(context.Background(), nil, digicam.DefaultParameters(), nil)
	require.ErrorIs(t, err, digicam.ErrNoImage)
}

type grayOnly struct{ digicam.Filter }

func (grayOnly) ShapeIO() (output, input digicam.Shape) { return 0, 0 }

func TestStageShapeAndFields(t *testing.T) {
	p := digicam.DefaultParameters()
	p.Set(digicam.FieldBlur, 2)
	p.Set(digicam.FieldVignette, 40)
	stages := Stages(p, nil)
	require.Len(t, stages, 2)
	for _, st := range stages {
		require.NoError(t, checkShape(st, digicam.ShapeRGBA8888))
	}
	fields := stageFields(stages[1])
	assert.Equal(t, "vignette", fields["stage"])
	assert.Equal(t, 40.0, fields["vignette"])

	err := checkShape(Stage{Name: "gray", Filter: grayOnly{stages[0].Filter}}, digicam.ShapeRGBA8888)
	require.ErrorContains(t, err, "gray stage")
}
