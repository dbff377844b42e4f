package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soypat/digicam"
	"github.com/soypat/digicam/config"
	"github.com/soypat/digicam/imageio"
	"github.com/soypat/geometry/ms2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSet(t *testing.T) {
	name, v, err := parseSet("sepia = 40.5")
	require.NoError(t, err)
	assert.Equal(t, "sepia", name)
	assert.Equal(t, 40.5, v)

	_, _, err = parseSet("sepia")
	require.ErrorIs(t, err, digicam.ErrInput)
	_, _, err = parseSet("sepia=lots")
	require.ErrorIs(t, err, digicam.ErrInput)
}

func TestParseSticker(t *testing.T) {
	s, err := parseSticker("heart@10,20")
	require.NoError(t, err)
	assert.Equal(t, "heart", s.Glyph)
	assert.Equal(t, ms2.Vec{X: 10, Y: 20}, s.Pos)
	assert.EqualValues(t, 1, s.Scale)
	assert.Zero(t, s.Rotation)

	s, err = parseSticker("sun@1.5, 2,3,-45")
	require.NoError(t, err)
	assert.EqualValues(t, 3, s.Scale)
	assert.EqualValues(t, -45, s.Rotation)

	for _, bad := range []string{"heart", "@1,2", "heart@1", "heart@1,2,3,4,5", "heart@x,2"} {
		_, err := parseSticker(bad)
		require.ErrorIs(t, err, digicam.ErrInput, bad)
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	p, f := outputPath("", imageio.FormatPNG, now)
	assert.Equal(t, "digicam-20261019-150405.png", p)
	assert.Equal(t, imageio.FormatPNG, f)

	dir := t.TempDir()
	p, f = outputPath(dir, imageio.FormatJPEG, now)
	assert.Equal(t, filepath.Join(dir, "digicam-20261019-150405.jpg"), p)
	assert.Equal(t, imageio.FormatJPEG, f)

	p, f = outputPath("out.jpeg", imageio.FormatPNG, now)
	assert.Equal(t, "out.jpeg", p)
	assert.Equal(t, imageio.FormatJPEG, f)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	var cli cliConfig
	fs := newFlagSet(&cli)
	require.NoError(t, fs.Parse(args))
	var stdout bytes.Buffer
	err := run(context.Background(), fs, &cli, strings.NewReader(""), &stdout)
	return stdout.String(), err
}

func TestRunListings(t *testing.T) {
	out, err := runCLI(t, "--list-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "Goth Noir")
	assert.Contains(t, out, "y2k")

	out, err = runCLI(t, "--list-controls")
	require.NoError(t, err)
	assert.Contains(t, out, "rgb-split")
	assert.Contains(t, out, "brightness")

	out, err = runCLI(t, "--list-glyphs")
	require.NoError(t, err)
	assert.Contains(t, out, "heart")
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	src, err := digicam.NewBuffer(64, 64)
	require.NoError(t, err)
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	in := filepath.Join(dir, "in.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, imageio.Encode(f, src, imageio.FormatPNG, 0))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out.png")
	_, err = runCLI(t, "--in", in, "--out", out, "--preset", "digicam",
		"--set", "blur=1", "--sticker", "heart@32,32,1.5,30", "--seed", "3")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got, err := imageio.Decoder{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 64, got.Width)
	assert.NotEqual(t, src.Pix, got.Pix)
}

func TestRunErrors(t *testing.T) {
	_, err := runCLI(t)
	require.Error(t, err)

	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o600))
	_, err = runCLI(t, "--in", junk)
	require.ErrorIs(t, err, digicam.ErrUnsupportedImage)

	_, err = runCLI(t, "--in", junk, "--max-size", "4B")
	require.ErrorIs(t, err, digicam.ErrImageTooLarge)
}

func TestEditThroughControls(t *testing.T) {
	s, err := newSession(&config.Config{GlyphSize: 48, ScaleMin: 0.1, ScaleMax: 5})
	require.NoError(t, err)
	cli := &cliConfig{
		preset:   "digicam",
		sets:     []string{"sepia=40", "brightness=900", "hue=-10"},
		stickers: []string{"heart@10,20,9,30"},
	}
	require.NoError(t, edit(s, cli))
	p := s.Parameters()
	assert.Equal(t, 40.0, p.Filters.Sepia)
	assert.Equal(t, 200.0, p.Filters.Brightness)
	assert.Equal(t, 350.0, p.Filters.Hue)
	assert.Equal(t, "Digicam", s.Preset())

	st := s.Stickers()
	require.Len(t, st, 1)
	assert.Equal(t, ms2.Vec{X: 10, Y: 20}, st[0].Pos)
	assert.EqualValues(t, 5, st[0].Scale)
	assert.EqualValues(t, 30, st[0].Rotation)

	err = edit(s, &cliConfig{sets: []string{"sharpness=3"}})
	require.ErrorIs(t, err, digicam.ErrInput)

	var out bytes.Buffer
	require.NoError(t, listControls(&out, s.Controls()))
	assert.Contains(t, out.String(), "sepia")
	assert.Contains(t, out.String(), "360")
}
