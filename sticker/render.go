package sticker

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/chewxy/math32"
	"github.com/soypat/digicam"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// DefaultGlyphSize is the font size in pixels glyph tiles are rasterized at.
const DefaultGlyphSize = 48

// tilePad leaves room for bilinear sampling at tile edges.
const tilePad = 2

var errEmptyGlyph = errors.New("glyph has no visible outline")

// Renderer rasterizes glyphs once into tiles and composites them over a
// buffer with each sticker's affine transform. It is safe for concurrent use.
type Renderer struct {
	font   *opentype.Font
	size   float64
	glyphs map[string]Glyph

	mu    sync.Mutex
	tiles map[string]*image.RGBA
}

// NewRenderer creates a renderer for the given glyphs. A nil ttf uses the
// bundled Go Regular font and a non-positive size uses [DefaultGlyphSize].
func NewRenderer(glyphs []Glyph, ttf []byte, size float64) (*Renderer, error) {
	if glyphs == nil {
		glyphs = DefaultGlyphs
	}
	if ttf == nil {
		ttf = goregular.TTF
	}
	if !(size > 0) {
		size = DefaultGlyphSize
	}
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing glyph font: %w", err)
	}
	r := &Renderer{
		font:   fnt,
		size:   size,
		glyphs: make(map[string]Glyph, len(glyphs)),
		tiles:  make(map[string]*image.RGBA),
	}
	for _, g := range glyphs {
		r.glyphs[g.Name] = g
	}
	return r, nil
}

// Tile returns the rasterized glyph, rendering it on first use.
func (r *Renderer) Tile(name string) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tile, ok := r.tiles[name]; ok {
		return tile, nil
	}
	g, ok := r.glyphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", digicam.ErrUnknownGlyph, name)
	}
	tile, err := r.rasterize(g)
	if err != nil {
		return nil, fmt.Errorf("glyph %q: %w", name, err)
	}
	r.tiles[name] = tile
	return tile, nil
}

func (r *Renderer) rasterize(g Glyph) (*image.RGBA, error) {
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()
	bounds, _ := font.BoundString(face, g.Text)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if w <= 0 || h <= 0 {
		return nil, errEmptyGlyph
	}
	tile := image.NewRGBA(image.Rect(0, 0, w+2*tilePad, h+2*tilePad))
	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(g.Color),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(tilePad) - bounds.Min.X,
			Y: fixed.I(tilePad) - bounds.Min.Y,
		},
	}
	d.DrawString(g.Text)
	return tile, nil
}

// Transform returns the source to destination matrix that centers a tile of
// the given size on the sticker position, then scales and rotates it about that point.
func Transform(s Sticker, tileW, tileH int) f64.Aff3 {
	sin, cos := math32.Sincos(s.Rotation * math32.Pi / 180)
	sc := float64(s.Scale)
	a, b := float64(cos)*sc, -float64(sin)*sc
	d, e := float64(sin)*sc, float64(cos)*sc
	hx, hy := float64(tileW)/2, float64(tileH)/2
	px, py := float64(s.Pos.X), float64(s.Pos.Y)
	return f64.Aff3{
		a, b, px - a*hx - b*hy,
		d, e, py - d*hx - e*hy,
	}
}

// Draw composites stickers over buf in slice order.
func (r *Renderer) Draw(buf *digicam.Buffer, stickers []Sticker) error {
	if len(stickers) == 0 {
		return nil
	}
	dst := buf.NRGBA()
	for _, s := range stickers {
		tile, err := r.Tile(s.Glyph)
		if err != nil {
			return err
		}
		if !(s.Scale > 0) {
			continue
		}
		tb := tile.Bounds()
		draw.BiLinear.Transform(dst, Transform(s, tb.Dx(), tb.Dy()), tile, tb, draw.Over, nil)
	}
	return nil
}
