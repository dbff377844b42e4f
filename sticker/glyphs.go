package sticker

import "image/color"

// Glyph is a decorative symbol that can be placed as a sticker.
type Glyph struct {
	Name  string
	Text  string // Rendered string, usually a single symbol.
	Color color.NRGBA
}

// DefaultGlyphs are renderable with the bundled Go Regular font.
var DefaultGlyphs = []Glyph{
	{Name: "heart", Text: "♥", Color: color.NRGBA{R: 255, G: 64, B: 160, A: 255}},
	{Name: "smiley", Text: "☺", Color: color.NRGBA{R: 255, G: 220, B: 40, A: 255}},
	{Name: "note", Text: "♫", Color: color.NRGBA{R: 120, G: 220, B: 255, A: 255}},
	{Name: "sun", Text: "☼", Color: color.NRGBA{R: 255, G: 170, B: 30, A: 255}},
	{Name: "spade", Text: "♠", Color: color.NRGBA{R: 20, G: 20, B: 20, A: 255}},
	{Name: "club", Text: "♣", Color: color.NRGBA{R: 160, G: 80, B: 255, A: 255}},
	{Name: "diamond", Text: "♦", Color: color.NRGBA{R: 0, G: 240, B: 255, A: 255}},
	{Name: "female", Text: "♀", Color: color.NRGBA{R: 255, G: 105, B: 180, A: 255}},
	{Name: "arrow", Text: "►", Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	{Name: "infinity", Text: "∞", Color: color.NRGBA{R: 200, G: 0, B: 60, A: 255}},
}
