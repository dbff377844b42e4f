package preset

import "github.com/soypat/digicam"

// NameNormal is the preset restoring identity parameters.
const NameNormal = "Normal"

type (
	fs = map[digicam.Field]float64
	fx = digicam.EffectSettings
)

func shift(r, g, b int) *digicam.RGBShift { return &digicam.RGBShift{R: r, G: g, B: b} }

// builtin filter overrides list only the fields a preset changes, so applying
// one keeps the user's other filter values. Normal lists every field to reset them.
var builtin = []Preset{
	{
		Name:  NameNormal,
		Style: StyleNormal,
		Filters: fs{
			digicam.FieldBrightness: 100, digicam.FieldContrast: 100, digicam.FieldSaturation: 100,
			digicam.FieldHue: 0, digicam.FieldBlur: 0, digicam.FieldGrayscale: 0,
			digicam.FieldSepia: 0, digicam.FieldInvert: 0,
		},
		Shift: shift(0, 0, 0),
	},
	{
		Name:    "Digicam",
		Style:   StyleY2K,
		Filters: fs{digicam.FieldBrightness: 105, digicam.FieldContrast: 110, digicam.FieldSaturation: 85, digicam.FieldSepia: 10},
		Shift:   shift(5, 0, -5),
		Effects: fx{Grain: 30, Vignette: 40, RGBSplit: 10},
	},
	{
		Name:    "Y2K Aesthetic",
		Style:   StyleY2K,
		Filters: fs{digicam.FieldBrightness: 115, digicam.FieldContrast: 120, digicam.FieldSaturation: 130, digicam.FieldHue: 10},
		Shift:   shift(10, -5, 10),
		Effects: fx{Grain: 15, RGBSplit: 25},
	},
	{
		Name:    "Goth Dark",
		Style:   StyleGoth,
		Filters: fs{digicam.FieldBrightness: 70, digicam.FieldContrast: 140, digicam.FieldSaturation: 40, digicam.FieldGrayscale: 30},
		Shift:   shift(-10, -10, 5),
		Effects: fx{Grain: 50, Vignette: 80},
	},
	{
		Name:  "Goth Noir",
		Style: StyleGoth,
		Filters: fs{
			digicam.FieldBrightness: 60, digicam.FieldContrast: 150, digicam.FieldSaturation: 0,
			digicam.FieldBlur: 1, digicam.FieldGrayscale: 100,
		},
		Shift:   shift(0, 0, 0),
		Effects: fx{Grain: 60, Vignette: 90},
	},
	{
		Name:    "Emo Purple",
		Style:   StyleEmo,
		Filters: fs{digicam.FieldBrightness: 90, digicam.FieldContrast: 110, digicam.FieldSaturation: 120, digicam.FieldHue: 45},
		Shift:   shift(20, -10, 30),
		Effects: fx{Grain: 35, Vignette: 50, RGBSplit: 15},
	},
	{
		Name:  "Emo Red",
		Style: StyleEmo,
		Filters: fs{
			digicam.FieldBrightness: 85, digicam.FieldContrast: 130, digicam.FieldSaturation: 90,
			digicam.FieldHue: 180, digicam.FieldGrayscale: 10, digicam.FieldSepia: 30,
		},
		Shift:   shift(30, -20, -20),
		Effects: fx{Grain: 40, Vignette: 60, RGBSplit: 20},
	},
	{
		Name:  "Glitch Core",
		Style: StyleY2K,
		Filters: fs{
			digicam.FieldContrast: 125, digicam.FieldSaturation: 150,
			digicam.FieldHue: 5, digicam.FieldInvert: 5,
		},
		Shift:   shift(15, 0, -15),
		Effects: fx{Grain: 20, RGBSplit: 50, Pixelate: 2},
	},
	{
		Name:    "Pixel Dreams",
		Style:   StyleY2K,
		Filters: fs{digicam.FieldBrightness: 110, digicam.FieldContrast: 105, digicam.FieldSaturation: 110},
		Shift:   shift(0, 0, 0),
		Effects: fx{Grain: 10, Vignette: 20, Pixelate: 8},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(builtin...)
	if err != nil {
		panic(err)
	}
	return c
}
