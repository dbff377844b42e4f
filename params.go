package digicam

import "math"

// FilterSettings are the per-pixel color adjustments.
// Brightness, Contrast and Saturation are percentages where 100 is identity.
// Grayscale, Sepia and Invert are mix percentages where 0 is no effect.
type FilterSettings struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64 // Degrees in [0,360).
	Blur       float64 // Gaussian sigma in pixels.
	Grayscale  float64
	Sepia      float64
	Invert     float64
}

// RGBShift is added to each channel intensity before clamping.
type RGBShift struct {
	R, G, B int
}

// EffectSettings are the whole-buffer effects.
type EffectSettings struct {
	Grain    float64
	Vignette float64
	RGBSplit float64
	Pixelate float64
}

// ParameterSet is the complete set of adjustable values of one pipeline run.
type ParameterSet struct {
	Filters FilterSettings
	Shift   RGBShift
	Effects EffectSettings
}

// DefaultFilters returns identity filter settings.
func DefaultFilters() FilterSettings {
	return FilterSettings{Brightness: 100, Contrast: 100, Saturation: 100}
}

// DefaultParameters returns the parameter set that leaves an image unchanged.
func DefaultParameters() ParameterSet {
	return ParameterSet{Filters: DefaultFilters()}
}

// Field enumerates every adjustable parameter. Each field is updated through
// [ParameterSet.Set] which clamps the value into the field's domain.
type Field uint8

const (
	fieldUndefined Field = iota
	FieldBrightness
	FieldContrast
	FieldSaturation
	FieldHue
	FieldBlur
	FieldGrayscale
	FieldSepia
	FieldInvert
	FieldShiftR
	FieldShiftG
	FieldShiftB
	FieldGrain
	FieldVignette
	FieldRGBSplit
	FieldPixelate
	fieldEnd
)

// Fields returns all adjustable fields in display order.
func Fields() []Field {
	fields := make([]Field, 0, fieldEnd-1)
	for f := fieldUndefined + 1; f < fieldEnd; f++ {
		fields = append(fields, f)
	}
	return fields
}

// Domain describes the valid range of a field.
type Domain struct {
	Min, Max, Step float64
	Unit           string
	Wrap           bool // Values outside range wrap around instead of clamping.
}

var fieldInfo = [fieldEnd]struct {
	name string
	desc string
	dom  Domain
}{
	FieldBrightness: {"brightness", "Channel gain in percent", Domain{Min: 0, Max: 200, Step: 1, Unit: "%"}},
	FieldContrast:   {"contrast", "Contrast around mid gray in percent", Domain{Min: 0, Max: 200, Step: 1, Unit: "%"}},
	FieldSaturation: {"saturation", "Color saturation in percent", Domain{Min: 0, Max: 200, Step: 1, Unit: "%"}},
	FieldHue:        {"hue", "Hue rotation", Domain{Min: 0, Max: 360, Step: 1, Unit: "°", Wrap: true}},
	FieldBlur:       {"blur", "Gaussian blur radius", Domain{Min: 0, Max: 20, Step: 0.5, Unit: "px"}},
	FieldGrayscale:  {"grayscale", "Mix toward luminance", Domain{Min: 0, Max: 100, Step: 1, Unit: "%"}},
	FieldSepia:      {"sepia", "Mix toward sepia tone", Domain{Min: 0, Max: 100, Step: 1, Unit: "%"}},
	FieldInvert:     {"invert", "Mix toward negative", Domain{Min: 0, Max: 100, Step: 1, Unit: "%"}},
	FieldShiftR:     {"shift-r", "Red channel offset", Domain{Min: -255, Max: 255, Step: 1}},
	FieldShiftG:     {"shift-g", "Green channel offset", Domain{Min: -255, Max: 255, Step: 1}},
	FieldShiftB:     {"shift-b", "Blue channel offset", Domain{Min: -255, Max: 255, Step: 1}},
	FieldGrain:      {"grain", "Film grain noise amplitude", Domain{Min: 0, Max: 100, Step: 1}},
	FieldVignette:   {"vignette", "Edge darkening opacity", Domain{Min: 0, Max: 100, Step: 1, Unit: "%"}},
	FieldRGBSplit:   {"rgb-split", "Red/blue horizontal split distance", Domain{Min: 0, Max: 50, Step: 1, Unit: "px"}},
	FieldPixelate:   {"pixelate", "Block size in half pixels", Domain{Min: 0, Max: 20, Step: 1}},
}

func (f Field) String() string {
	if f <= fieldUndefined || f >= fieldEnd {
		return "undefined"
	}
	return fieldInfo[f].name
}

// Description returns a human readable description of the field.
func (f Field) Description() string {
	if f <= fieldUndefined || f >= fieldEnd {
		return ""
	}
	return fieldInfo[f].desc
}

// Domain returns the valid value range of the field.
func (f Field) Domain() Domain {
	if f <= fieldUndefined || f >= fieldEnd {
		return Domain{}
	}
	return fieldInfo[f].dom
}

// ParseField returns the field with the given name and whether it exists.
func ParseField(name string) (Field, bool) {
	for f := fieldUndefined + 1; f < fieldEnd; f++ {
		if fieldInfo[f].name == name {
			return f, true
		}
	}
	return fieldUndefined, false
}

// Clamp returns v constrained to the domain. NaN maps to Min.
func (d Domain) Clamp(v float64) float64 {
	if math.IsNaN(v) || (d.Wrap && math.IsInf(v, 0)) {
		return d.Min
	}
	if d.Wrap {
		span := d.Max - d.Min
		v = math.Mod(v-d.Min, span)
		if v < 0 {
			v += span
		}
		return v + d.Min
	}
	return max(d.Min, min(d.Max, v))
}

// Set assigns value to field after clamping it into the field's domain and
// returns the stored value. Unknown fields are ignored.
func (p *ParameterSet) Set(field Field, value float64) float64 {
	v := field.Domain().Clamp(value)
	switch field {
	case FieldBrightness:
		p.Filters.Brightness = v
	case FieldContrast:
		p.Filters.Contrast = v
	case FieldSaturation:
		p.Filters.Saturation = v
	case FieldHue:
		p.Filters.Hue = v
	case FieldBlur:
		p.Filters.Blur = v
	case FieldGrayscale:
		p.Filters.Grayscale = v
	case FieldSepia:
		p.Filters.Sepia = v
	case FieldInvert:
		p.Filters.Invert = v
	case FieldShiftR:
		p.Shift.R = int(math.Round(v))
		v = float64(p.Shift.R)
	case FieldShiftG:
		p.Shift.G = int(math.Round(v))
		v = float64(p.Shift.G)
	case FieldShiftB:
		p.Shift.B = int(math.Round(v))
		v = float64(p.Shift.B)
	case FieldGrain:
		p.Effects.Grain = v
	case FieldVignette:
		p.Effects.Vignette = v
	case FieldRGBSplit:
		p.Effects.RGBSplit = v
	case FieldPixelate:
		p.Effects.Pixelate = v
	default:
		return 0
	}
	return v
}

// Get returns the current value of field.
func (p *ParameterSet) Get(field Field) float64 {
	switch field {
	case FieldBrightness:
		return p.Filters.Brightness
	case FieldContrast:
		return p.Filters.Contrast
	case FieldSaturation:
		return p.Filters.Saturation
	case FieldHue:
		return p.Filters.Hue
	case FieldBlur:
		return p.Filters.Blur
	case FieldGrayscale:
		return p.Filters.Grayscale
	case FieldSepia:
		return p.Filters.Sepia
	case FieldInvert:
		return p.Filters.Invert
	case FieldShiftR:
		return float64(p.Shift.R)
	case FieldShiftG:
		return float64(p.Shift.G)
	case FieldShiftB:
		return float64(p.Shift.B)
	case FieldGrain:
		return p.Effects.Grain
	case FieldVignette:
		return p.Effects.Vignette
	case FieldRGBSplit:
		return p.Effects.RGBSplit
	case FieldPixelate:
		return p.Effects.Pixelate
	}
	return 0
}

// Sanitize clamps every field into its domain. Used on parameter sets that
// were built directly instead of through Set.
func (p *ParameterSet) Sanitize() {
	for _, f := range Fields() {
		p.Set(f, p.Get(f))
	}
}

// IsIdentity reports whether the parameters leave every pixel unchanged.
func (p *ParameterSet) IsIdentity() bool {
	return *p == DefaultParameters()
}

// Control returns a slider for f starting at value. Changed values are
// clamped and rounded exactly as [ParameterSet.Set] stores them before
// onChange is called.
func (f Field) Control(value float64, onChange func(float64) error) *ControlOrdered[float64] {
	dom := f.Domain()
	return &ControlOrdered[float64]{
		Name:        f.String(),
		Description: f.Description(),
		Value:       value,
		Min:         dom.Min,
		Max:         dom.Max,
		Step:        dom.Step,
		Clamp: func(v float64) float64 {
			var p ParameterSet
			return p.Set(f, v)
		},
		OnChange: onChange,
	}
}
