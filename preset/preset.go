// Package preset holds named bundles of parameters that are applied to a
// [digicam.ParameterSet] in one step.
package preset

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/soypat/digicam"
)

// Style groups presets for display.
type Style uint8

const (
	StyleNormal Style = iota
	StyleGoth
	StyleEmo
	StyleY2K
)

func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleGoth:
		return "goth"
	case StyleEmo:
		return "emo"
	case StyleY2K:
		return "y2k"
	}
	return "Style(" + fmt.Sprint(uint8(s)) + ")"
}

// Preset is an immutable parameter bundle. Filters is a partial override:
// only the filter fields it names are replaced when applied. Shift, when
// non-nil, and Effects replace the current values entirely.
type Preset struct {
	Name    string
	Style   Style
	Filters map[digicam.Field]float64
	Shift   *digicam.RGBShift
	Effects digicam.EffectSettings
}

// ApplyTo merges the preset into p. Override values are clamped like any other update.
func (pr Preset) ApplyTo(p *digicam.ParameterSet) {
	for _, f := range slices.Sorted(maps.Keys(pr.Filters)) {
		p.Set(f, pr.Filters[f])
	}
	if pr.Shift != nil {
		p.Shift = *pr.Shift
	}
	p.Effects = pr.Effects
	p.Sanitize()
}

func (pr Preset) clone() Preset {
	pr.Filters = maps.Clone(pr.Filters)
	if pr.Shift != nil {
		shift := *pr.Shift
		pr.Shift = &shift
	}
	return pr
}

func isFilterField(f digicam.Field) bool {
	return f >= digicam.FieldBrightness && f <= digicam.FieldInvert
}

// Catalog is a fixed, ordered set of presets.
type Catalog struct {
	presets []Preset
}

// NewCatalog validates and stores presets in the given order.
// Names must be unique ignoring case and overrides may only name filter fields.
func NewCatalog(presets ...Preset) (*Catalog, error) {
	seen := make(map[string]bool, len(presets))
	c := &Catalog{presets: make([]Preset, 0, len(presets))}
	for _, pr := range presets {
		key := strings.ToLower(pr.Name)
		if key == "" {
			return nil, errors.New("preset with empty name")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate preset %q", pr.Name)
		}
		seen[key] = true
		for f := range pr.Filters {
			if !isFilterField(f) {
				return nil, fmt.Errorf("preset %q: %s is not a filter field", pr.Name, f)
			}
		}
		c.presets = append(c.presets, pr.clone())
	}
	return c, nil
}

// Lookup finds a preset by name, ignoring case.
func (c *Catalog) Lookup(name string) (Preset, error) {
	for _, pr := range c.presets {
		if strings.EqualFold(pr.Name, name) {
			return pr.clone(), nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", digicam.ErrUnknownPreset, name)
}

// Apply merges the named preset into p and returns it.
// An unknown name leaves p untouched.
func (c *Catalog) Apply(name string, p *digicam.ParameterSet) (Preset, error) {
	pr, err := c.Lookup(name)
	if err != nil {
		return Preset{}, err
	}
	pr.ApplyTo(p)
	return pr, nil
}

// Names returns preset names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.presets))
	for i, pr := range c.presets {
		names[i] = pr.Name
	}
	return names
}

// ByStyle returns the presets of a style in catalog order.
func (c *Catalog) ByStyle(s Style) []Preset {
	var out []Preset
	for _, pr := range c.presets {
		if pr.Style == s {
			out = append(out, pr.clone())
		}
	}
	return out
}

// All returns every preset in catalog order.
func (c *Catalog) All() []Preset {
	out := make([]Preset, len(c.presets))
	for i, pr := range c.presets {
		out[i] = pr.clone()
	}
	return out
}
