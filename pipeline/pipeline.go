// Package pipeline runs the fixed-order effect chain over a source buffer:
//
//	pixelate → color transform → blur → vignette → channel split → stickers
//
// Each stage reads the previous stage's output. Stages whose parameters are
// neutral are skipped, so default parameters reproduce the source exactly.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	"github.com/soypat/digicam/filters"
	"github.com/soypat/digicam/sticker"
)

const errNoGlyphRenderer = errorString("stickers present but no glyph renderer configured")

type errorString string

func (e errorString) Error() string { return string(e) }

// Stage is one named pass of the chain.
type Stage struct {
	Name   string
	Filter digicam.Filter
}

// Stages returns the enabled pixel stages for p in execution order.
// rng is the grain source.
func Stages(p digicam.ParameterSet, rng *rand.Rand) []Stage {
	p.Sanitize()
	var stages []Stage
	if p.Effects.Pixelate > 0 {
		stages = append(stages, Stage{"pixelate", filters.NewPixelate(p.Effects.Pixelate)})
	}
	color := p
	color.Filters.Blur = 0
	color.Effects = digicam.EffectSettings{Grain: p.Effects.Grain}
	if !color.IsIdentity() {
		stages = append(stages, Stage{"color", filters.NewColorTransform(color, rng)})
	}
	if p.Filters.Blur > 0 {
		stages = append(stages, Stage{"blur", filters.NewBlur(p.Filters.Blur)})
	}
	if p.Effects.Vignette > 0 {
		stages = append(stages, Stage{"vignette", filters.NewVignette(p.Effects.Vignette)})
	}
	if split := filters.NewChannelSplit(p.Effects.RGBSplit); split.Shift() > 0 {
		stages = append(stages, Stage{"split", split})
	}
	return stages
}

// Runner executes the pipeline. The zero value renders without stickers
// and with randomly seeded grain.
type Runner struct {
	// Glyphs draws the sticker overlay. Required when stickers are passed to Run.
	Glyphs *sticker.Renderer
	// Seed fixes the grain noise of every run when non-zero,
	// making output a pure function of the inputs.
	Seed uint64
}

func (r *Runner) rng() *rand.Rand {
	if r.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15))
}

// Run renders src with p and stickers into a new buffer. src is never modified.
// Run checks ctx between stages and returns its error if it was cancelled.
func (r *Runner) Run(ctx context.Context, src *digicam.Buffer, p digicam.ParameterSet, stickers []sticker.Sticker) (*digicam.Buffer, error) {
	if src == nil {
		return nil, digicam.ErrNoImage
	}
	if len(stickers) > 0 && r.Glyphs == nil {
		return nil, errNoGlyphRenderer
	}
	start := time.Now()
	stages := Stages(p, r.rng())

	out := src.Clone()
	var scratch *digicam.Buffer
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := checkShape(st, out.Dims().Shape); err != nil {
			return nil, err
		}
		logrus.WithFields(stageFields(st)).Trace("Running stage")
		if scratch == nil {
			scratch = &digicam.Buffer{Width: src.Width, Height: src.Height, Pix: make([]byte, len(src.Pix))}
		}
		if _, err := st.Filter.Process(scratch.Pix, out, nil); err != nil {
			return nil, fmt.Errorf("%s stage: %w", st.Name, err)
		}
		out, scratch = scratch, out
	}
	if len(stickers) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.Glyphs.Draw(out, stickers); err != nil {
			return nil, fmt.Errorf("sticker stage: %w", err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"function": "Runner.Run",
		"width":    src.Width,
		"height":   src.Height,
		"stages":   len(stages),
		"stickers": len(stickers),
		"elapsed":  time.Since(start),
	}).Debug("Pipeline run complete")
	return out, nil
}

// checkShape verifies st consumes and produces the shape of the working buffer.
func checkShape(st Stage, shape digicam.Shape) error {
	out, in := st.Filter.ShapeIO()
	if in != shape || out != shape {
		return fmt.Errorf("%s stage: maps %s to %s, buffer is %s", st.Name, in, out, shape)
	}
	return nil
}

func stageFields(st Stage) logrus.Fields {
	fields := logrus.Fields{"function": "Runner.Run", "stage": st.Name}
	for _, c := range st.Filter.Controls() {
		name, _ := c.Describe()
		fields[name] = c.ActualValue()
	}
	return fields
}
