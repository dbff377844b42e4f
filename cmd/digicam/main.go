// Command digicam applies digicam effects, presets and stickers to an image
// and writes the composited result.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	"github.com/soypat/digicam/config"
	"github.com/soypat/digicam/editor"
	"github.com/soypat/digicam/imageio"
	"github.com/soypat/digicam/pipeline"
	"github.com/soypat/digicam/preset"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// cliConfig holds flags that are not part of the persistent configuration.
type cliConfig struct {
	configFile   string
	in           string
	out          string
	preset       string
	sets         []string
	stickers     []string
	listPresets  bool
	listControls bool
	listGlyphs   bool
}

// flagKeys maps flags onto configuration keys so they override env and file values.
var flagKeys = map[string]string{
	"seed":      "SEED",
	"format":    "EXPORT_FORMAT",
	"quality":   "JPEG_QUALITY",
	"log-level": "LOG_LEVEL",
	"max-size":  "MAX_IMAGE_SIZE",
	"font":      "GLYPH_FONT",
}

func newFlagSet(cli *cliConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("digicam", pflag.ContinueOnError)
	fs.StringVarP(&cli.configFile, "config", "c", "", "Config file (yaml, json or toml)")
	fs.StringVarP(&cli.in, "in", "i", "", "Input image path, - for stdin")
	fs.StringVarP(&cli.out, "out", "o", "", "Output file or directory (default: timestamped name in the working directory)")
	fs.StringVarP(&cli.preset, "preset", "p", "", "Preset applied before --set values")
	fs.StringArrayVar(&cli.sets, "set", nil, "Parameter assignment field=value, repeatable")
	fs.StringArrayVar(&cli.stickers, "sticker", nil, "Sticker glyph@x,y[,scale[,rotation]], repeatable")
	fs.BoolVar(&cli.listPresets, "list-presets", false, "List presets and exit")
	fs.BoolVar(&cli.listControls, "list-controls", false, "List adjustable parameters and exit")
	fs.BoolVar(&cli.listGlyphs, "list-glyphs", false, "List sticker glyphs and exit")

	fs.Uint64("seed", 0, "Grain noise seed, 0 for random")
	fs.String("format", "png", "Export format: png or jpeg")
	fs.Int("quality", imageio.DefaultJPEGQuality, "JPEG quality 1-100")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.String("max-size", "5MB", "Maximum input file size")
	fs.String("font", "", "TTF font used to rasterize sticker glyphs")
	return fs
}

func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func main() {
	var cli cliConfig
	fs := newFlagSet(&cli)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, fs, &cli, os.Stdin, os.Stdout); err != nil {
		logrus.WithError(err).Error("digicam failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, fs *pflag.FlagSet, cli *cliConfig, stdin io.Reader, stdout io.Writer) error {
	if err := bindFlags(fs); err != nil {
		return err
	}
	cfg, err := config.Load(cli.configFile)
	if err != nil {
		return err
	}
	logrus.SetLevel(cfg.Level())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)

	session, err := newSession(cfg)
	if err != nil {
		return err
	}
	switch {
	case cli.listPresets:
		return listPresets(stdout, session.Presets())
	case cli.listControls:
		return listControls(stdout, session.Controls())
	case cli.listGlyphs:
		return listGlyphs(stdout, session.Glyphs())
	}
	if cli.in == "" {
		return errors.New("missing --in image")
	}

	data, err := readInput(cli.in, stdin)
	if err != nil {
		return err
	}
	if err := session.LoadImage(cfg.Decoder(), data); err != nil {
		return err
	}
	if err := edit(session, cli); err != nil {
		return err
	}
	out, err := session.Render(ctx)
	if err != nil {
		return err
	}

	path, format := outputPath(cli.out, cfg.Format(), time.Now())
	if err := writeOutput(path, out, format, cfg.JPEGQuality); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function": "run",
		"path":     path,
		"preset":   session.Preset(),
		"stickers": len(session.Stickers()),
	}).Info("Image exported")
	return nil
}

func newSession(cfg *config.Config) (*editor.Session, error) {
	var ttf []byte
	if cfg.GlyphFont != "" {
		b, err := os.ReadFile(cfg.GlyphFont)
		if err != nil {
			return nil, fmt.Errorf("reading glyph font: %w", err)
		}
		ttf = b
	}
	glyphs, err := sticker.NewRenderer(nil, ttf, cfg.GlyphSize)
	if err != nil {
		return nil, err
	}
	return editor.New(editor.Options{
		Runner:    &pipeline.Runner{Glyphs: glyphs, Seed: cfg.Seed},
		Limits:    cfg.StickerLimits(),
		HitRadius: cfg.HitRadius,
	}), nil
}

// edit applies the preset, then parameter assignments, then stickers.
func edit(s *editor.Session, cli *cliConfig) error {
	if cli.preset != "" {
		if err := s.ApplyPreset(cli.preset); err != nil {
			return err
		}
	}
	ctrls := controlsByName(s.Controls())
	for _, kv := range cli.sets {
		name, v, err := parseSet(kv)
		if err != nil {
			return err
		}
		c, ok := ctrls[name]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", digicam.ErrInput, name)
		}
		if err := c.ChangeValue(v); err != nil {
			return err
		}
		if got := c.ActualValue(); got != v {
			logrus.WithFields(logrus.Fields{
				"function": "edit",
				"field":    name,
				"value":    v,
				"stored":   got,
			}).Warn("Value clamped")
		}
	}
	for _, arg := range cli.stickers {
		sp, err := parseSticker(arg)
		if err != nil {
			return err
		}
		st, err := s.AddSticker(sp.Glyph)
		if err != nil {
			return err
		}
		sp.ID = st.ID
		if _, err := s.UpdateSticker(sp); err != nil {
			return err
		}
	}
	return nil
}

func parseSet(kv string) (name string, v float64, err error) {
	name, value, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("%w: --set %q is not field=value", digicam.ErrInput, kv)
	}
	v, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: --set %s: %v", digicam.ErrInput, name, err)
	}
	return strings.TrimSpace(name), v, nil
}

// parseSticker parses glyph@x,y[,scale[,rotation]].
func parseSticker(arg string) (sticker.Sticker, error) {
	glyph, rest, ok := strings.Cut(arg, "@")
	if !ok || glyph == "" {
		return sticker.Sticker{}, fmt.Errorf("%w: --sticker %q is not glyph@x,y", digicam.ErrInput, arg)
	}
	parts := strings.Split(rest, ",")
	if len(parts) < 2 || len(parts) > 4 {
		return sticker.Sticker{}, fmt.Errorf("%w: --sticker %q needs 2 to 4 numbers", digicam.ErrInput, arg)
	}
	nums := []float32{0, 0, 1, 0}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return sticker.Sticker{}, fmt.Errorf("%w: --sticker %q: %v", digicam.ErrInput, arg, err)
		}
		nums[i] = float32(v)
	}
	return sticker.Sticker{
		Glyph:    glyph,
		Pos:      ms2.Vec{X: nums[0], Y: nums[1]},
		Scale:    nums[2],
		Rotation: nums[3],
	}, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// outputPath resolves the destination. A file extension on out overrides the configured format.
func outputPath(out string, format imageio.Format, now time.Time) (string, imageio.Format) {
	if out == "" {
		return imageio.ExportName("digicam", format, now), format
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, imageio.ExportName("digicam", format, now)), format
	}
	if f, err := imageio.ParseFormat(strings.TrimPrefix(filepath.Ext(out), ".")); err == nil {
		format = f
	}
	return out, format
}

func writeOutput(path string, buf *digicam.Buffer, format imageio.Format, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imageio.Encode(f, buf, format, quality); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func listPresets(w io.Writer, c *preset.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTYLE")
	for _, pr := range c.All() {
		fmt.Fprintf(tw, "%s\t%s\n", pr.Name, pr.Style)
	}
	return tw.Flush()
}

func controlsByName(ctrls []digicam.Control) map[string]digicam.Control {
	m := make(map[string]digicam.Control, len(ctrls))
	for _, c := range ctrls {
		name, _ := c.Describe()
		m[name] = c
	}
	return m
}

func listControls(w io.Writer, ctrls []digicam.Control) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tMIN\tMAX\tVALUE\tDESCRIPTION")
	for _, c := range ctrls {
		name, desc := c.Describe()
		lo, hi := "", ""
		if co, ok := c.(*digicam.ControlOrdered[float64]); ok {
			lo, hi = fmt.Sprint(co.Min), fmt.Sprint(co.Max)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", name, lo, hi, c.ActualValue(), desc)
	}
	return tw.Flush()
}

func listGlyphs(w io.Writer, glyphs []sticker.Glyph) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGLYPH")
	for _, g := range glyphs {
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, g.Text)
	}
	return tw.Flush()
}
