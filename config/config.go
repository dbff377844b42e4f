// Package config loads digicam settings from the environment, an optional
// config file and bound command line flags.
package config

import (
	"fmt"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam/imageio"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. DIGICAM_SEED.
const EnvPrefix = "DIGICAM"

type Config struct {
	// Ingest limits.
	MaxImageSize string `mapstructure:"MAX_IMAGE_SIZE" validate:"required"`
	MaxPixels    int64  `mapstructure:"MAX_PIXELS" validate:"gte=0"`

	// Stickers.
	HitRadius float32 `mapstructure:"HIT_RADIUS" validate:"gt=0"`
	GlyphSize float64 `mapstructure:"GLYPH_SIZE" validate:"gt=0,lte=512"`
	GlyphFont string  `mapstructure:"GLYPH_FONT" validate:"omitempty,file"`
	StickerX  float32 `mapstructure:"STICKER_X"`
	StickerY  float32 `mapstructure:"STICKER_Y"`
	ScaleMin  float32 `mapstructure:"SCALE_MIN" validate:"gt=0"`
	ScaleMax  float32 `mapstructure:"SCALE_MAX" validate:"gtefield=ScaleMin"`

	// Export.
	ExportFormat string `mapstructure:"EXPORT_FORMAT" validate:"oneof=png jpeg jpg"`
	JPEGQuality  int    `mapstructure:"JPEG_QUALITY" validate:"min=1,max=100"`

	// Seed fixes grain noise when non-zero.
	Seed     uint64 `mapstructure:"SEED"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn warning error fatal panic"`

	maxImageBytes uint64
}

func setDefaults() {
	viper.SetDefault("MAX_IMAGE_SIZE", "5MB")
	viper.SetDefault("MAX_PIXELS", 50_000_000)
	viper.SetDefault("HIT_RADIUS", 30)
	viper.SetDefault("GLYPH_SIZE", sticker.DefaultGlyphSize)
	viper.SetDefault("GLYPH_FONT", "")
	viper.SetDefault("STICKER_X", 150)
	viper.SetDefault("STICKER_Y", 150)
	viper.SetDefault("SCALE_MIN", 0.1)
	viper.SetDefault("SCALE_MAX", 5)
	viper.SetDefault("EXPORT_FORMAT", "png")
	viper.SetDefault("JPEG_QUALITY", imageio.DefaultJPEGQuality)
	viper.SetDefault("SEED", 0)
	viper.SetDefault("LOG_LEVEL", "info")
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			viper.BindEnv(tag)
		}
	}
}

// Load reads configuration from the global viper instance. A non-empty path
// names a config file whose keys are the lower case names of the environment
// variables without prefix, e.g. "max_image_size".
func Load(path string) (*Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	bindEnv(Config{})
	viper.AutomaticEnv()
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	n, err := humanize.ParseBytes(cfg.MaxImageSize)
	if err != nil {
		return nil, fmt.Errorf("validate config: MAX_IMAGE_SIZE: %w", err)
	}
	cfg.maxImageBytes = n

	logrus.WithFields(logrus.Fields{
		"function":       "config.Load",
		"max_image_size": humanize.Bytes(n),
		"export_format":  cfg.ExportFormat,
		"log_level":      cfg.LogLevel,
		"seeded":         cfg.Seed != 0,
	}).Debug("Loaded configuration")
	return &cfg, nil
}

// MaxImageBytes returns MaxImageSize in bytes.
func (c *Config) MaxImageBytes() uint64 { return c.maxImageBytes }

// Decoder returns an image decoder enforcing the configured limits.
func (c *Config) Decoder() imageio.Decoder {
	return imageio.Decoder{MaxBytes: c.maxImageBytes, MaxPixels: c.MaxPixels}
}

// StickerLimits returns the configured sticker bounds and spawn position.
func (c *Config) StickerLimits() sticker.Limits {
	return sticker.Limits{
		MinScale: c.ScaleMin,
		MaxScale: c.ScaleMax,
		Spawn:    ms2.Vec{X: c.StickerX, Y: c.StickerY},
	}
}

// Format returns the export format. Load has validated it.
func (c *Config) Format() imageio.Format {
	f, err := imageio.ParseFormat(c.ExportFormat)
	if err != nil {
		return imageio.FormatPNG
	}
	return f
}

// Level returns the logrus level. Load has validated it.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
