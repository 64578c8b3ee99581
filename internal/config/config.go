// Package config loads server settings from the environment, an optional
// .env file, and an optional YAML overlay style file.
package config

import (
	"image/color"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/akshita317/object-detection/internal/imaging"
	"github.com/akshita317/object-detection/internal/provider"
)

const envPrefix = "OBJDETECT_"

type Config struct {
	Addr           string
	ExportDir      string
	LogLevel       string
	MaxUploadBytes int64
	StyleFile      string

	Provider provider.Config
	Style    imaging.Style
}

// Load reads the configuration. Variables already set in the environment take
// precedence over the .env file named by OBJDETECT_ENV_FILE (default ".env"),
// which is skipped if missing.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "load %s", envFile)
	}

	cfg := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		ExportDir:      getEnv("EXPORT_DIR", "."),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_MB", 10) << 20,
		StyleFile:      getEnv("STYLE_FILE", ""),
		Provider: provider.Config{
			Kind:           getEnv("PROVIDER", provider.KindHTTP),
			InferenceURL:   getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
			HealthURL:      getEnv("HEALTH_URL", ""),
			Fixture:        getEnv("FIXTURE", ""),
			Language:       getEnv("OCR_LANGUAGE", "eng"),
			TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
			MaxDimension:   getEnvAsInt("MAX_DIMENSION", 1280),
			MinConfidence:  getEnvAsFloat("MIN_CONFIDENCE", 0),
			Timeout:        getEnvAsDuration("DETECT_TIMEOUT", 30*time.Second),
		},
		Style: imaging.DefaultStyle(),
	}

	if cfg.StyleFile != "" {
		style, err := LoadStyle(cfg.StyleFile, cfg.Style)
		if err != nil {
			return nil, err
		}
		cfg.Style = style
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// styleFile mirrors imaging.Style with hex colours. Unset fields keep the
// base style.
type styleFile struct {
	Stroke       string `yaml:"stroke"`
	Accent       string `yaml:"accent"`
	Text         string `yaml:"text"`
	LineWidth    int    `yaml:"line_width"`
	TagHeight    int    `yaml:"tag_height"`
	TagPadding   int    `yaml:"tag_padding"`
	TagOffset    int    `yaml:"tag_offset"`
	TextInset    int    `yaml:"text_inset"`
	TextBaseline int    `yaml:"text_baseline"`
}

// LoadStyle overlays the YAML style file at path onto base.
func LoadStyle(path string, base imaging.Style) (imaging.Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrap(err, "read style file")
	}

	var f styleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, errors.Wrapf(err, "parse style file %s", path)
	}

	style := base
	for _, c := range []struct {
		hex string
		dst *color.NRGBA
	}{
		{f.Stroke, &style.Stroke},
		{f.Accent, &style.Accent},
		{f.Text, &style.Text},
	} {
		if c.hex == "" {
			continue
		}
		v, err := imaging.ParseColor(c.hex)
		if err != nil {
			return base, errors.Wrapf(err, "style file %s", path)
		}
		*c.dst = v
	}

	for _, n := range []struct {
		v   int
		dst *int
	}{
		{f.LineWidth, &style.LineWidth},
		{f.TagHeight, &style.TagHeight},
		{f.TagPadding, &style.TagPadding},
		{f.TagOffset, &style.TagOffset},
		{f.TextInset, &style.TextInset},
		{f.TextBaseline, &style.TextBaseline},
	} {
		if n.v < 0 {
			return base, errors.Errorf("style file %s: sizes must not be negative", path)
		}
		if n.v > 0 {
			*n.dst = n.v
		}
	}

	return style, nil
}
