// seehuhn.de/go/stamp - place text and images on PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config holds the settings of the stamping tools.
//
// Settings are read from a YAML file.  Values missing from the file keep
// their defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/coord"
	"seehuhn.de/go/stamp/dates"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/overlay"
	"seehuhn.de/go/stamp/raster"
)

// Config is the complete configuration.
type Config struct {
	Font   FontConfig   `yaml:"font"`
	View   ViewConfig   `yaml:"view"`
	Date   DateConfig   `yaml:"date"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
	Shell  ShellConfig  `yaml:"shell"`
}

// FontConfig gives the font of new text annotations.
type FontConfig struct {
	Family string  `yaml:"family"`
	Size   float64 `yaml:"size"`
	Color  string  `yaml:"color"` // "#rrggbb"
}

// ViewConfig describes the initial viewport of an editing session.
type ViewConfig struct {
	Zoom    float64 `yaml:"zoom"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

// DateConfig controls the text of date annotations.
type DateConfig struct {
	Format   string `yaml:"format"`
	Language string `yaml:"language"`
}

// ExportConfig controls the output document.
type ExportConfig struct {
	Workers        int  `yaml:"workers"` // 0 means one per CPU
	TextTopAligned bool `yaml:"text_top_aligned"`
	MaxImageSide   int  `yaml:"max_image_side"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ShellConfig controls the interactive shell.
type ShellConfig struct {
	HistoryFile string `yaml:"history_file"`
}

// ErrInvalid is returned (wrapped) by [Config.Validate].
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Font: FontConfig{
			Family: "Arial",
			Size:   annotation.DefaultFontSize,
			Color:  annotation.Black.String(),
		},
		View: ViewConfig{
			Zoom:    coord.DefaultZoom,
			OffsetX: coord.DefaultOffset.X,
			OffsetY: coord.DefaultOffset.Y,
		},
		Date: DateConfig{
			Format:   dates.DefaultFormat,
			Language: "es",
		},
		Export: ExportConfig{
			MaxImageSide: raster.DefaultMaxSide,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is like [Load], but returns the default configuration if
// path is empty or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultPath returns the location of the user's configuration file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "stamp.yaml"
	}
	return filepath.Join(dir, "stamp", "config.yaml")
}

// Validate checks that all values can be used.
func (c *Config) Validate() error {
	if _, err := annotation.ParseColor(c.Font.Color); err != nil {
		return fmt.Errorf("%w: font color: %v", ErrInvalid, err)
	}
	if !(c.Font.Size >= annotation.MinFontSize && c.Font.Size <= annotation.MaxFontSize) {
		return fmt.Errorf("%w: font size %g", ErrInvalid, c.Font.Size)
	}
	if !(c.View.Zoom >= coord.MinZoom && c.View.Zoom <= coord.MaxZoom) {
		return fmt.Errorf("%w: zoom %g", ErrInvalid, c.View.Zoom)
	}
	if _, ok := dates.Lookup(c.Date.Format); !ok {
		return fmt.Errorf("%w: %w %q", ErrInvalid, dates.ErrUnknownFormat, c.Date.Format)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("%w: %d workers", ErrInvalid, c.Export.Workers)
	}
	if c.Export.MaxImageSide < 0 {
		return fmt.Errorf("%w: max image side %d", ErrInvalid, c.Export.MaxImageSide)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// FontSpec returns the font for new text annotations.
func (c *Config) FontSpec() annotation.Font {
	col, err := annotation.ParseColor(c.Font.Color)
	if err != nil {
		col = annotation.Black
	}
	return annotation.Font{
		Family: c.Font.Family,
		Size:   annotation.ClampUIFontSize(c.Font.Size),
		Color:  col,
	}
}

// Viewport returns the initial viewport.
func (c *Config) Viewport() coord.Viewport {
	return coord.Viewport{
		Zoom:   coord.ClampZoom(c.View.Zoom),
		Offset: vec.Vec2{X: c.View.OffsetX, Y: c.View.OffsetY},
	}
}

// Locale returns the locale for date annotations.
func (c *Config) Locale() dates.Locale {
	return dates.NewLocale(c.Date.Language)
}

// OverlayOptions returns the rendering options for export.
func (c *Config) OverlayOptions() overlay.Options {
	return overlay.Options{
		Zoom:           1,
		TextTopAligned: c.Export.TextTopAligned,
		Raster:         &raster.Options{MaxSide: c.Export.MaxImageSide},
	}
}

// LogLevel returns the configured log level, or slog.LevelWarn if the
// value cannot be parsed.
func (c *Config) LogLevel() slog.Level {
	l, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return l
}
