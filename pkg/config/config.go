// Package config holds the settings shared by the CLI and the HTTP server.
// A configuration is built from Default, overlaid with a YAML or TOML file,
// then with LINTEL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/chazu/lintel/pkg/extract"
)

// Boolean kernels accepted in Engine.
const (
	EngineCSG      = "csg"
	EngineSDFX     = "sdfx"
	EngineManifold = "manifold"
)

// DefaultColor is used for element types without a color.
const DefaultColor = "#808080"

var defaultColors = map[string]string{
	"IfcWall":             "#8B4513",
	"IfcWallStandardCase": "#8B4513",
	"IfcSlab":             "#808080",
	"IfcWindow":           "#87CEEB",
	"IfcDoor":             "#CD853F",
	"IfcCovering":         "#D3D3D3",
	"IfcRoof":             "#8B0000",
	"IfcColumn":           "#696969",
	"IfcBeam":             "#A9A9A9",
}

type Config struct {
	ElementTypes []string          `yaml:"element_types" toml:"element_types"`
	Colors       map[string]string `yaml:"colors" toml:"colors"`
	Engine       string            `yaml:"engine" toml:"engine"`
	SDFCells     int               `yaml:"sdf_cells" toml:"sdf_cells"`
	Workers      int               `yaml:"workers" toml:"workers"`
	MaxElements  int               `yaml:"max_elements" toml:"max_elements"`
	Filter       string            `yaml:"filter" toml:"filter"`

	// Plots is the viewer color layout: every element entry whose filter
	// reads "type=IfcXxx" contributes its color to Colors.
	Plots map[string]Plot `yaml:"plots" toml:"plots"`

	Server Server `yaml:"server" toml:"server"`
}

type Plot struct {
	Elements []PlotElement `yaml:"elements" toml:"elements"`
}

type PlotElement struct {
	Filter string `yaml:"filter" toml:"filter"`
	Color  string `yaml:"color" toml:"color"`
}

// Server configures the HTTP server. Timeouts are in seconds.
type Server struct {
	Port         string `yaml:"port" toml:"port"`
	ReadTimeout  int    `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout" toml:"write_timeout"`
	// BodyLimit caps uploaded IFC files, in bytes.
	BodyLimit int `yaml:"body_limit" toml:"body_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ElementTypes: append([]string(nil), extract.DefaultElementTypes...),
		Colors:       lo.Assign(defaultColors),
		Engine:       EngineCSG,
		SDFCells:     64,
		Workers:      runtime.NumCPU(),
		Server: Server{
			Port:         "3000",
			ReadTimeout:  30,
			WriteTimeout: 120,
			BodyLimit:    256 << 20,
		},
	}
}

// Load reads the file at path (may be empty) over Default and applies
// environment overrides. The format is chosen by extension: .yaml, .yml or
// .toml.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		var file Config
		if err := decode(filepath.Ext(path), data, &file); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		cfg.overlay(&file)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(ext string, data []byte, into *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, into)
	case ".toml":
		return toml.Unmarshal(data, into)
	}
	return fmt.Errorf("unsupported config format %q", ext)
}

// overlay copies every field set in f onto c. Colors are merged key by
// key, plot colors last.
func (c *Config) overlay(f *Config) {
	if len(f.ElementTypes) > 0 {
		c.ElementTypes = f.ElementTypes
	}
	c.Colors = lo.Assign(c.Colors, f.Colors, plotColors(f.Plots))
	if f.Engine != "" {
		c.Engine = f.Engine
	}
	if f.SDFCells != 0 {
		c.SDFCells = f.SDFCells
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.MaxElements != 0 {
		c.MaxElements = f.MaxElements
	}
	if f.Filter != "" {
		c.Filter = f.Filter
	}
	c.Plots = f.Plots
	if f.Server.Port != "" {
		c.Server.Port = f.Server.Port
	}
	if f.Server.ReadTimeout > 0 {
		c.Server.ReadTimeout = f.Server.ReadTimeout
	}
	if f.Server.WriteTimeout > 0 {
		c.Server.WriteTimeout = f.Server.WriteTimeout
	}
	if f.Server.BodyLimit > 0 {
		c.Server.BodyLimit = f.Server.BodyLimit
	}
}

// plotColors maps "type=IfcWall" filters to their colors. Entries with any
// other filter shape are ignored.
func plotColors(plots map[string]Plot) map[string]string {
	out := make(map[string]string)
	for _, p := range plots {
		for _, el := range p.Elements {
			_, rest, ok := strings.Cut(el.Filter, "type=")
			if !ok || el.Color == "" {
				continue
			}
			if t, _, _ := strings.Cut(rest, " "); t != "" {
				out[t] = el.Color
			}
		}
	}
	return out
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("LINTEL_PORT", c.Server.Port)
	c.Engine = getEnv("LINTEL_ENGINE", c.Engine)
	c.Workers = getEnvAsInt("LINTEL_WORKERS", c.Workers)
	c.Server.ReadTimeout = getEnvAsInt("LINTEL_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsInt("LINTEL_WRITE_TIMEOUT", c.Server.WriteTimeout)
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks the engine name, counts and colors.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineCSG, EngineSDFX, EngineManifold:
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if c.Workers < 0 || c.MaxElements < 0 || c.SDFCells < 0 {
		return fmt.Errorf("config: workers, max_elements and sdf_cells must not be negative")
	}
	for t, col := range c.Colors {
		if !hexColor.MatchString(col) {
			return fmt.Errorf("config: color for %s: %q is not #RRGGBB", t, col)
		}
	}
	return nil
}

// Color returns the display color of an element type.
func (c *Config) Color(elementType string) string {
	if col, ok := c.Colors[elementType]; ok {
		return col
	}
	return DefaultColor
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
