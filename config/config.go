// Package config loads the TOML configuration of the oxy-wind executable.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Fog modes accepted in [fog].
const (
	FogNone   = "none"
	FogLinear = "linear"
)

// Present modes accepted in [render].
const (
	PresentVSync    = "vsync"
	PresentUncapped = "uncapped"
)

// Render is the [render] section.
type Render struct {
	// System overrides the render system name; empty uses the platform default.
	System      string  `toml:"system"`
	PresentMode string  `toml:"present_mode"`
	MSAA        int     `toml:"msaa"`
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	Title       string  `toml:"title"`
	FrameLimit  float64 `toml:"frame_limit"`
	Profiling   bool    `toml:"profiling"`
}

// Fog is the [fog] section.
type Fog struct {
	Mode   string     `toml:"mode"`
	Start  float32    `toml:"start"`
	End    float32    `toml:"end"`
	Colour [3]float32 `toml:"colour"`
}

// Wind is the [wind] section.
type Wind struct {
	Strength      float32 `toml:"strength"`
	NoiseTexture  string  `toml:"noise_texture"`
	FactorTexture string  `toml:"factor_texture"`
	// Reduced drops the wind-factor map; the factor is derived from the texture coordinate.
	Reduced bool `toml:"reduced"`
}

// Textures is the [textures] section.
type Textures struct {
	FallbackOnMissing bool `toml:"fallback_on_missing"`
	Workers           int  `toml:"workers"`
}

// Shaders is the [shaders] section.
type Shaders struct {
	// Root is a media directory on disk; empty uses the embedded shaders.
	Root string `toml:"root"`
	// Watch regenerates permutations when a piece file under Root changes.
	Watch bool `toml:"watch"`
}

// Foliage is the [foliage] section describing the generated grass patch.
type Foliage struct {
	// Mesh is a .gltf or .glb file drawn with the wind material instead of the generated
	// patch. The generator keys are ignored when it is set.
	Mesh   string  `toml:"mesh"`
	Blades int     `toml:"blades"`
	Area   float32 `toml:"area"`
	Height float32 `toml:"height"`
	Rows   int     `toml:"rows"`
	Seed   uint64  `toml:"seed"`
}

// Config is the whole file.
type Config struct {
	Render   Render   `toml:"render"`
	Fog      Fog      `toml:"fog"`
	Wind     Wind     `toml:"wind"`
	Textures Textures `toml:"textures"`
	Shaders  Shaders  `toml:"shaders"`
	Foliage  Foliage  `toml:"foliage"`

	// Resources maps a resource group to the directories searched for its textures.
	// Groups in the file replace the default group of the same name.
	Resources map[string][]string `toml:"resources"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Render: Render{
			PresentMode: PresentVSync,
			MSAA:        4,
			Width:       1280,
			Height:      720,
			Title:       "oxy-wind",
		},
		Fog: Fog{
			Mode:   FogLinear,
			Start:  10,
			End:    100,
			Colour: [3]float32{0.7, 0.8, 0.9},
		},
		Wind: Wind{
			Strength:      wind.DefaultWindStrength,
			NoiseTexture:  wind.DefaultNoiseTexture,
			FactorTexture: wind.DefaultWindFactorTexture,
		},
		Textures: Textures{FallbackOnMissing: true},
		Foliage: Foliage{
			Blades: 400,
			Area:   20,
			Height: 1,
			Rows:   2,
			Seed:   1,
		},
		Resources: map[string][]string{texture.DefaultResourceGroup: {"media/textures"}},
	}
}

// Load reads a TOML file over the defaults and validates the result. Unknown keys are
// an error.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the configuration
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: unknown keys:\n%s", strict.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return Config{}, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
//
// Returns:
//   - error: ErrInvalid wrapped with the offending key, or nil
func (c Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, key, fmt.Sprintf(format, args...))
	}
	switch c.Fog.Mode {
	case FogNone, FogLinear:
	default:
		return invalid("fog.mode", "%q is not %q or %q", c.Fog.Mode, FogNone, FogLinear)
	}
	if c.Fog.End < c.Fog.Start {
		return invalid("fog.end", "%g is before fog.start %g", c.Fog.End, c.Fog.Start)
	}
	for i, v := range c.Fog.Colour {
		if v < 0 || v > 1 {
			return invalid("fog.colour", "component %d is %g, outside [0, 1]", i, v)
		}
	}
	if c.Wind.Strength < 0 {
		return invalid("wind.strength", "%g is negative", c.Wind.Strength)
	}
	if c.Wind.NoiseTexture == "" {
		return invalid("wind.noise_texture", "empty")
	}
	if !c.Wind.Reduced && c.Wind.FactorTexture == "" {
		return invalid("wind.factor_texture", "empty")
	}
	switch c.Render.PresentMode {
	case PresentVSync, PresentUncapped:
	default:
		return invalid("render.present_mode", "%q is not %q or %q", c.Render.PresentMode, PresentVSync, PresentUncapped)
	}
	if c.Render.MSAA != 1 && c.Render.MSAA != 4 {
		return invalid("render.msaa", "%d is not 1 or 4", c.Render.MSAA)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return invalid("render", "size %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Textures.Workers < 0 {
		return invalid("textures.workers", "%d is negative", c.Textures.Workers)
	}
	if c.Shaders.Watch && c.Shaders.Root == "" {
		return invalid("shaders.watch", "requires shaders.root")
	}
	if ext := strings.ToLower(filepath.Ext(c.Foliage.Mesh)); c.Foliage.Mesh != "" && ext != ".gltf" && ext != ".glb" {
		return invalid("foliage.mesh", "%q is not a .gltf or .glb file", c.Foliage.Mesh)
	}
	if c.Foliage.Blades < 0 || c.Foliage.Rows < 1 || c.Foliage.Area <= 0 || c.Foliage.Height <= 0 {
		return invalid("foliage", "blades %d rows %d area %g height %g", c.Foliage.Blades, c.Foliage.Rows, c.Foliage.Area, c.Foliage.Height)
	}
	return nil
}

// FogColour returns the fog colour as an opaque colour value.
func (c Config) FogColour() common.ColourValue {
	return common.ColourValue{R: c.Fog.Colour[0], G: c.Fog.Colour[1], B: c.Fog.Colour[2], A: 1}
}

// WindOptions returns the wind extension options for the [wind] section.
//
// Returns:
//   - []wind.WindBuilderOption: the options
func (c Config) WindOptions() []wind.WindBuilderOption {
	opts := []wind.WindBuilderOption{
		wind.WithWindStrength(c.Wind.Strength),
		wind.WithNoiseTexture(c.Wind.NoiseTexture),
	}
	if c.Wind.Reduced {
		return append(opts, wind.WithoutWindFactor())
	}
	return append(opts, wind.WithWindFactorTexture(c.Wind.FactorTexture))
}

// TextureOptions returns the texture manager options for [resources] and [textures].
// The uploader is left to the render system.
//
// Returns:
//   - []texture.ManagerBuilderOption: the options
func (c Config) TextureOptions() []texture.ManagerBuilderOption {
	var opts []texture.ManagerBuilderOption
	for group, dirs := range c.Resources {
		for _, dir := range dirs {
			opts = append(opts, texture.WithResourceLocation(group, dir))
		}
	}
	if c.Textures.FallbackOnMissing {
		opts = append(opts, texture.WithFallbackOnMissing())
	}
	if c.Textures.Workers > 0 {
		opts = append(opts, texture.WithStreamingWorkers(c.Textures.Workers))
	}
	return opts
}
