package server

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/image-quantize-mcp/internal/dither"
	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// Environment variables read by LoadConfig.
const (
	EnvLogLevel     = "IMAGE_MCP_LOG_LEVEL"
	EnvColors       = "IMAGE_QUANT_COLORS"
	EnvDither       = "IMAGE_QUANT_DITHER"
	EnvOrderedGamma = "IMAGE_QUANT_ORDERED_GAMMA"
)

// Config holds the server settings. Colors, Dither and OrderedGamma are the
// defaults for tool calls that do not pass those arguments.
type Config struct {
	// LogLevel is "debug" to log every request to stderr; anything else
	// logs errors only.
	LogLevel string

	// Colors is the default palette size (2-256).
	Colors int

	// Dither is the default dither mode.
	Dither dither.Mode

	// OrderedGamma is the default palette gamma for ordered dithering.
	OrderedGamma float64
}

// DefaultConfig returns the configuration used when no environment
// variables are set.
func DefaultConfig() Config {
	return Config{
		Colors:       palette.MaxColors,
		Dither:       dither.FloydSteinberg,
		OrderedGamma: 1.0,
	}
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// LoadConfig reads the configuration from the environment.
//
// Unset or empty variables keep their defaults. A set variable that does
// not parse, or is out of range, is an error rather than being ignored.
func LoadConfig() (Config, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	cfg.LogLevel = getenv(EnvLogLevel)

	if v := getenv(EnvColors); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvColors, err)
		}
		if n < 2 || n > palette.MaxColors {
			return cfg, fmt.Errorf("invalid %s: %d outside [2,%d]", EnvColors, n, palette.MaxColors)
		}
		cfg.Colors = n
	}

	if v := getenv(EnvDither); v != "" {
		m, err := dither.ParseMode(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvDither, err)
		}
		cfg.Dither = m
	}

	if v := getenv(EnvOrderedGamma); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvOrderedGamma, err)
		}
		if !(g > 0) || math.IsInf(g, 0) {
			return cfg, fmt.Errorf("invalid %s: gamma must be positive, got %v", EnvOrderedGamma, g)
		}
		cfg.OrderedGamma = g
	}

	return cfg, nil
}
