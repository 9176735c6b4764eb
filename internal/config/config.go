package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"transitboard/internal/display"
)

// UnitDisplay selects how the relative-time formatter renders units.
type UnitDisplay uint8

const (
	UnitLong  UnitDisplay = iota // "5min", "1h5m"
	UnitShort                    // "5m", "1h5m"
	UnitNone                     // "5", "1:05"
)

func (u UnitDisplay) String() string {
	switch u {
	case UnitShort:
		return "short"
	case UnitNone:
		return "none"
	default:
		return "long"
	}
}

// UnmarshalYAML accepts "long", "short", or "none".
func (u *UnitDisplay) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "", "long":
		*u = UnitLong
	case "short":
		*u = UnitShort
	case "none":
		*u = UnitNone
	default:
		return fmt.Errorf("unknown unit_display %q", value.Value)
	}
	return nil
}

// Stop is one configured transit stop; the slice order drives page cycling.
type Stop struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// Abbreviation replaces the first occurrence of From in a headsign with To.
// Entries apply in configured order, one replacement each.
type Abbreviation struct {
	From string
	To   string
}

// RouteStyle overrides a route's display name and color by route ID.
type RouteStyle struct {
	Name  string
	Color display.Color
}

// DisplayConfig describes the attached display surface.
type DisplayConfig struct {
	Width  int `yaml:"width" validate:"min=1"`
	Height int `yaml:"height" validate:"min=1"`
}

// ServerConfig configures the status/debug HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	BaseURL               string      `yaml:"base_url" validate:"required"`
	FeedCode              string      `yaml:"feed_code"`
	Schedule              string      `yaml:"schedule" validate:"required"` // route/stop filter expression
	ListMode              string      `yaml:"list_mode"`
	Limit                 int         `yaml:"limit" validate:"min=1"`
	DisplayLimit          int         `yaml:"display_limit" validate:"min=1"`
	DisplayDepartureTimes bool        `yaml:"display_departure_times"`
	UnitDisplay           UnitDisplay `yaml:"unit_display"`
	DefaultRouteColor     string      `yaml:"default_route_color"`
	Abbreviations         string      `yaml:"abbreviations"` // "from;to" per line
	RouteStyles           string      `yaml:"route_styles"`  // "routeID;name;hexcolor" per line
	Stops                 []Stop      `yaml:"stops" validate:"dive"`

	Display DisplayConfig `yaml:"display"`
	Server  ServerConfig  `yaml:"server"`

	// Parsed forms of the text tables above.
	AbbreviationList []Abbreviation        `yaml:"-"`
	RouteStyleTable  map[string]RouteStyle `yaml:"-"`
	DefaultColor     display.Color         `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListMode:              "sequential",
		Limit:                 10,
		DisplayLimit:          3,
		DisplayDepartureTimes: true,
		DefaultRouteColor:     "028e51",
		Display:               DisplayConfig{Width: 64, Height: 32},
		Server:                ServerConfig{Addr: ":8080"},
	}
}

// Load reads, validates, and post-processes the YAML configuration file.
// Environment variables override select fields after the file is read.
func Load(path string, logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = envStr("TRANSITBOARD_BASE_URL", cfg.BaseURL)
	cfg.Server.Addr = envStr("TRANSITBOARD_ADDR", cfg.Server.Addr)
	cfg.DisplayLimit = envInt("TRANSITBOARD_DISPLAY_LIMIT", cfg.DisplayLimit)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.DefaultColor, err = display.ParseColor(cfg.DefaultRouteColor)
	if err != nil {
		return nil, fmt.Errorf("default_route_color: %w", err)
	}
	cfg.AbbreviationList = ParseAbbreviations(cfg.Abbreviations, logger)
	cfg.RouteStyleTable = ParseRouteStyles(cfg.RouteStyles, logger)

	return &cfg, nil
}

// ParseAbbreviations parses "from;to" lines, preserving line order.
// Malformed lines are logged and skipped.
func ParseAbbreviations(text string, logger *slog.Logger) []Abbreviation {
	var out []Abbreviation
	for _, line := range splitLines(text) {
		parts := strings.Split(line, ";")
		if len(parts) != 2 {
			logger.Warn("invalid abbreviation line", "line", line)
			continue
		}
		out = append(out, Abbreviation{From: parts[0], To: parts[1]})
	}
	return out
}

// ParseRouteStyles parses "routeID;name;hexcolor" lines into a lookup table.
// Malformed lines are logged and skipped.
func ParseRouteStyles(text string, logger *slog.Logger) map[string]RouteStyle {
	out := make(map[string]RouteStyle)
	for _, line := range splitLines(text) {
		parts := strings.Split(line, ";")
		if len(parts) != 3 {
			logger.Warn("invalid route style line", "line", line)
			continue
		}
		color, err := display.ParseColor(parts[2])
		if err != nil {
			logger.Warn("invalid route style color", "line", line, "error", err)
			continue
		}
		out[parts[0]] = RouteStyle{Name: parts[1], Color: color}
	}
	return out
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
