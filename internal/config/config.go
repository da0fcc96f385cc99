// Package config holds the server configuration and the subset handed to the browser client.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/janpfeifer/GoTales/internal/canvas"
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/janpfeifer/GoTales/internal/genai"
	"gopkg.in/yaml.v3"
)

// Config of the gotales server. Every field can be set in the YAML file or overridden by its
// environment variable.
type Config struct {
	Addr   string       `yaml:"addr" env:"GOTALES_ADDR" env-default:"localhost:8080"`
	Gemini genai.Config `yaml:"gemini"`
	Client `yaml:",inline"`
}

// Client is the part of the configuration the browser needs. It holds no secrets.
type Client struct {
	Game   Game   `yaml:"game"`
	Canvas Canvas `yaml:"canvas"`
}

// Game tunes the memory game and the picture lock.
type Game struct {
	PairCount      int           `yaml:"pair-count" env:"GOTALES_PAIR_COUNT" env-default:"6"`
	MatchDelay     time.Duration `yaml:"match-delay" env:"GOTALES_MATCH_DELAY" env-default:"500ms"`
	MismatchDelay  time.Duration `yaml:"mismatch-delay" env:"GOTALES_MISMATCH_DELAY" env-default:"1s"`
	WonDelay       time.Duration `yaml:"won-delay" env:"GOTALES_WON_DELAY" env-default:"500ms"`
	LockLength     int           `yaml:"lock-length" env:"GOTALES_LOCK_LENGTH" env-default:"3"`
	UnlockDelay    time.Duration `yaml:"unlock-delay" env:"GOTALES_UNLOCK_DELAY" env-default:"500ms"`
	LockResetDelay time.Duration `yaml:"lock-reset-delay" env:"GOTALES_LOCK_RESET_DELAY" env-default:"1s"`
}

// Canvas tunes the colouring screen and the drawings gallery.
type Canvas struct {
	BrushWidth      float64       `yaml:"brush-width" env:"GOTALES_BRUSH_WIDTH" env-default:"15"`
	BrushColor      string        `yaml:"brush-color" env:"GOTALES_BRUSH_COLOR" env-default:"#ef4444"`
	ExportTimeout   time.Duration `yaml:"export-timeout" env:"GOTALES_EXPORT_TIMEOUT" env-default:"10s"`
	GalleryCapacity int           `yaml:"gallery-capacity" env:"GOTALES_GALLERY_CAPACITY" env-default:"0"`
}

// Timing converts the delays to the game engine's.
func (g Game) Timing() game.Timing {
	return game.Timing{
		MatchDelay:     g.MatchDelay,
		MismatchDelay:  g.MismatchDelay,
		WonDelay:       g.WonDelay,
		UnlockDelay:    g.UnlockDelay,
		LockResetDelay: g.LockResetDelay,
	}
}

// Brush is the brush selected when the canvas opens.
func (c Canvas) Brush() canvas.Brush {
	return canvas.Brush{Color: c.BrushColor, Width: canvas.ClampWidth(c.BrushWidth)}
}

// Load reads the configuration from the YAML file at path, with environment overrides.
// If path is empty or the file does not exist, only the environment and defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("unable to load config file %q: %w", path, err)
			}
			return cfg, cfg.Validate()
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file %q: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to read configuration from environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports settings the app cannot work with.
func (c *Config) Validate() error {
	if c.Game.PairCount < 1 {
		return fmt.Errorf("game.pair-count must be at least 1, got %d", c.Game.PairCount)
	}
	if c.Game.LockLength < 1 || c.Game.LockLength > len(game.LockKeypad) {
		return fmt.Errorf("game.lock-length must be between 1 and %d, got %d", len(game.LockKeypad), c.Game.LockLength)
	}
	if c.Canvas.GalleryCapacity < 0 {
		return fmt.Errorf("canvas.gallery-capacity must not be negative, got %d", c.Canvas.GalleryCapacity)
	}
	return nil
}

// Usage returns the description of every environment variable, for the CLI help.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return desc
}

// ClientEnvKey is the go-app environment variable carrying the encoded Client configuration.
const ClientEnvKey = "GOTALES_CLIENT_CONFIG"

// Encode marshals the client configuration for ClientEnvKey.
func (c Client) Encode() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding client config: %w", err)
	}
	return string(data), nil
}

// DefaultClient returns the client configuration defaults.
func DefaultClient() Client {
	var c Client
	// Filling defaults from the struct tags only fails on malformed tags.
	if err := cleanenv.ReadEnv(&c); err != nil {
		panic(err)
	}
	return c
}

// DecodeClient decodes a configuration produced by Encode over the defaults, so that keys
// missing from encoded keep their default values.
func DecodeClient(encoded string) (Client, error) {
	c := DefaultClient()
	if encoded == "" {
		return c, nil
	}
	if err := yaml.Unmarshal([]byte(encoded), &c); err != nil {
		return DefaultClient(), fmt.Errorf("decoding client config: %w", err)
	}
	return c, nil
}
