package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models .raidline/config.yml. Secrets (API key, JWT secret) are
// not part of it; they come from the environment.
type Config struct {
	Bot struct {
		Marker   string `yaml:"marker"`
		Timezone string `yaml:"timezone"`
		Locale   string `yaml:"locale"`
	} `yaml:"bot"`
	Render struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"render"`
	Bungie BungieConfig `yaml:"bungie"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

type BungieConfig struct {
	BaseURL string        `yaml:"base_url"`
	Clans   []string      `yaml:"clans"`
	Workers int           `yaml:"workers"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

// Location resolves bot.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config.bot.timezone: %w", err)
	}
	return loc, nil
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with raid config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Bot.Marker == "" || strings.ContainsAny(c.Bot.Marker, " \t\n") {
		return fmt.Errorf("config.bot.marker must be a single non-empty word")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Bot.Locale != "fr" {
		return fmt.Errorf("config.bot.locale must be 'fr'")
	}
	if c.Render.PageSize < 1 {
		return fmt.Errorf("config.render.page_size must be positive")
	}
	u, err := url.Parse(c.Bungie.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.bungie.base_url must be an absolute URL")
	}
	for _, clan := range c.Bungie.Clans {
		if clan == "" {
			return fmt.Errorf("config.bungie.clans contains an empty clan id")
		}
	}
	if c.Bungie.Workers < 1 {
		return fmt.Errorf("config.bungie.workers must be positive")
	}
	if c.Bungie.Retries < 0 {
		return fmt.Errorf("config.bungie.retries must not be negative")
	}
	if c.Bungie.Backoff <= 0 {
		return fmt.Errorf("config.bungie.backoff must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".raidline", "config.yml")
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys left
// out keep their default value.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// YAML renders c back to YAML.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DefaultYAML is the commented default config file.
func DefaultYAML() string {
	return defaultTemplate
}

const defaultTemplate = `bot:
  # first word of every command
  marker: "!raid"
  timezone: Europe/Paris
  locale: fr

render:
  page_size: 4

bungie:
  base_url: https://www.bungie.net/Platform
  # group ids whose members are tracked
  clans: []
  workers: 8
  retries: 3
  backoff: 500ms

server:
  addr: 127.0.0.1:8787
  base_path: ""
`
