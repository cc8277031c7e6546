// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = ":8080"
	DefaultModel       = "gemini-2.5-flash-image"
	DefaultAspectRatio = "1:1"
	DefaultStyle       = "Photorealistic"
)

var DefaultStyles = []string{"Photorealistic", "Cartoon", "Oil Painting", "Pixel Art", "3D Render"}

var DefaultPrompts = []string{
	"als DJ auf einer riesigen Techno-Party",
	"reitet auf einem T-Rex durch New York",
	"im Weltraumanzug auf dem Mond",
	"als König auf einem Thron aus Wassermelonen",
	"beim Skateboarden in einem aktiven Vulkan",
	"als 5-Sterne Koch beim Zubereiten von Sushi",
	"als Rapper mit dicker Goldkette in einem Musikvideo",
	"beim Yoga im tiefsten Dschungel",
	"als cooler Hacker in einem Cyberpunk-Labor",
	"beim Entspannen in einem Whirlpool voller Orangen",
	"als Piratenkapitän auf hoher See",
	"als CEO bei einem wichtigen Business-Meeting",
}

// Config holds everything except the API credential, which is read at
// generation time so it never sits in a long-lived struct.
type Config struct {
	Addr         string   `yaml:"addr"`
	Model        string   `yaml:"model"`
	AspectRatio  string   `yaml:"aspect_ratio"`
	KeyParam     string   `yaml:"key_param"`
	PromptsParam string   `yaml:"prompts_param"`
	Prompts      []string `yaml:"prompts"`
	Styles       []string `yaml:"styles"`
	DefaultStyle string   `yaml:"default_style"`
	PublicURL    string   `yaml:"public_url"`
	LogLevel     string   `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Addr:         DefaultAddr,
		Model:        DefaultModel,
		AspectRatio:  DefaultAspectRatio,
		Prompts:      append([]string(nil), DefaultPrompts...),
		Styles:       append([]string(nil), DefaultStyles...),
		DefaultStyle: DefaultStyle,
		LogLevel:     "info",
	}
}

// Load applies the YAML file at path (skipped when path is empty) and then
// environment overrides on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	c.Addr = lo.Ternary(getenv("CAPY_ADDR") != "", getenv("CAPY_ADDR"), c.Addr)
	c.Model = lo.Ternary(getenv("GEMINI_MODEL") != "", getenv("GEMINI_MODEL"), c.Model)
	c.KeyParam = lo.Ternary(getenv("API_KEY_PARAM") != "", getenv("API_KEY_PARAM"), c.KeyParam)
	c.PromptsParam = lo.Ternary(getenv("PROMPTS_PARAM") != "", getenv("PROMPTS_PARAM"), c.PromptsParam)
	c.PublicURL = lo.Ternary(getenv("PUBLIC_URL") != "", getenv("PUBLIC_URL"), c.PublicURL)
	c.LogLevel = lo.Ternary(getenv("LOG_LEVEL") != "", getenv("LOG_LEVEL"), c.LogLevel)
}

func (c Config) Validate() error {
	styles := lo.Filter(c.Styles, func(s string, _ int) bool { return strings.TrimSpace(s) != "" })
	if len(styles) == 0 {
		return fmt.Errorf("config: at least one style is required")
	}
	if !lo.Contains(styles, c.DefaultStyle) {
		return fmt.Errorf("config: default style %q is not one of %v", c.DefaultStyle, styles)
	}
	if c.PromptsParam == "" && len(lo.Compact(c.Prompts)) == 0 {
		return fmt.Errorf("config: no curated prompts configured")
	}
	if c.Model == "" {
		return fmt.Errorf("config: model is required")
	}
	return nil
}
