package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Pages that can request AI enhancements, in display order.
var Pages = []string{
	"dictionary",
	"news",
	"history",
	"future",
	"fleet",
	"destinations",
	"training_aircraft",
}

// Config represents the cadetprep configuration.
type Config struct {
	Provider       string          `yaml:"provider" json:"provider"`
	Gemini         GeminiConfig    `yaml:"gemini" json:"gemini"`
	Ollama         OllamaConfig    `yaml:"ollama" json:"ollama"`
	AIEnhancements map[string]bool `yaml:"ai_enhancements" json:"ai_enhancements"`
	AIDisplay      DisplayConfig   `yaml:"ai_display" json:"ai_display"`
	Cache          CacheConfig     `yaml:"cache" json:"cache"`
	Server         ServerConfig    `yaml:"server" json:"server"`
	Log            LogConfig       `yaml:"log" json:"log"`
}

// GeminiConfig configures the Google Gemini generator.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// OllamaConfig configures a local OpenAI-compatible Ollama server.
type OllamaConfig struct {
	Host  string `yaml:"host" json:"host"`
	Model string `yaml:"model" json:"model"`
}

// DisplayConfig controls how generated content is marked up.
type DisplayConfig struct {
	HighlightAIContent bool   `yaml:"highlight_ai_content" json:"highlight_ai_content"`
	IndicatorColor     string `yaml:"indicator_color" json:"indicator_color"`
	ShowDisclaimer     bool   `yaml:"show_disclaimer" json:"show_disclaimer"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	DurationHours int    `yaml:"duration_hours" json:"duration_hours"`
	Dir           string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Backend       string `yaml:"backend" json:"backend"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	enh := make(map[string]bool, len(Pages))
	for _, p := range Pages {
		enh[p] = false
	}
	return Config{
		Provider: "gemini",
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2",
		},
		AIEnhancements: enh,
		AIDisplay: DisplayConfig{
			HighlightAIContent: true,
			IndicatorColor:     "#9b59b6",
			ShowDisclaimer:     true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			DurationHours: 24,
			Backend:       "file",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8501",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// GeminiEnabled reports whether the configured generator is usable: gemini
// needs its enabled flag and a key, ollama needs neither.
func (c Config) GeminiEnabled() bool {
	if c.Provider == "ollama" {
		return true
	}
	return c.Gemini.Enabled && strings.TrimSpace(c.Gemini.APIKey) != ""
}

// AIEnabledFor reports whether AI content should be offered on page.
func (c Config) AIEnabledFor(page string) bool {
	return c.GeminiEnabled() && c.AIEnhancements[page]
}

// CacheTTL returns the cache freshness window.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.DurationHours) * time.Hour
}

// Model returns the model name for the active provider.
func (c Config) Model() string {
	if c.Provider == "ollama" {
		return c.Ollama.Model
	}
	return c.Gemini.Model
}

// Validate checks values that would otherwise fail later at use.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case "gemini", "google", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want gemini or ollama)", c.Provider))
	}
	switch c.Cache.Backend {
	case "", "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q (want file or sqlite)", c.Cache.Backend))
	}
	if c.Cache.DurationHours < 0 {
		errs = append(errs, errors.New("cache.duration_hours must not be negative"))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want console or json)", c.Log.Format))
	}
	for page := range c.AIEnhancements {
		if !knownPage(page) {
			errs = append(errs, fmt.Errorf("unknown page in ai_enhancements: %q", page))
		}
	}
	return errors.Join(errs...)
}

// ConfigDir returns the platform-appropriate config directory for cadetprep.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cadetprep"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "cadetprep"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "cadetprep"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "cadetprep"), nil
	default:
		return filepath.Join(home, ".config", "cadetprep"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return ConfigPath()
}

// LoadFile reads the config file at path (the default path when empty) on
// top of the defaults. A missing file yields the defaults and a nil error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	path, err := resolvePath(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	// Decoding onto the defaults keeps the keys the file leaves out.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.AIEnhancements == nil {
		cfg.AIEnhancements = Default().AIEnhancements
	}
	return cfg, nil
}

// Save writes cfg to path (the default path when empty).
func Save(path string, cfg Config) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(path string, overrides map[string]string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("CADETPREP_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CADETPREP_MODEL"); v != "" {
		setModel(cfg, v)
	}
	if v := os.Getenv("CADETPREP_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CADETPREP_CACHE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CADETPREP_CACHE_ENABLED: %w", err)
		}
		cfg.Cache.Enabled = b
	}
	if v := os.Getenv("CADETPREP_CACHE_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CADETPREP_CACHE_HOURS: %w", err)
		}
		cfg.Cache.DurationHours = n
	}
	if v := os.Getenv("CADETPREP_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("CADETPREP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if v != "" {
			keys = append(keys, k)
		}
	}
	// provider decides where a bare "model" lands, so it goes first.
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == "provider") != (keys[j] == "provider") {
			return keys[i] == "provider"
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

func setModel(cfg *Config, model string) {
	if cfg.Provider == "ollama" {
		cfg.Ollama.Model = model
		return
	}
	cfg.Gemini.Model = model
}

// SetField sets a single config field by dotted key name. Returns error if
// key is unknown or the value does not parse.
func SetField(cfg *Config, key, value string) error {
	if page, ok := strings.CutPrefix(key, "ai_enhancements."); ok {
		if !knownPage(page) {
			return fmt.Errorf("unknown page: %s", page)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		if cfg.AIEnhancements == nil {
			cfg.AIEnhancements = map[string]bool{}
		}
		cfg.AIEnhancements[page] = b
		return nil
	}

	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		setModel(cfg, value)
	case "gemini.api_key":
		cfg.Gemini.APIKey = value
	case "gemini.model":
		cfg.Gemini.Model = value
	case "gemini.enabled":
		return setBool(&cfg.Gemini.Enabled, key, value)
	case "ollama.host":
		cfg.Ollama.Host = value
	case "ollama.model":
		cfg.Ollama.Model = value
	case "ai_display.highlight_ai_content":
		return setBool(&cfg.AIDisplay.HighlightAIContent, key, value)
	case "ai_display.indicator_color":
		cfg.AIDisplay.IndicatorColor = value
	case "ai_display.show_disclaimer":
		return setBool(&cfg.AIDisplay.ShowDisclaimer, key, value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.duration_hours":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Cache.DurationHours = n
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.backend":
		cfg.Cache.Backend = value
	case "server.listen":
		cfg.Server.Listen = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

func knownPage(page string) bool {
	for _, p := range Pages {
		if p == page {
			return true
		}
	}
	return false
}
