package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/runger/nlfind/internal/nlparse"
)

// Config represents the nlfind configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	UI      UIConfig      `yaml:"ui"`
	History HistoryConfig `yaml:"history"`
}

// LLMConfig holds language-model settings for query parsing.
type LLMConfig struct {
	Provider       string  `yaml:"provider"`        // openai, ollama, claude-cli, or auto
	Model          string  `yaml:"model"`           // Provider-specific model name
	APIKey         string  `yaml:"-"`               // From OPENAI_API_KEY, never persisted
	BaseURL        string  `yaml:"base_url"`        // API endpoint override (e.g. local Ollama)
	Temperature    float64 `yaml:"temperature"`     // Sampling temperature
	MaxTokens      int     `yaml:"max_tokens"`      // Response token cap
	TimeoutSeconds int     `yaml:"timeout_seconds"` // Per-request timeout
}

// ExtraArgsConfig holds per-backend extra command-line flags.
// Values are shell-style strings, split with shlex at invocation.
type ExtraArgsConfig struct {
	Fd      string `yaml:"fd"`
	Find    string `yaml:"find"`
	Indexed string `yaml:"indexed"`
}

// SearchConfig holds search behavior settings.
type SearchConfig struct {
	DefaultRoot     string          `yaml:"default_root"`      // Empty = current directory
	DefaultLimit    int             `yaml:"default_limit"`     // Result cap (0 = unlimited)
	Backend         string          `yaml:"backend"`           // auto, indexed, fd, find, or walk
	ContentMaxBytes int64           `yaml:"content_max_bytes"` // Per-file content read cap
	ExcludeHidden   bool            `yaml:"exclude_hidden"`    // Skip dotfiles by default
	ExtraArgs       ExtraArgsConfig `yaml:"extra_args"`        // Per-backend extra flags
}

// UIConfig holds output and TUI settings.
type UIConfig struct {
	Color string `yaml:"color"` // auto, always, or never
}

// HistoryConfig holds search history settings.
type HistoryConfig struct {
	Enabled    bool `yaml:"enabled"`     // Record searches to the local database
	MaxEntries int  `yaml:"max_entries"` // Entries kept before pruning
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "auto",
			Model:          nlparse.DefaultOpenAIModel,
			BaseURL:        "",
			Temperature:    0.0,
			MaxTokens:      1024,
			TimeoutSeconds: 30,
		},
		Search: SearchConfig{
			DefaultRoot:     "",
			DefaultLimit:    1000,
			Backend:         "auto",
			ContentMaxBytes: 1048576,
			ExcludeHidden:   false,
		},
		UI: UIConfig{
			Color: "auto",
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file. The file
// is written via a temporary sibling and renamed into place.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "search.backend" or "llm.model"
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "llm":
		return c.getLLMField(field)
	case "search":
		return c.getSearchField(field)
	case "ui":
		return c.getUIField(field)
	case "history":
		return c.getHistoryField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "llm":
		return c.setLLMField(field, value)
	case "search":
		return c.setSearchField(field, value)
	case "ui":
		return c.setUIField(field, value)
	case "history":
		return c.setHistoryField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getLLMField(field string) (string, error) {
	switch field {
	case "provider":
		return c.LLM.Provider, nil
	case "model":
		return c.LLM.Model, nil
	case "base_url":
		return c.LLM.BaseURL, nil
	case "temperature":
		return strconv.FormatFloat(c.LLM.Temperature, 'g', -1, 64), nil
	case "max_tokens":
		return strconv.Itoa(c.LLM.MaxTokens), nil
	case "timeout_seconds":
		return strconv.Itoa(c.LLM.TimeoutSeconds), nil
	default:
		return "", fmt.Errorf("unknown field: llm.%s", field)
	}
}

func (c *Config) setLLMField(field, value string) error {
	switch field {
	case "provider":
		if !isValidProvider(value) {
			return fmt.Errorf("invalid provider: %s (must be openai, ollama, claude-cli, or auto)", value)
		}
		c.LLM.Provider = value
	case "model":
		c.LLM.Model = value
	case "base_url":
		c.LLM.BaseURL = value
	case "temperature":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for temperature: %w", err)
		}
		if v < 0 || v > 2 {
			return fmt.Errorf("invalid temperature: must be in [0, 2]")
		}
		c.LLM.Temperature = v
	case "max_tokens":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_tokens: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid max_tokens: must be positive")
		}
		c.LLM.MaxTokens = v
	case "timeout_seconds":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for timeout_seconds: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid timeout_seconds: must be positive")
		}
		c.LLM.TimeoutSeconds = v
	default:
		return fmt.Errorf("unknown field: llm.%s", field)
	}
	return nil
}

func (c *Config) getSearchField(field string) (string, error) {
	switch field {
	case "default_root":
		return c.Search.DefaultRoot, nil
	case "default_limit":
		return strconv.Itoa(c.Search.DefaultLimit), nil
	case "backend":
		return c.Search.Backend, nil
	case "content_max_bytes":
		return strconv.FormatInt(c.Search.ContentMaxBytes, 10), nil
	case "exclude_hidden":
		return strconv.FormatBool(c.Search.ExcludeHidden), nil
	default:
		return "", fmt.Errorf("unknown field: search.%s", field)
	}
}

func (c *Config) setSearchField(field, value string) error {
	switch field {
	case "default_root":
		c.Search.DefaultRoot = value
	case "default_limit":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for default_limit: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid default_limit: must be non-negative")
		}
		c.Search.DefaultLimit = v
	case "backend":
		if !isValidBackend(value) {
			return fmt.Errorf("invalid backend: %s (must be auto, indexed, fd, find, or walk)", value)
		}
		c.Search.Backend = value
	case "content_max_bytes":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for content_max_bytes: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid content_max_bytes: must be positive")
		}
		c.Search.ContentMaxBytes = v
	case "exclude_hidden":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for exclude_hidden: %w", err)
		}
		c.Search.ExcludeHidden = v
	default:
		return fmt.Errorf("unknown field: search.%s", field)
	}
	return nil
}

func (c *Config) getUIField(field string) (string, error) {
	switch field {
	case "color":
		return c.UI.Color, nil
	default:
		return "", fmt.Errorf("unknown field: ui.%s", field)
	}
}

func (c *Config) setUIField(field, value string) error {
	switch field {
	case "color":
		if !isValidColorMode(value) {
			return fmt.Errorf("invalid color: %s (must be auto, always, or never)", value)
		}
		c.UI.Color = value
	default:
		return fmt.Errorf("unknown field: ui.%s", field)
	}
	return nil
}

func (c *Config) getHistoryField(field string) (string, error) {
	switch field {
	case "enabled":
		return strconv.FormatBool(c.History.Enabled), nil
	case "max_entries":
		return strconv.Itoa(c.History.MaxEntries), nil
	default:
		return "", fmt.Errorf("unknown field: history.%s", field)
	}
}

func (c *Config) setHistoryField(field, value string) error {
	switch field {
	case "enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for enabled: %w", err)
		}
		c.History.Enabled = v
	case "max_entries":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_entries: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid max_entries: must be non-negative")
		}
		c.History.MaxEntries = v
	default:
		return fmt.Errorf("unknown field: history.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidProvider(c.LLM.Provider) {
		return fmt.Errorf("llm.provider must be openai, ollama, claude-cli, or auto (got: %s)", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be in [0, 2]")
	}

	if !isValidBackend(c.Search.Backend) {
		return fmt.Errorf("search.backend must be auto, indexed, fd, find, or walk (got: %s)", c.Search.Backend)
	}

	if c.Search.DefaultLimit < 0 {
		return errors.New("search.default_limit must be >= 0")
	}

	if !isValidColorMode(c.UI.Color) {
		return fmt.Errorf("ui.color must be auto, always, or never (got: %s)", c.UI.Color)
	}

	if c.History.MaxEntries < 0 {
		return errors.New("history.max_entries must be >= 0")
	}

	// Fix what can be fixed rather than refusing to start.
	c.ValidateAndFix()

	return nil
}

func isValidProvider(provider string) bool {
	switch provider {
	case "openai", "ollama", "claude-cli", "auto":
		return true
	default:
		return false
	}
}

func isValidBackend(backend string) bool {
	switch backend {
	case "auto", "indexed", "fd", "find", "walk":
		return true
	default:
		return false
	}
}

func isValidColorMode(mode string) bool {
	switch mode {
	case "auto", "always", "never":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the
// config. Environment variables override config file values. The API
// key only ever comes from the environment.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("NLFIND_PROVIDER"); v != "" {
		if isValidProvider(v) {
			c.LLM.Provider = v
		}
	}
	if v := os.Getenv("NLFIND_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("NLFIND_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("NLFIND_BACKEND"); v != "" {
		if isValidBackend(v) {
			c.Search.Backend = v
		}
	}
	if v := os.Getenv("NLFIND_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"llm.provider",
		"llm.model",
		"llm.base_url",
		"llm.temperature",
		"llm.max_tokens",
		"llm.timeout_seconds",
		"search.default_root",
		"search.default_limit",
		"search.backend",
		"search.content_max_bytes",
		"search.exclude_hidden",
		"ui.color",
		"history.enabled",
		"history.max_entries",
	}
}

// ExtraArgsFor returns the shlex-split extra flags configured for the
// named backend. Unknown names and empty settings yield nil.
func (s *SearchConfig) ExtraArgsFor(name string) ([]string, error) {
	var raw string
	switch name {
	case "fd":
		raw = s.ExtraArgs.Fd
	case "find":
		raw = s.ExtraArgs.Find
	case "indexed":
		raw = s.ExtraArgs.Indexed
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	args, err := shlex.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid extra_args for %s: %w", name, err)
	}
	return args, nil
}

// ValidationWarning represents a config validation warning.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidateAndFix repairs out-of-range numeric values by falling back
// to defaults or clamping. Returns a list of warnings for
// diagnostics. Validation never prevents startup.
func (c *Config) ValidateAndFix() []ValidationWarning {
	defaults := DefaultConfig()
	var warnings []ValidationWarning

	warn := func(field, msg string) {
		w := ValidationWarning{Field: field, Message: msg}
		warnings = append(warnings, w)
		log.Printf("WARN config: %s: %s", field, msg)
	}

	// --- Positive counts (fall back to default) ---
	counts := []struct {
		name string
		val  *int
		def  int
	}{
		{"llm.max_tokens", &c.LLM.MaxTokens, defaults.LLM.MaxTokens},
		{"llm.timeout_seconds", &c.LLM.TimeoutSeconds, defaults.LLM.TimeoutSeconds},
	}
	for _, ct := range counts {
		if *ct.val < 1 {
			warn(ct.name, fmt.Sprintf("must be >= 1, got %d; falling back to default %d", *ct.val, ct.def))
			*ct.val = ct.def
		}
	}

	// --- Temperature (clamp to [0.0, 2.0]) ---
	if c.LLM.Temperature < 0 {
		warn("llm.temperature", fmt.Sprintf("must be >= 0.0, got %f; clamping to 0.0", c.LLM.Temperature))
		c.LLM.Temperature = 0
	}
	if c.LLM.Temperature > 2 {
		warn("llm.temperature", fmt.Sprintf("must be <= 2.0, got %f; clamping to 2.0", c.LLM.Temperature))
		c.LLM.Temperature = 2
	}

	// --- Content read cap (must be >= 1) ---
	if c.Search.ContentMaxBytes < 1 {
		warn("search.content_max_bytes", fmt.Sprintf("must be >= 1, got %d; falling back to default %d",
			c.Search.ContentMaxBytes, defaults.Search.ContentMaxBytes))
		c.Search.ContentMaxBytes = defaults.Search.ContentMaxBytes
	}

	// --- Result limit (>= 0; 0 = unlimited) ---
	if c.Search.DefaultLimit < 0 {
		warn("search.default_limit", fmt.Sprintf("must be >= 0, got %d; falling back to default %d",
			c.Search.DefaultLimit, defaults.Search.DefaultLimit))
		c.Search.DefaultLimit = defaults.Search.DefaultLimit
	}

	// --- History cap (>= 0; 0 = unlimited) ---
	if c.History.MaxEntries < 0 {
		warn("history.max_entries", fmt.Sprintf("must be >= 0, got %d; falling back to default %d",
			c.History.MaxEntries, defaults.History.MaxEntries))
		c.History.MaxEntries = defaults.History.MaxEntries
	}

	return warnings
}
