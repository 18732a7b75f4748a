package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the config file.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Transport error policies.
const (
	TransportContinue = "continue"
	TransportFailFast = "fail_fast"
)

// Invalid output policies.
const (
	InvalidDegrade = "degrade"
	InvalidNext    = "next"
)

// DefaultModels is the Gemini fallback chain, highest preference first.
var DefaultModels = []string{
	"gemini-3.0-pro",
	"gemini-3.0-flash",
	"gemini-3.0-pro-exp",
	"gemini-3.0-flash-exp",
	"gemini-2.0-flash-thinking",
	"gemini-2.0-flash",
	"gemini-1.5-pro-latest",
	"gemini-1.5-flash-latest",
}

// credentialVars lists the env vars checked per provider, in priority order.
var credentialVars = map[string][]string{
	ProviderGemini: {"GEMINI_API_KEY", "GEMINI_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY", "LLM_API_KEY"},
}

// ErrMissingCredential is matched by every ConfigurationError.
var ErrMissingCredential = errors.New("missing model credential")

// ConfigurationError reports that none of the credential variables are set.
type ConfigurationError struct {
	Vars []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing model API key (%s)", strings.Join(e.Vars, " or "))
}

func (e *ConfigurationError) Unwrap() error { return ErrMissingCredential }

// Config holds everything the desk needs at startup.
type Config struct {
	Provider        string        `yaml:"provider"`
	BaseURL         string        `yaml:"base_url,omitempty"`
	Models          []string      `yaml:"models"`
	TransportErrors string        `yaml:"transport_errors"`
	InvalidOutput   string        `yaml:"invalid_output"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	UseModelListing *bool         `yaml:"use_model_listing,omitempty"`
	UndoCapacity    int           `yaml:"undo_capacity"`
	TargetWordCount int           `yaml:"target_word_count"`
	BannedTerms     []string      `yaml:"banned_terms,omitempty"`
	Server          ServerConfig  `yaml:"server"`
	Store           StoreConfig   `yaml:"store"`
	Log             LogConfig     `yaml:"log"`

	// APIKey is never read from the file.
	APIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	AllowedOrigins    []string `yaml:"allowed_origins,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns a config with every field populated.
func Default() Config {
	listing := true
	return Config{
		Provider:        ProviderGemini,
		Models:          append([]string(nil), DefaultModels...),
		TransportErrors: TransportContinue,
		InvalidOutput:   InvalidDegrade,
		RequestTimeout:  90 * time.Second,
		UseModelListing: &listing,
		UndoCapacity:    10,
		TargetWordCount: 150,
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerMinute: 30,
			AllowedOrigins:    []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Store: StoreConfig{Path: "racedesk.db"},
		Log:   LogConfig{Mode: "development"},
	}
}

// Load reads YAML config from disk. A missing file yields the defaults.
// The credential is resolved from the environment afterwards.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	if len(c.Models) == 0 {
		c.Models = d.Models
	}
	if c.TransportErrors == "" {
		c.TransportErrors = d.TransportErrors
	}
	if c.InvalidOutput == "" {
		c.InvalidOutput = d.InvalidOutput
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.UseModelListing == nil {
		c.UseModelListing = d.UseModelListing
	}
	if c.UndoCapacity <= 0 {
		c.UndoCapacity = d.UndoCapacity
	}
	if c.TargetWordCount <= 0 {
		c.TargetWordCount = d.TargetWordCount
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RequestsPerMinute <= 0 {
		c.Server.RequestsPerMinute = d.Server.RequestsPerMinute
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Log.Mode == "" {
		c.Log.Mode = d.Log.Mode
	}
}

// Validate checks enumerated settings. It does not look at the credential.
func (c Config) Validate() error {
	if _, ok := credentialVars[c.Provider]; !ok {
		return fmt.Errorf("llm provider %s not supported", c.Provider)
	}
	if c.Provider == ProviderOpenAI && c.BaseURL == "" && sameModels(c.Models, DefaultModels) {
		return errors.New("provider openai needs models (the default chain is Gemini-only)")
	}
	switch c.TransportErrors {
	case TransportContinue, TransportFailFast:
	default:
		return fmt.Errorf("transport_errors must be %q or %q, got %q", TransportContinue, TransportFailFast, c.TransportErrors)
	}
	switch c.InvalidOutput {
	case InvalidDegrade, InvalidNext:
	default:
		return fmt.Errorf("invalid_output must be %q or %q, got %q", InvalidDegrade, InvalidNext, c.InvalidOutput)
	}
	return nil
}

// ListModels reports whether the availability query should be used.
func (c Config) ListModels() bool {
	return c.UseModelListing == nil || *c.UseModelListing
}

// CredentialVars returns the env var names consulted for the configured provider.
func (c Config) CredentialVars() []string {
	return append([]string(nil), credentialVars[c.Provider]...)
}

// ResolveCredential reads the API key from the environment; the first
// non-empty variable wins.
func (c *Config) ResolveCredential() error {
	vars := c.CredentialVars()
	for _, name := range vars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.APIKey = v
			return nil
		}
	}
	return &ConfigurationError{Vars: vars}
}

func sameModels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
