package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. ERPGENIE_WEBHOOK_URL.
const EnvPrefix = "ERPGENIE"

// DefaultWebhookURL is the local n8n test webhook.
const DefaultWebhookURL = "http://localhost:5678/webhook-test/a5fd8415-ce4c-4e62-860c-050437be9d1e"

// Global configuration structure.
type Global struct {
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Webhook runtime
	WebhookURL   string `mapstructure:"webhook_url" yaml:"webhook_url"`
	WebhookToken string `mapstructure:"webhook_token" yaml:"webhook_token,omitempty"`

	// OpenAI-compatible runtime
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url,omitempty"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key" yaml:"openai_api_key,omitempty"`
	OpenAIModel   string `mapstructure:"openai_model" yaml:"openai_model"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Display and output
	StreamDelayMs int    `mapstructure:"stream_delay_ms" yaml:"stream_delay_ms"`
	SessionsDir   string `mapstructure:"sessions_dir" yaml:"sessions_dir"`
	ChartsDir     string `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartWidth    int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int    `mapstructure:"chart_height" yaml:"chart_height"`

	// HTTP API
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// defaults are applied by Load and define the set of known keys.
var defaults = map[string]any{
	"provider":            "webhook",
	"webhook_url":         DefaultWebhookURL,
	"webhook_token":       "",
	"openai_base_url":     "",
	"openai_api_key":      "",
	"openai_model":        "gpt-4o-mini",
	"http_timeout_sec":    30,
	"retry_max_attempts":  1,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"stream_delay_ms":     40,
	"sessions_dir":        "",
	"charts_dir":          "./erpgenie-output",
	"chart_width":         1024,
	"chart_height":        600,
	"listen_addr":         ":8080",
}

var secretKeys = map[string]bool{"webhook_token": true, "openai_api_key": true}

// Dir returns ~/.erpgenie.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".erpgenie"), nil
}

// Path resolves the config file location; cfgFile wins when set.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.erpgenie/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SessionsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.SessionsDir = filepath.Join(dir, "sessions")
	}
	c.SessionsDir = expandHome(c.SessionsDir)
	c.ChartsDir = expandHome(c.ChartsDir)
	return &c, nil
}

// Keys lists the known configuration keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the display value of key; secrets are masked.
func (c *Global) Get(key string) (string, error) {
	var val string
	switch key {
	case "provider":
		val = c.Provider
	case "webhook_url":
		val = c.WebhookURL
	case "webhook_token":
		val = c.WebhookToken
	case "openai_base_url":
		val = c.OpenAIBaseURL
	case "openai_api_key":
		val = c.OpenAIAPIKey
	case "openai_model":
		val = c.OpenAIModel
	case "http_timeout_sec":
		val = strconv.Itoa(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		val = strconv.Itoa(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		val = strconv.Itoa(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		val = strconv.Itoa(c.RetryMaxDelayMs)
	case "stream_delay_ms":
		val = strconv.Itoa(c.StreamDelayMs)
	case "sessions_dir":
		val = c.SessionsDir
	case "charts_dir":
		val = c.ChartsDir
	case "chart_width":
		val = strconv.Itoa(c.ChartWidth)
	case "chart_height":
		val = strconv.Itoa(c.ChartHeight)
	case "listen_addr":
		val = c.ListenAddr
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
	if secretKeys[key] {
		return Mask(val), nil
	}
	return val, nil
}

// Set validates and assigns one key.
func (c *Global) Set(key, value string) error {
	value = strings.TrimSpace(value)
	intField := map[string]*int{
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
		"stream_delay_ms":     &c.StreamDelayMs,
		"chart_width":         &c.ChartWidth,
		"chart_height":        &c.ChartHeight,
	}
	if p, ok := intField[key]; ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
		*p = n
		return nil
	}
	switch key {
	case "provider":
		if value != "webhook" && value != "openai" {
			return fmt.Errorf("provider must be webhook or openai")
		}
		c.Provider = value
	case "webhook_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("webhook_url must be an http(s) URL")
		}
		c.WebhookURL = value
	case "webhook_token":
		c.WebhookToken = value
	case "openai_base_url":
		c.OpenAIBaseURL = value
	case "openai_api_key":
		c.OpenAIAPIKey = value
	case "openai_model":
		c.OpenAIModel = value
	case "sessions_dir":
		c.SessionsDir = value
	case "charts_dir":
		c.ChartsDir = value
	case "listen_addr":
		c.ListenAddr = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
