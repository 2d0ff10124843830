package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/harunnryd/strum/pkg/configutil"
)

// DefaultSystemPrompt is the assistant persona used when the config file does
// not override it.
const DefaultSystemPrompt = `You are an AI for a music store.

There are products available for purchase. You can recommend a product to the user.
You can get a list of products by using the getProducts tool.

You also have access to a fulfillment server that can be used to purchase products.
You can get a list of products by using the getInventory tool.
You can purchase a product by using the purchase tool.

After purchasing a product tell the customer they've made a great choice and their order will be processed soon and they will be playing their new guitar in no time.
`

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Fulfillment FulfillmentConfig `mapstructure:"fulfillment"`
	Model       VendorConfig      `mapstructure:"model"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	Assistant   AssistantConfig   `mapstructure:"assistant"`
	Observe     ObserveConfig     `mapstructure:"observability"`
}

// ObserveConfig controls the optional metrics sinks. Empty paths leave the
// corresponding sink disabled; the structured logger sink is always on.
type ObserveConfig struct {
	MetricsPath string  `mapstructure:"metrics_path"`
	TimelineDir string  `mapstructure:"timeline_dir"`
	CostDir     string  `mapstructure:"cost_dir"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	RedactPII   bool    `mapstructure:"redact_pii"`
}

type GatewayConfig struct {
	Addr       string `mapstructure:"addr"`
	CatalogURL string `mapstructure:"catalog_url"`
}

type FulfillmentConfig struct {
	Addr         string `mapstructure:"addr"`
	DatabasePath string `mapstructure:"database_path"`
	SeedFixtures bool   `mapstructure:"seed_fixtures"`
}

// VendorConfig selects a provider plus its free-form settings block.
type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// OpenAISettings is the decoded settings block for the openai provider.
type OpenAISettings struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

var openAISchema = configutil.Schema{
	Required: []string{"api_key", "model"},
	Optional: []string{"base_url"},
}

// DecodeOpenAI validates and decodes the model settings for the openai
// provider. A missing api_key is a startup failure, never a silent fallback.
func (v VendorConfig) DecodeOpenAI() (OpenAISettings, error) {
	if err := configutil.ValidateSettings(v.Settings, openAISchema); err != nil {
		return OpenAISettings{}, fmt.Errorf("model.settings: %w", err)
	}
	var out OpenAISettings
	if err := configutil.DecodeSettings(v.Settings, &out); err != nil {
		return OpenAISettings{}, fmt.Errorf("model.settings: %w", err)
	}
	return out, nil
}

// ToolsConfig points the gateway at its tool provider. Transport is a spec
// like "sse://localhost:8081" or "stdio://go run ./cmd/ordertools".
type ToolsConfig struct {
	Transport          string `mapstructure:"transport"`
	CallTimeoutMS      int    `mapstructure:"call_timeout_ms"`
	HandshakeTimeoutMS int    `mapstructure:"handshake_timeout_ms"`
}

type AssistantConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxSteps     int    `mapstructure:"max_steps"`
}

// Load reads a config file, applies defaults, and expands ${ENV} references
// in string values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("gateway.addr", ":8080")
	v.SetDefault("gateway.catalog_url", "")
	v.SetDefault("fulfillment.addr", ":8090")
	v.SetDefault("fulfillment.database_path", "")
	v.SetDefault("fulfillment.seed_fixtures", true)
	v.SetDefault("model.provider", "openai")
	v.SetDefault("tools.transport", "")
	v.SetDefault("tools.call_timeout_ms", 15000)
	v.SetDefault("tools.handshake_timeout_ms", 5000)
	v.SetDefault("assistant.system_prompt", DefaultSystemPrompt)
	v.SetDefault("assistant.max_steps", 20)
	v.SetDefault("observability.metrics_path", "")
	v.SetDefault("observability.timeline_dir", "")
	v.SetDefault("observability.cost_dir", "")
	v.SetDefault("observability.sample_rate", 1.0)
	v.SetDefault("observability.redact_pii", false)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	expandEnv(&cfg)
	return cfg, nil
}

// ValidateGateway checks the fields the gateway binary needs.
func (c Config) ValidateGateway() error {
	if strings.TrimSpace(c.Model.Provider) == "" {
		return fmt.Errorf("model.provider is required")
	}
	if strings.TrimSpace(c.Tools.Transport) == "" {
		return fmt.Errorf("tools.transport is required")
	}
	return configutil.RequireString(c.Gateway.Addr, "gateway.addr")
}

// ValidateFulfillment checks the fields the fulfillment binary needs.
func (c Config) ValidateFulfillment() error {
	return configutil.RequireString(c.Fulfillment.Addr, "fulfillment.addr")
}

func expandEnv(cfg *Config) {
	cfg.LogLevel = os.ExpandEnv(cfg.LogLevel)
	cfg.LogFormat = os.ExpandEnv(cfg.LogFormat)
	cfg.Gateway.Addr = os.ExpandEnv(cfg.Gateway.Addr)
	cfg.Gateway.CatalogURL = os.ExpandEnv(cfg.Gateway.CatalogURL)
	cfg.Fulfillment.Addr = os.ExpandEnv(cfg.Fulfillment.Addr)
	cfg.Fulfillment.DatabasePath = os.ExpandEnv(cfg.Fulfillment.DatabasePath)
	cfg.Tools.Transport = os.ExpandEnv(cfg.Tools.Transport)
	cfg.Observe.MetricsPath = os.ExpandEnv(cfg.Observe.MetricsPath)
	cfg.Observe.TimelineDir = os.ExpandEnv(cfg.Observe.TimelineDir)
	cfg.Observe.CostDir = os.ExpandEnv(cfg.Observe.CostDir)
	cfg.Model.Settings = expandSettings(cfg.Model.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	for k, val := range settings {
		if s, ok := val.(string); ok {
			settings[k] = os.ExpandEnv(s)
		}
	}
	return settings
}
