package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Answer modes
const (
	AnswerModeCatalog = "catalog"
	AnswerModeOracle  = "oracle"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Transport environments
const (
	EnvLocal      = "local"
	EnvDev        = "dev"
	EnvProduction = "production"
)

// DefaultLocalRelayURL is used when xmtp.env is local and no relay_url is set.
const DefaultLocalRelayURL = "ws://localhost:5556/ws"

// ErrMissingSetting is wrapped by validation errors naming the absent key.
var ErrMissingSetting = errors.New("missing required setting")

// Config holds the application configuration
type Config struct {
	AnswerMode  string     `mapstructure:"answer_mode"`
	Persona     string     `mapstructure:"persona"`
	HelpCommand string     `mapstructure:"help_command"`
	Log         LogConfig  `mapstructure:"log"`
	LLM         LLMConfig  `mapstructure:"llm"`
	XMTP        XMTPConfig `mapstructure:"xmtp"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// XMTPConfig holds the messaging transport configuration
type XMTPConfig struct {
	Env             string `mapstructure:"env"`
	WalletKey       string `mapstructure:"wallet_key"`
	DBEncryptionKey string `mapstructure:"db_encryption_key"`
	RelayURL        string `mapstructure:"relay_url"`
	DBPath          string `mapstructure:"db_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("answer_mode", AnswerModeOracle)
	v.SetDefault("persona", "mystic")
	v.SetDefault("help_command", "/help")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("xmtp.env", EnvDev)
	v.SetDefault("xmtp.wallet_key", "")
	v.SetDefault("xmtp.db_encryption_key", "")
	v.SetDefault("xmtp.relay_url", "")
	v.SetDefault("xmtp.db_path", "")
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("MAGIC8BALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for compatibility with existing agent deployments.
	bindings := map[string][]string{
		"xmtp.wallet_key":        {"MAGIC8BALL_XMTP_WALLET_KEY", "XMTP_WALLET_KEY"},
		"xmtp.db_encryption_key": {"MAGIC8BALL_XMTP_DB_ENCRYPTION_KEY", "XMTP_DB_ENCRYPTION_KEY"},
		"xmtp.env":               {"MAGIC8BALL_XMTP_ENV", "XMTP_ENV"},
		"llm.api_key":            {"MAGIC8BALL_LLM_API_KEY", "LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Load reads config.yaml (or the file named by CONFIG_PATH) and applies
// environment overrides. A missing config.yaml is not an error.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.normalize()

	return &config, nil
}

func (c *Config) normalize() {
	c.AnswerMode = strings.ToLower(strings.TrimSpace(c.AnswerMode))
	c.HelpCommand = strings.ToLower(strings.TrimSpace(c.HelpCommand))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.XMTP.Env = strings.ToLower(strings.TrimSpace(c.XMTP.Env))
	if c.XMTP.Env == EnvLocal && c.XMTP.RelayURL == "" {
		c.XMTP.RelayURL = DefaultLocalRelayURL
	}
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	switch c.AnswerMode {
	case AnswerModeCatalog:
	case AnswerModeOracle:
		switch c.LLM.Provider {
		case ProviderOpenAI, ProviderGemini:
		default:
			return fmt.Errorf("unknown llm.provider %q (want %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderGemini)
		}
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key (or LLM_API_KEY) is required in oracle mode", ErrMissingSetting)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("%w: llm.model", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("unknown answer_mode %q (want %s or %s)", c.AnswerMode, AnswerModeCatalog, AnswerModeOracle)
	}
	if c.HelpCommand == "" {
		return fmt.Errorf("%w: help_command", ErrMissingSetting)
	}
	return nil
}

// ValidateTransport checks the settings needed to join the relay network.
func (c *Config) ValidateTransport() error {
	switch c.XMTP.Env {
	case EnvLocal, EnvDev, EnvProduction:
	default:
		return fmt.Errorf("unknown xmtp.env %q (want local, dev or production)", c.XMTP.Env)
	}
	if c.XMTP.WalletKey == "" {
		return fmt.Errorf("%w: xmtp.wallet_key (or XMTP_WALLET_KEY)", ErrMissingSetting)
	}
	if c.XMTP.RelayURL == "" {
		return fmt.Errorf("%w: xmtp.relay_url is required for env %s", ErrMissingSetting, c.XMTP.Env)
	}
	return nil
}
