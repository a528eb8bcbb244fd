package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
answer_mode: catalog
persona: strict
help_command: " /HELP "
log:
  level: debug
llm:
  provider: openai
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
xmtp:
  env: local
  wallet_key: "0x1111111111111111111111111111111111111111111111111111111111111111"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	require.NoError(t, err)
	_, err = tmp.WriteString(body)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	return tmp.Name()
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"XMTP_WALLET_KEY", "XMTP_DB_ENCRYPTION_KEY", "XMTP_ENV",
		"LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"MAGIC8BALL_ANSWER_MODE", "MAGIC8BALL_LLM_API_KEY", "MAGIC8BALL_XMTP_WALLET_KEY",
	} {
		t.Setenv(k, "")
	}
}

// TestLoad_File verifies that Load unmarshals the YAML file and normalizes values.
func TestLoad_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, AnswerModeCatalog, cfg.AnswerMode)
	require.Equal(t, "strict", cfg.Persona)
	require.Equal(t, "/help", cfg.HelpCommand)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, 150, cfg.LLM.MaxTokens)
	require.Equal(t, EnvLocal, cfg.XMTP.Env)
	require.Equal(t, DefaultLocalRelayURL, cfg.XMTP.RelayURL)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateTransport())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("XMTP_ENV", "production")
	t.Setenv("MAGIC8BALL_ANSWER_MODE", "oracle")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvProduction, cfg.XMTP.Env)
	require.Equal(t, AnswerModeOracle, cfg.AnswerMode)
	// fallback env names override the file value
	require.Equal(t, "sk-ant", cfg.LLM.APIKey)

	err = cfg.ValidateTransport()
	require.ErrorIs(t, err, ErrMissingSetting)
	require.Contains(t, err.Error(), "xmtp.relay_url")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			AnswerMode:  AnswerModeOracle,
			HelpCommand: "/help",
			LLM:         LLMConfig{Provider: ProviderOpenAI, APIKey: "k", Model: "m"},
			XMTP:        XMTPConfig{Env: EnvDev, WalletKey: "w", RelayURL: "wss://relay"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		missing string
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "catalog needs no key", mutate: func(c *Config) { c.AnswerMode = AnswerModeCatalog; c.LLM.APIKey = "" }},
		{name: "oracle needs key", mutate: func(c *Config) { c.LLM.APIKey = "" }, missing: "llm.api_key", wantErr: true},
		{name: "unknown mode", mutate: func(c *Config) { c.AnswerMode = "tarot" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "ouija" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.missing != "" {
				require.ErrorIs(t, err, ErrMissingSetting)
				require.Contains(t, err.Error(), tt.missing)
			}
		})
	}
}

func TestValidateTransport_MissingWallet(t *testing.T) {
	c := Config{XMTP: XMTPConfig{Env: EnvDev, RelayURL: "wss://relay"}}
	err := c.ValidateTransport()
	require.ErrorIs(t, err, ErrMissingSetting)
	require.Contains(t, err.Error(), "xmtp.wallet_key")

	c.XMTP.Env = "mainnet"
	require.Error(t, c.ValidateTransport())
}
