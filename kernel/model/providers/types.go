package providers

import "time"

// APIType defines protocol dialect used by a model provider.
type APIType string

const (
	APIOpenAI           APIType = "openai"
	APIOpenAICompatible APIType = "openai_compatible"
	APIAnthropic        APIType = "anthropic"
)

// AuthConfig is provider-agnostic auth configuration. Token wins over
// TokenEnv when both are set.
type AuthConfig struct {
	TokenEnv string
	Token    string
}

// Config is a provider-agnostic model alias definition.
type Config struct {
	Alias        string
	Provider     string
	API          APIType
	Model        string
	BaseURL      string
	Timeout      time.Duration
	MaxOutputTok int
	Temperature  float64
	Auth         AuthConfig
}
