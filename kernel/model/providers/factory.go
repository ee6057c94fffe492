package providers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/quillback/studium/kernel/model"
)

// Factory builds model providers from alias configs.
type Factory struct {
	configs map[string]Config
}

// NewFactory returns an empty provider factory.
func NewFactory() *Factory {
	return &Factory{configs: map[string]Config{}}
}

// Register adds or overwrites one alias config.
func (f *Factory) Register(cfg Config) error {
	if f == nil {
		return fmt.Errorf("providers: factory is nil")
	}
	alias := strings.ToLower(strings.TrimSpace(cfg.Alias))
	if alias == "" {
		return fmt.Errorf("providers: alias is required")
	}
	if cfg.API != APIOpenAI && cfg.API != APIOpenAICompatible && cfg.API != APIAnthropic {
		return fmt.Errorf("providers: unsupported api type %q", cfg.API)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("providers: model is required for alias %q", alias)
	}
	cfg.Alias = alias
	f.configs[alias] = cfg
	return nil
}

// NewByAlias creates a model provider by alias.
func (f *Factory) NewByAlias(alias string) (model.LLM, error) {
	if f == nil {
		return nil, fmt.Errorf("providers: factory is nil")
	}
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return nil, fmt.Errorf("providers: model alias is required")
	}
	cfg, ok := f.configs[alias]
	if !ok {
		return nil, fmt.Errorf("providers: unknown model alias %q", alias)
	}
	token, err := resolveToken(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("providers: alias %q: %w", alias, err)
	}

	switch cfg.API {
	case APIOpenAI, APIOpenAICompatible:
		return newOpenAICompat(cfg, token), nil
	case APIAnthropic:
		return newAnthropic(cfg, token), nil
	default:
		return nil, fmt.Errorf("providers: unsupported api type %q", cfg.API)
	}
}

// ListModels returns available aliases from current factory.
func (f *Factory) ListModels() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.configs))
	for k := range f.configs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func resolveToken(cfg AuthConfig) (string, error) {
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return token, nil
	}
	env := strings.TrimSpace(cfg.TokenEnv)
	if env == "" {
		return "", fmt.Errorf("auth token is empty and no token env is configured")
	}
	if token := strings.TrimSpace(os.Getenv(env)); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("env %s is not set", env)
}
