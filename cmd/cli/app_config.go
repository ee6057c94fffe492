package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quillback/studium/kernel/model/providers"
)

const appName = "studium"

// appConfig is the persisted application configuration.
type appConfig struct {
	DefaultModel  string           `yaml:"default_model"`
	Providers     []providerRecord `yaml:"providers"`
	ChunkSize     int              `yaml:"chunk_size"`
	ChunkOverlap  int              `yaml:"chunk_overlap"`
	MaxResults    int              `yaml:"max_results"`
	MaxToolRounds int              `yaml:"max_tool_rounds"`
	MaxHistory    int              `yaml:"max_history"`
	DocsDir       string           `yaml:"docs_dir"`
}

type providerRecord struct {
	Alias           string `yaml:"alias"`
	Provider        string `yaml:"provider"`
	API             string `yaml:"api"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	TimeoutSeconds  int    `yaml:"timeout_seconds,omitempty"`
	MaxOutputTokens int    `yaml:"max_output_tokens,omitempty"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		DefaultModel: "claude",
		Providers: []providerRecord{
			{
				Alias:     "claude",
				Provider:  "anthropic",
				API:       string(providers.APIAnthropic),
				Model:     "claude-sonnet-4-20250514",
				BaseURL:   "https://api.anthropic.com/v1",
				APIKeyEnv: "ANTHROPIC_API_KEY",
			},
			{
				Alias:     "gpt",
				Provider:  "openai",
				API:       string(providers.APIOpenAI),
				Model:     "gpt-4o-mini",
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
			},
		},
		ChunkSize:     800,
		ChunkOverlap:  100,
		MaxResults:    5,
		MaxToolRounds: 2,
		MaxHistory:    2,
		DocsDir:       "docs",
	}
}

// loadOrInitAppConfig reads the config file, writing the defaults on first
// use so the user has something to edit.
func loadOrInitAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return appConfig{}, fmt.Errorf("cli config: read %q: %w", path, err)
		}
		if err := writeAppConfig(path, cfg); err != nil {
			return appConfig{}, err
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return appConfig{}, fmt.Errorf("cli config: parse %q: %w", path, err)
	}
	mergeAppConfigDefaults(&cfg)
	return cfg, nil
}

func writeAppConfig(path string, cfg appConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cli config: create dir: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cli config: marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("cli config: write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cli config: rename: %w", err)
	}
	return nil
}

// mergeAppConfigDefaults fills gaps in a user-edited config.
func mergeAppConfigDefaults(cfg *appConfig) {
	if cfg == nil {
		return
	}
	def := defaultAppConfig()
	cfg.DefaultModel = strings.ToLower(strings.TrimSpace(cfg.DefaultModel))
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = def.DefaultModel
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = def.Providers
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if strings.TrimSpace(cfg.DocsDir) == "" {
		cfg.DocsDir = def.DocsDir
	}
}

// providerConfigs converts the persisted records into registrations.
func (c appConfig) providerConfigs() []providers.Config {
	out := make([]providers.Config, 0, len(c.Providers))
	for _, rec := range c.Providers {
		alias := strings.ToLower(strings.TrimSpace(rec.Alias))
		if alias == "" {
			continue
		}
		cfg := providers.Config{
			Alias:        alias,
			Provider:     strings.TrimSpace(rec.Provider),
			API:          providers.APIType(strings.TrimSpace(rec.API)),
			Model:        strings.TrimSpace(rec.Model),
			BaseURL:      strings.TrimSpace(rec.BaseURL),
			MaxOutputTok: rec.MaxOutputTokens,
			Auth:         providers.AuthConfig{TokenEnv: strings.TrimSpace(rec.APIKeyEnv)},
		}
		if rec.TimeoutSeconds > 0 {
			cfg.Timeout = time.Duration(rec.TimeoutSeconds) * time.Second
		}
		out = append(out, cfg)
	}
	return out
}

func buildFactory(cfg appConfig) (*providers.Factory, error) {
	factory := providers.NewFactory()
	for _, pc := range cfg.providerConfigs() {
		if err := factory.Register(pc); err != nil {
			return nil, fmt.Errorf("cli config: provider %q: %w", pc.Alias, err)
		}
	}
	return factory, nil
}

func appDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cli config: resolve user home: %w", err)
	}
	return filepath.Join(home, "."+appName), nil
}

func configFilePath() (string, error) {
	root, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "config.yaml"), nil
}

func sessionIndexPath() (string, error) {
	root, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "sessions", "session_index.db"), nil
}

func transcriptsPath() (string, error) {
	root, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "sessions", "transcripts"), nil
}

func historyFilePath() (string, error) {
	root, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "history", "cli.history"), nil
}
