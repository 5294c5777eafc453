package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultMatchThreshold = 0.25
	defaultMatchCount     = 5

	defaultOpenAIBase     = "https://api.openai.com/v1"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultInferenceModel = "gpt-4o-mini"
)

// LLMConfig configures one language-model endpoint, either an
// OpenAI-compatible API or a local ollama server.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Key   string `yaml:"key"` // supabase service key, used as the db password
	Debug bool   `yaml:"debug"`
}

// StoreConfig selects the vector store backend. "postgres" talks to
// Supabase/pgvector, "chromem" keeps a local persistent store.
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type RetrievalConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
	MatchCount     int     `yaml:"match_count"`
}

type IngestConfig struct {
	AbortOnStoreError bool `yaml:"abort_on_store_error"`
}

// AuthConfig points at the Supabase auth (GoTrue) endpoint used by the CLI
// to resolve an owner id from credentials. The core pipeline never uses it.
type AuthConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	Inference LLMConfig       `yaml:"inference_llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "postgres"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chromemdb"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "page_records"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "openai"
	}
	if cfg.EmbedLLM.BaseURL == "" && cfg.EmbedLLM.Provider == "openai" {
		cfg.EmbedLLM.BaseURL = defaultOpenAIBase
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = defaultEmbeddingModel
	}
	if cfg.Inference.Provider == "" {
		cfg.Inference.Provider = "openai"
	}
	if cfg.Inference.BaseURL == "" && cfg.Inference.Provider == "openai" {
		cfg.Inference.BaseURL = defaultOpenAIBase
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = defaultInferenceModel
	}
	if cfg.Retrieval.MatchThreshold == 0 {
		cfg.Retrieval.MatchThreshold = defaultMatchThreshold
	}
	if cfg.Retrieval.MatchCount == 0 {
		cfg.Retrieval.MatchCount = defaultMatchCount
	}
	// The CLI key env var wins over the file so secrets stay out of yaml.
	if key := os.Getenv("OPENAI_KEY"); key != "" {
		if cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = key
		}
		if cfg.Inference.Key == "" {
			cfg.Inference.Key = key
		}
	}
	if dsn := os.Getenv("SUPABASE_URL"); dsn != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = dsn
	}
	if key := os.Getenv("SUPABASE_KEY"); key != "" && cfg.Database.Key == "" {
		cfg.Database.Key = key
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "postgres", "chromem":
	default:
		return fmt.Errorf("config: unknown store backend %q", cfg.Store.Backend)
	}
	switch cfg.EmbedLLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown embed provider %q", cfg.EmbedLLM.Provider)
	}
	switch cfg.Inference.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown inference provider %q", cfg.Inference.Provider)
	}
	return nil
}
