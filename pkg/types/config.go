package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single outbound HTTP call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cite-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the paper source stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the paper source: "semantic_scholar" (default),
	// "openalex" or "arxiv".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider's paper search endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the Semantic Scholar API key sent as x-api-key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Mailto is sent to OpenAlex for polite pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// Limit is the number of papers requested per search term (default 3).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// MaxRetries bounds retries on HTTP 429 and 5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RateLimit is the maximum number of requests per second sent to the
	// search API. Zero disables client-side limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Concurrency is the number of search terms queried at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// Dedupe collapses papers returned under more than one search term.
	Dedupe bool `json:"dedupe" yaml:"dedupe" mapstructure:"dedupe"`
}

// EmbeddingProvider selects the sentence embedding backend.
type EmbeddingProvider string

const (
	EmbeddingOllama EmbeddingProvider = "ollama"
	EmbeddingOpenAI EmbeddingProvider = "openai"
)

// EmbeddingConfig holds settings for the sentence embedder shared by the
// keyword extractor and the semantic matcher.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider is "ollama" (default, all-minilm) or "openai".
	Provider EmbeddingProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Model is the embedding model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BatchSize caps the number of texts per provider call (default 256).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// KeywordConfig holds settings for keyphrase extraction.
type KeywordConfig struct {
	// TopN is the maximum number of search terms (default 5).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// MinNgram and MaxNgram bound candidate phrase length in words (default 1-3).
	MinNgram int `json:"min_ngram" yaml:"min_ngram" mapstructure:"min_ngram"`
	MaxNgram int `json:"max_ngram" yaml:"max_ngram" mapstructure:"max_ngram"`
}

// MatchConfig holds settings for the semantic matcher.
type MatchConfig struct {
	// Threshold is the strict lower bound a best score must exceed (default 0.5).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for transient API failures (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LLMProvider selects the chat completion backend.
type LLMProvider string

const (
	LLMOpenAI    LLMProvider = "openai"
	LLMAnthropic LLMProvider = "anthropic"
)

// LLMConfig holds settings for the citation synthesizer.
type LLMConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// Provider is "openai" (default) or "anthropic".
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the OpenAI-compatible API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds one chat completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig holds the optional provider response caches. Both are off by
// default.
type CacheConfig struct {
	// PapersPath is the SQLite file caching search responses per term.
	PapersPath string `json:"papers_path,omitempty" yaml:"papers_path,omitempty" mapstructure:"papers_path"`

	// PapersTTL is how long a cached search response stays valid.
	PapersTTL time.Duration `json:"papers_ttl" yaml:"papers_ttl" mapstructure:"papers_ttl"`

	// EmbeddingsLRU is the in-process embedding cache size. Zero disables it.
	EmbeddingsLRU int `json:"embeddings_lru" yaml:"embeddings_lru" mapstructure:"embeddings_lru"`

	// RedisAddr enables a shared Redis embedding cache when set.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	// EmbeddingsTTL is the Redis entry lifetime.
	EmbeddingsTTL time.Duration `json:"embeddings_ttl" yaml:"embeddings_ttl" mapstructure:"embeddings_ttl"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RequestTimeout is the hard deadline for one citation request.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// MaxBodyBytes caps the request body size.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Keywords  KeywordConfig   `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Match     MatchConfig     `json:"match" yaml:"match" mapstructure:"match"`
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used when no file or
// environment override is present.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			HTTPConfig:  HTTPConfig{Timeout: 15 * time.Second, UserAgent: "cite-engine/0.1"},
			Provider:    "semantic_scholar",
			Limit:       3,
			MaxRetries:  3,
			RateLimit:   1,
			Concurrency: 1,
		},
		Embedding: EmbeddingConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "cite-engine/0.1"},
			Provider:   EmbeddingOllama,
			Model:      "all-minilm:l6-v2",
			BatchSize:  256,
		},
		Keywords: KeywordConfig{TopN: 5, MinNgram: 1, MaxNgram: 3},
		Match:    MatchConfig{Threshold: 0.5},
		LLM: LLMConfig{
			AIConfig: AIConfig{Model: "gpt-4o-mini", MaxRetries: 2},
			Provider: LLMOpenAI,
			Timeout:  90 * time.Second,
		},
		Cache: CacheConfig{
			PapersTTL:     24 * time.Hour,
			EmbeddingsLRU: 4096,
			EmbeddingsTTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":5000",
			RequestTimeout: 3 * time.Minute,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}
