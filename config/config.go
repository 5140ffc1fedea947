// Package config provides configuration management for Cognio.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Cognio.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Storage is the persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Memory is the memory store and search configuration.
	Memory MemoryConfig `mapstructure:"memory"`

	// Embedding is the embedding encoder configuration.
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// LLM is the shared language model provider configuration.
	LLM LLMConfig `mapstructure:"llm"`

	// Autotag is the automatic tagging configuration.
	Autotag AutotagConfig `mapstructure:"autotag"`

	// Summarize is the summarization configuration.
	Summarize SummarizeConfig `mapstructure:"summarize"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// RateLimit is the request rate limiting configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS support.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the client.
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the maximum age of CORS preflight cache in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// RateLimitConfig holds request rate limiting settings.
type RateLimitConfig struct {
	// Enabled enables per-client rate limiting.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request rate per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Burst is the maximum burst size per client.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Type is the storage backend (memory runs Badger in-memory, badger on disk).
	Type string `mapstructure:"type" validate:"oneof=memory badger"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// Path is the database directory path.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum size of value log files in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size"`

	// NumVersionsToKeep is the number of versions to keep per key.
	NumVersionsToKeep int `mapstructure:"num_versions_to_keep"`
}

// MemoryConfig holds memory store and search settings.
type MemoryConfig struct {
	// MaxTextLength is the maximum accepted text length in characters.
	MaxTextLength int `mapstructure:"max_text_length" validate:"min=1"`

	// SummarizeThreshold is the word count above which a summary is generated.
	SummarizeThreshold int `mapstructure:"summarize_threshold" validate:"min=1"`

	// DefaultSearchLimit is the search result limit when none is given.
	DefaultSearchLimit int `mapstructure:"default_search_limit" validate:"min=1"`

	// SimilarityThreshold is the default minimum combined score for results.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"min=0,max=1"`

	// HybridEnabled enables lexical+semantic hybrid search.
	HybridEnabled bool `mapstructure:"hybrid_enabled"`

	// HybridAlpha is the semantic weight in score fusion (0=lexical, 1=semantic).
	HybridAlpha float64 `mapstructure:"hybrid_alpha" validate:"min=0,max=1"`

	// MaxCandidates caps the lexical candidate set per search.
	MaxCandidates int `mapstructure:"max_candidates" validate:"min=1"`

	// MaxScanLimit caps the working set for relevance listing and semantic scans.
	MaxScanLimit int `mapstructure:"max_scan_limit" validate:"min=1"`

	// BM25 holds lexical ranking parameters.
	BM25 BM25Config `mapstructure:"bm25"`
}

// BM25Config holds BM25 ranking parameters.
type BM25Config struct {
	// K1 controls term frequency saturation.
	K1 float64 `mapstructure:"k1" validate:"min=0"`

	// B controls document length normalization.
	B float64 `mapstructure:"b" validate:"min=0,max=1"`
}

// EmbeddingConfig holds embedding encoder settings.
type EmbeddingConfig struct {
	// Provider is the encoder implementation (local, onnx).
	Provider string `mapstructure:"provider" validate:"oneof=local onnx"`

	// Dimension is the embedding vector dimension.
	Dimension int `mapstructure:"dimension" validate:"min=1"`

	// BatchSize is the maximum embedding batch size.
	BatchSize int `mapstructure:"batch_size" validate:"min=1"`

	// BatchTimeout is the maximum wait before flushing a partial batch.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`

	// CacheEntries is the maximum number of cached embeddings.
	CacheEntries int64 `mapstructure:"cache_entries" validate:"min=0"`

	// ModelPath is the ONNX model file path (onnx provider only).
	ModelPath string `mapstructure:"model_path"`

	// TokenizerPath is the tokenizer.json path (onnx provider only).
	TokenizerPath string `mapstructure:"tokenizer_path"`
}

// LLMConfig holds shared language model provider settings.
type LLMConfig struct {
	// Provider is the completion provider (openai, groq, anthropic).
	Provider string `mapstructure:"provider" validate:"oneof=openai groq anthropic"`

	// Model is the model identifier used for completions.
	Model string `mapstructure:"model"`

	// APIKey is the provider API key.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (used for Groq).
	BaseURL string `mapstructure:"base_url"`
}

// AutotagConfig holds automatic tagging settings.
type AutotagConfig struct {
	// Enabled enables LLM-based tag generation for untagged saves.
	Enabled bool `mapstructure:"enabled"`
}

// SummarizeConfig holds summarization settings.
type SummarizeConfig struct {
	// Enabled enables summary generation for long texts.
	Enabled bool `mapstructure:"enabled"`

	// Method is the summarization strategy (extractive, abstractive).
	Method string `mapstructure:"method" validate:"oneof=extractive abstractive"`

	// MaxSentences is the number of sentences in an extractive summary.
	MaxSentences int `mapstructure:"max_sentences" validate:"min=1"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}
