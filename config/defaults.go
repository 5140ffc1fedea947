package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "cognio",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
				MaxAge:         300,
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path:              "./data/cognio",
				SyncWrites:        true,
				ValueLogFileSize:  1073741824, // 1GB
				NumVersionsToKeep: 1,
			},
		},
		Memory: MemoryConfig{
			MaxTextLength:       10000,
			SummarizeThreshold:  50,
			DefaultSearchLimit:  5,
			SimilarityThreshold: 0.7,
			HybridEnabled:       true,
			HybridAlpha:         0.6,
			MaxCandidates:       100,
			MaxScanLimit:        10000,
			BM25: BM25Config{
				K1: 1.5,
				B:  0.75,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:     "local",
			Dimension:    384,
			BatchSize:    32,
			BatchTimeout: 500 * time.Millisecond,
			CacheEntries: 100000,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Autotag: AutotagConfig{
			Enabled: false,
		},
		Summarize: SummarizeConfig{
			Enabled:      true,
			Method:       "extractive",
			MaxSentences: 3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
	}
}
