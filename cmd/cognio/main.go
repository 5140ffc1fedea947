package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xReLogic/Cognio/config"
	"github.com/0xReLogic/Cognio/pkg/api"
	"github.com/0xReLogic/Cognio/pkg/api/handlers"
	"github.com/0xReLogic/Cognio/pkg/embedding"
	"github.com/0xReLogic/Cognio/pkg/llm"
	"github.com/0xReLogic/Cognio/pkg/logger"
	"github.com/0xReLogic/Cognio/pkg/memory"
	"github.com/0xReLogic/Cognio/pkg/metrics"
	"github.com/0xReLogic/Cognio/pkg/storage"
	"github.com/0xReLogic/Cognio/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := buildOverrides()

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Cognio",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	log.Debug("Configuration loaded", "config", cfg.String())

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Open the record store
	db, err := storage.Open(&cfg.Storage)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()
	log.Info("Initialized storage", "type", cfg.Storage.Type, "path", cfg.Storage.Badger.Path)

	// Build the embedding pipeline: raw encoder plus cache and batching
	rawEncoder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		log.Error("Failed to create embedding encoder", "error", err)
		os.Exit(1)
	}
	encoder, err := embedding.NewService(&cfg.Embedding, rawEncoder)
	if err != nil {
		log.Error("Failed to create embedding service", "error", err)
		os.Exit(1)
	}
	defer encoder.Close()
	log.Info("Initialized embedding encoder",
		"provider", cfg.Embedding.Provider,
		"dimension", cfg.Embedding.Dimension,
	)

	// Initialize metrics manager
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)
	encoder.OnBatch(metricsManager.RecordEmbeddingBatch)

	// Start metrics server if enabled
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Assemble the memory service with its optional LLM collaborators
	opts := []memory.Option{
		memory.WithLogger(log),
		memory.WithMetrics(metricsManager),
	}

	var completer llm.Completer
	if cfg.Autotag.Enabled || (cfg.Summarize.Enabled && cfg.Summarize.Method == llm.MethodAbstractive) {
		completer, err = llm.New(&cfg.LLM)
		if err != nil {
			log.Error("Failed to create LLM completer", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized LLM provider", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}
	if cfg.Autotag.Enabled {
		opts = append(opts, memory.WithTagger(llm.NewTagger(completer, log)))
	}
	if cfg.Summarize.Enabled {
		summarizer := llm.NewSummarizer(cfg.Summarize.Method, cfg.Summarize.MaxSentences, encoder, completer, log)
		opts = append(opts, memory.WithSummarizer(summarizer))
	}

	svc := memory.NewService(&cfg.Memory, memory.NewBadgerStore(db), encoder, opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error("Failed to start memory service", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server with handlers
	apiHandlers := &api.Handlers{
		Memory: handlers.NewMemoryHandler(svc, log),
		Health: handlers.NewHealthHandler(svc, cfg.App.Name, version.Version),
	}
	if metricsManager.Enabled() {
		apiHandlers.Metrics = metricsManager
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	// Start HTTP server in a separate goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("Cognio is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
	)
	log.Info("Press Ctrl+C to stop")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first
	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Stop the memory service
	log.Info("Stopping memory service")
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error("Error during service shutdown", "error", err)
	}

	log.Info("Cognio stopped gracefully")
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Cognio - Personal Memory Store\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Cognio - Persistent memory store with hybrid semantic search\n\n")
	fmt.Printf("Usage: cognio [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  cognio                                    # Run with default config\n")
	fmt.Printf("  cognio -config config.yaml                # Use specific config file\n")
	fmt.Printf("  cognio -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  cognio -version                           # Print version info\n")
}
