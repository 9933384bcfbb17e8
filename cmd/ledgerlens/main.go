package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ledgerlens/ledgerlens/internal/bill"
	"github.com/ledgerlens/ledgerlens/internal/extract"
	"github.com/ledgerlens/ledgerlens/internal/metrics"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional; deployments usually set the environment directly
	_ = godotenv.Load()

	fs := ff.NewFlagSet("ledgerlens")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		storeType    = fs.StringLong("store", "bolt", "Store type: 'bolt' or 'mongo'")
		dbPath       = fs.StringLong("db", "ledgerlens.db", "BoltDB file path")
		mongoURI     = fs.StringLong("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
		mongoDB      = fs.StringLong("mongo-db", "ledgerlens", "MongoDB database name")
		archivePath  = fs.StringLong("archive", "./bills", "Archive directory for original files")
		providerType = fs.StringLong("provider", "gemini", "Extraction provider: 'gemini', 'ollama' or 'openai'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		openaiKey    = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel  = fs.StringLong("openai-model", "gpt-4o-mini", "OpenAI model name")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("LEDGERLENS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize store
	var store bill.Store
	var err error
	switch *storeType {
	case "bolt":
		slog.Info("Initializing BoltDB store...", "path", *dbPath)
		store, err = bill.NewBoltStore(*dbPath)
	case "mongo":
		slog.Info("Initializing MongoDB store...", "uri", *mongoURI, "database", *mongoDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = bill.NewMongoStore(ctx, *mongoURI, *mongoDB)
		cancel()
	default:
		slog.Error("Invalid store type", "type", *storeType, "valid", "bolt or mongo")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize extraction provider
	var provider extract.Extractor
	switch *providerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini provider...", "model", *geminiModel)
		provider, err = extract.NewGemini(apiKey, *geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama provider...", "url", *ollamaURL, "model", *ollamaModel)
		provider, err = extract.NewOllama(*ollamaURL, *ollamaModel)
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OpenAI provider...", "model", *openaiModel)
		provider, err = extract.NewOpenAI(apiKey, *openaiModel)
	default:
		slog.Error("Invalid provider type", "type", *providerType, "valid", "gemini, ollama or openai")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize provider", "error", err)
		os.Exit(1)
	}

	// Failing providers stop receiving calls until they recover
	extractor := extract.NewResilient(provider)
	defer extractor.Close()

	// Initialize archive
	slog.Info("Initializing archive...", "path", *archivePath)
	archive, err := bill.NewLocalArchive(*archivePath)
	if err != nil {
		slog.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	billService := bill.NewService(store, extractor, archive)

	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := bill.NewServer(billService, basicAuth, m)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
