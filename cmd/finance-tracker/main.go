package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/finance-tracker/internal/scanning"
	"github.com/zombor/finance-tracker/internal/tracker"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// newLogger builds the process-wide slog handler
func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, want text or json", format)
	}
}

// newRecognizer picks the OCR provider. "none" reads PDF text layers only.
func newRecognizer(kind, geminiKey, geminiModel, ollamaURL, ollamaModel string) (scanning.Recognizer, error) {
	switch kind {
	case "gemini":
		if geminiKey == "" {
			geminiKey = os.Getenv("GEMINI_API_KEY")
		}
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini api key is required, set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini recognizer...", "model", geminiModel)
		gemini, err := scanning.NewGemini(geminiKey, geminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", ollamaURL, "model", ollamaModel)
		ollama, err := scanning.NewOllama(ollamaURL, ollamaModel)
		if err != nil {
			return nil, err
		}
		return ollama, nil
	case "none":
		slog.Warn("No OCR provider configured, only PDFs with a text layer can be scanned")
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid scanner type %q, want gemini, ollama or none", kind)
	}
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("finance-tracker")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "finance-tracker.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./documents", "Directory for scanned documents")
		scannerType   = fs.StringLong("scanner", "gemini", "OCR provider: 'gemini', 'ollama' or 'none'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat     = fs.StringLong("log-format", "text", "Log format: text or json")
		notifications = fs.IntLong("notifications", 50, "Number of reward notifications kept for the UI")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FINANCE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := tracker.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	recognizer, err := newRecognizer(*scannerType, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize OCR provider", "error", err)
		os.Exit(1)
	}
	reader := scanning.NewReader(recognizer)
	defer reader.Close()

	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := tracker.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	feed := tracker.NewNotificationFeed(*notifications)
	service := tracker.NewService(db, reader, store, feed)

	basicAuth := tracker.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := tracker.NewServer(service, feed, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
