package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/config"
	"github.com/tgassist/tgassist/internal/domain"
	logpkg "github.com/tgassist/tgassist/internal/logger"
	"github.com/tgassist/tgassist/internal/repository/metadata"
	openaiTransport "github.com/tgassist/tgassist/internal/transport/openai"
	"github.com/tgassist/tgassist/internal/usecase/summarize"
	"github.com/tgassist/tgassist/internal/version"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 when every file was described.
func run() int {
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	inputDir := flag.String("input", cfg.Summarizer.InputDir, "directory with .txt and .pdf files")
	outputPath := flag.String("output", cfg.Summarizer.OutputPath, "metadata JSON file to update")
	flag.Parse()

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting summarizer",
		zap.String("version", version.Version),
		zap.String("model", cfg.Summarizer.Model),
		zap.String("output", *outputPath),
	)

	completer, err := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:    cfg.Summarizer.APIKey,
		BaseURL:   cfg.Summarizer.BaseURL,
		Model:     cfg.Summarizer.Model,
		MaxTokens: cfg.Summarizer.MaxTokens,
		Logger:    logger,
	})
	if errors.Is(err, domain.ErrMissingAPIKey) {
		logger.Error("summarizer.api_key is not set")
		return 1
	}
	if err != nil {
		logger.Error("Failed to create completer", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Every line of one batch carries the same run id.
	ctx = logpkg.ContextWithLogger(ctx, logger.With(zap.String("run_id", uuid.NewString())))

	svc := summarize.New(completer, metadata.NewFileStore(*outputPath))

	// Explicit files win over the input directory.
	var sum summarize.Summary
	if files := flag.Args(); len(files) > 0 {
		sum = svc.ProcessFiles(ctx, files)
	} else {
		sum, err = svc.ProcessDir(ctx, *inputDir)
		if errors.Is(err, summarize.ErrNoFiles) {
			logger.Warn("No files found", zap.String("dir", *inputDir))
			return 0
		}
		if err != nil {
			logger.Error("Failed to list input files", zap.Error(err))
			return 1
		}
	}

	for path, ferr := range sum.Failures {
		logger.Error("File failed", zap.String("path", path), zap.Error(ferr))
	}
	if sum.Failed > 0 {
		return 1
	}
	return 0
}
