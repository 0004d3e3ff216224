package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/cli"
	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/storage"
	"github.com/fastygo/todo/pkg/logger"
	taskUC "github.com/fastygo/todo/usecase/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	level := cfg.Logger.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	zapLogger, err := logger.New(logger.Config{Level: level, Encoding: "console", Output: os.Stderr})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Warn("close task store", zap.Error(err))
		}
	}()

	root := cli.NewRootCommand(taskUC.New(store, zapLogger), loc, cfg.Context.RequestTimeout)
	return root.Execute(ctx)
}
