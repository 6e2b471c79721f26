package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkendall/sluice/internal/config"
	"github.com/pkendall/sluice/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	bind := flag.String("bind", "", "override api bind address (optional)")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runDaemon(ctx, *configPath, *bind, logger); err != nil {
		fmt.Fprintf(os.Stderr, "sluiced: %v\n", err)
		return 1
	}
	return 0
}

func runDaemon(ctx context.Context, configPath, bind string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bind == "" {
		bind = cfg.APIBind
	}

	pattern, err := server.ParseLogPattern(cfg.LogPattern)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		LogRoot:    cfg.LogRoot,
		LogPattern: pattern,
		Logger:     logger,
	})
	logger.Info("starting", "log_root", cfg.LogRoot, "pattern", cfg.LogPattern)
	return srv.ListenAndServe(ctx, bind)
}
