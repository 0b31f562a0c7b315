package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-app-ctld/internal/config"
	"github.com/0xADE/ade-app-ctld/internal/indexer"
	"github.com/0xADE/ade-app-ctld/internal/indexer/desktop"
	"github.com/0xADE/ade-app-ctld/internal/launcher"
	"github.com/0xADE/ade-app-ctld/internal/runindex"
	"github.com/0xADE/ade-app-ctld/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "ade-app-ctld",
		ReportTimestamp: true,
	})

	// Initialize configuration
	if err := config.Init(); err != nil {
		logger.Fatal("failed to initialize config", "err", err)
	}
	cfg := config.Get()
	logger.SetLevel(cfg.LogLevel())

	// Start config watcher
	if err := config.Run(logger.WithPrefix("config")); err != nil {
		logger.Fatal("failed to start config watcher", "err", err)
	}

	parser := desktop.NewParser(cfg.Path(), logger.WithPrefix("desktop"))
	cache := indexer.NewCache(cfg.SearchRoots, parser, logger.WithPrefix("index"))

	runs, err := runindex.NewRunIndex()
	if err != nil {
		// Ranking is optional, keep serving without it
		logger.Warn("run index unavailable", "err", err)
	} else {
		defer runs.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := server.NewServer(cfg.UnixSocket(), cache,
		launcher.NewShell(cfg.Shell(), logger.WithPrefix("launcher")),
		server.Options{
			Terminal: cfg.Terminal(),
			Runs:     runs,
			Logger:   logger.WithPrefix("server"),
		})
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	// Warm the cache so the first list is fast
	cache.Index()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("started", "socket", cfg.UnixSocket(), "roots", cfg.SearchRoots())

	select {
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig)
		cancel()
		if err := srv.Stop(); err != nil {
			logger.Error("error stopping server", "err", err)
		}
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}

	logger.Info("stopped")
}
