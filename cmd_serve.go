package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"themerec/recservice"
	"themerec/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser front end",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initLogger(false); err != nil {
		return err
	}

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := recservice.New(cfg, logger)
	logger.Info("Using recommendation service", zap.String("base_url", client.BaseURL()))

	webServer, err := web.NewServer(ctx, client, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	cleanupService := web.NewCleanupService(webServer.Store(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return web.StartWorkspaceCleanup(gctx, cfg, cleanupService, logger)
	})
	g.Go(func() error {
		port := fmt.Sprintf(":%d", cfg.WebPort)
		if err := webServer.Start(gctx, port); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	return nil
}
