package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/config"
	"github.com/aliskhannn/plannerbot/internal/logger"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the long-polling daemon",
	RunE:  runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
}

func runPoll(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	a, err := wireApp(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.close()

	lg.Info("authorized on account", zap.String("username", a.bot.Self.UserName))

	a.runBackground(ctx)

	go func() {
		if err := a.api.App.Listen(cfg.HTTPAddr); err != nil {
			lg.Error("http server stopped", zap.Error(err))
		}
	}()

	if err := a.handler.Run(ctx); err != nil && ctx.Err() == nil {
		lg.Error("handler run failed", zap.Error(err))
	}

	<-ctx.Done()
	lg.Info("shutdown signal received")
	return nil
}
