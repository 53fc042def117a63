package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/config"
	"github.com/aliskhannn/plannerbot/internal/logger"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Run the HTTP webhook server",
	RunE:  runWebhook,
}

func init() {
	rootCmd.AddCommand(webhookCmd)
}

func runWebhook(_ *cobra.Command, _ []string) error {
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

	if cfg.WebhookBaseURL != "" {
		webhookURL := strings.TrimRight(cfg.WebhookBaseURL, "/") + "/webhook"
		wh, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			return err
		}
		if _, err := a.bot.Request(wh); err != nil {
			lg.Error("register webhook failed", zap.Error(err))
		}
	}

	a.runBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.api.App.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		lg.Info("shutdown signal received")
		return a.api.App.ShutdownWithContext(ctx)
	case err := <-errCh:
		return err
	}
}
