package main

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/api"
	"github.com/aliskhannn/plannerbot/internal/config"
	"github.com/aliskhannn/plannerbot/internal/delivery/telegram"
	"github.com/aliskhannn/plannerbot/internal/dispatch"
	"github.com/aliskhannn/plannerbot/internal/fsm"
	"github.com/aliskhannn/plannerbot/internal/infra/postgres"
	"github.com/aliskhannn/plannerbot/internal/infra/redisclient"
	"github.com/aliskhannn/plannerbot/internal/queue"
	"github.com/aliskhannn/plannerbot/internal/repository"
	"github.com/aliskhannn/plannerbot/internal/sender"
	"github.com/aliskhannn/plannerbot/internal/service"
)

// app bundles every wired component; both run modes share everything but
// the inbound update transport (long polling vs. webhook).
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	bot     *tgbotapi.BotAPI
	handler *telegram.Handler
	api     *api.Server

	dailyDispatcher  *dispatch.DailyDispatcher
	reminderDispatch *dispatch.CustomReminderDispatcher
	morningSender    *sender.MorningSender
	eveningSender    *sender.EveningSender
	reminderSender   *sender.CustomReminderSender

	pool *pgxpool.Pool
	rdb  *redis.Client
}

func wireApp(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*app, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxConns: cfg.DBMaxConns, MaxConnLifetime: cfg.DBConnLifetime})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	txr := postgres.NewTransactor(pool)

	rdb, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	users := repository.NewUserRepository(pool)
	plans := repository.NewPlanRepository(pool, txr)
	ledger := repository.NewLedgerRepository(pool)
	reminders := repository.NewCustomReminderRepository(pool, txr)

	userSvc := service.NewUserService(users)
	planSvc := service.NewPlanService(plans)
	reminderSvc := service.NewCustomReminderService(reminders)
	statsSvc := service.NewStatsService(plans)

	fsmStore := fsm.New(rdb)
	q := queue.New(rdb)
	delayed := queue.NewDelayed(rdb)
	gateway := telegram.NewGateway(bot)

	handler := telegram.NewHandler(bot, lg, userSvc, planSvc, reminderSvc, ledger, fsmStore)

	dailyDispatcher := dispatch.NewDailyDispatcher(users, ledger, q, delayed, cfg.DispatchWindow, lg)
	reminderDispatch := dispatch.NewCustomReminderDispatcher(reminderSvc, q, lg)

	morningSender := sender.NewMorningSender(userSvc, planSvc, ledger, gateway, fsmStore, delayed, q, lg)
	eveningSender := sender.NewEveningSender(userSvc, planSvc, ledger, gateway, fsmStore, delayed, q, lg)
	reminderSender := sender.NewCustomReminderSender(reminderSvc, gateway, q, lg)

	apiServer := api.NewServer(userSvc, planSvc, reminderSvc, statsSvc, handler, cfg.TelegramAPIToken, cfg.WebhookSecret, lg)

	return &app{
		cfg:              cfg,
		logger:           lg,
		bot:              bot,
		handler:          handler,
		api:              apiServer,
		dailyDispatcher:  dailyDispatcher,
		reminderDispatch: reminderDispatch,
		morningSender:    morningSender,
		eveningSender:    eveningSender,
		reminderSender:   reminderSender,
		pool:             pool,
		rdb:              rdb,
	}, nil
}

func (a *app) close() {
	a.pool.Close()
	_ = a.rdb.Close()
}

// runBackground starts the dispatchers and sender worker pools shared by
// both run modes, returning once ctx is cancelled.
func (a *app) runBackground(ctx context.Context) {
	go a.dailyDispatcher.Start(ctx)
	go a.reminderDispatch.Start(ctx)
	go a.morningSender.Run(ctx, a.cfg.Workers)
	go a.eveningSender.Run(ctx, a.cfg.Workers)
	go a.reminderSender.Run(ctx, a.cfg.Workers)
}
