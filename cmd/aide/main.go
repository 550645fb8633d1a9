package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/completion"
	"github.com/aidekit/aide/internal/convostore"
	"github.com/aidekit/aide/internal/flow"
	"github.com/aidekit/aide/internal/gateway"
	"github.com/aidekit/aide/internal/notify"
	"github.com/aidekit/aide/internal/processor"
	"github.com/aidekit/aide/internal/telegram"
	"github.com/aidekit/aide/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Conversation store
	var kv convostore.KV
	if cfg.Redis.URL == "" {
		logger.Info("Using in-memory conversation store")
		kv = convostore.NewMemoryKV()
	} else {
		redisKV, err := convostore.NewRedisKV(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisKV.Close()
		kv = redisKV
	}
	store := convostore.New(kv, logger)

	// Domain gateways
	var (
		alerts        gateway.Alerts
		tasks         gateway.Tasks
		notes         gateway.Notes
		images        gateway.Images
		subscriptions gateway.Subscriptions
	)
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory domain storage")
		alerts = gateway.NewMemoryAlerts()
		tasks = gateway.NewMemoryTasks()
		notes = gateway.NewMemoryNotes()
		images = gateway.NewMemoryImages()
		subscriptions = gateway.NewMemorySubscriptions()
	} else {
		logger.Info("Using PostgreSQL domain storage")
		pg, err := gateway.NewPostgresStore(gateway.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize domain storage", zap.Error(err))
		}
		defer pg.Close()
		alerts = pg.Alerts()
		tasks = pg.Tasks()
		notes = pg.Notes()
		images = pg.Images()
		subscriptions = pg.Subscriptions()
	}

	// Completion backend, exactly one provider active at a time
	var backend completion.Backend
	switch cfg.Assistant.Provider {
	case "openai":
		backend = completion.NewOpenAIBackend(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			logger,
		)
	default:
		logger.Fatal("Unknown completion provider", zap.String("provider", cfg.Assistant.Provider))
	}

	generator := gateway.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.ImageModel, cfg.OpenAI.ImageSize, logger)

	proc := processor.New(processor.Deps{
		Store:         store,
		Backend:       backend,
		Alerts:        alerts,
		Tasks:         tasks,
		Notes:         notes,
		Images:        images,
		Generator:     generator,
		Logger:        logger,
		DefaultSnooze: time.Duration(cfg.Assistant.DefaultSnoozeMinutes) * time.Minute,
	})
	flows := flow.NewManager(store, logger)

	bot, err := telegram.New(cfg.Telegram.Token, proc, flows, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Alert notification pipeline, independent of the request path
	notifier := notify.New(
		alerts,
		subscriptions,
		telegram.NewDeliverer(bot),
		notify.NewWebhookPush(time.Duration(cfg.Assistant.PushTimeoutSecs)*time.Second),
		time.Duration(cfg.Assistant.NotifyIntervalSecs)*time.Second,
		logger,
	)
	notifier.Start(ctx)

	// Start the bot
	if err := bot.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
