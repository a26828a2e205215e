package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akyairhashvil/marathon/internal/api"
	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/bot"
	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/notify"
	"github.com/akyairhashvil/marathon/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(util.DataDir(config.AppName))
	if err != nil {
		return err
	}
	logger := util.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return errors.New("TELEGRAM_TOKEN must be set")
	}
	if cfg.Admins().Len() == 0 {
		logger.Warn("No ADMIN_IDS configured; admin commands are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := blob.New(cfg.StorageDir)
	if err != nil {
		return err
	}

	tg, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	logger.Info("Authorized on Telegram", "bot", tg.Self.UserName)

	var (
		locker lock.Locker   = lock.NewKeyed()
		sender notify.Sender = notify.NewTelegram(tg, blobs)
	)
	if cfg.QueueEnabled() {
		rl, err := lock.NewRedis(ctx, cfg.RedisURL, config.DefaultLockTTL, logger)
		if err != nil {
			return err
		}
		defer rl.Close()
		queue, err := notify.NewQueue(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer queue.Close()
		locker, sender = rl, queue
		logger.Info("Using Redis for locks and queued notifications")
	}

	engine, err := lifecycle.New(lifecycle.Deps{
		Store:    db,
		Notifier: notify.NewDispatcher(sender, cfg.NotifyTimeoutDuration(), logger),
		Locker:   locker,
		Blobs:    blobs,
		Admins:   cfg.Admins(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if cfg.HTTPAddr != "" {
		if util.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}
		go func() {
			err := api.Serve(ctx, cfg.HTTPAddr, api.NewRouter(engine, logger), logger)
			util.LogError(logger, "HTTP API stopped", err)
		}()
	}

	b := bot.New(tg, engine, bot.NewHTTPFetcher(tg, 0), bot.Options{
		SupportContact: cfg.SupportContact,
		Logger:         logger,
	})
	return b.Run(ctx, tg)
}
