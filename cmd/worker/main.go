package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/config"
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
	if !cfg.QueueEnabled() {
		return errors.New("REDIS_URL must be set to run the notification worker")
	}
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN must be set")
	}

	blobs, err := blob.New(cfg.StorageDir)
	if err != nil {
		return err
	}
	tg, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}

	srv, mux, err := notify.NewWorker(cfg.RedisURL, notify.NewTelegram(tg, blobs), logger)
	if err != nil {
		return err
	}
	logger.Info("Starting notification worker", "bot", tg.Self.UserName)
	// Run blocks and handles its own signal interception.
	return srv.Run(mux)
}
