package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/term"

	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/notify"
	"github.com/akyairhashvil/marathon/internal/tui"
	"github.com/akyairhashvil/marathon/internal/util"
)

const usage = `usage:
  console                     open the admin console
  console hash-passphrase     print a bcrypt hash for ADMIN_PASSPHRASE_HASH
  console import <file>       restore a snapshot export`

func main() {
	var err error
	switch {
	case len(os.Args) == 1:
		err = runConsole()
	case os.Args[1] == "hash-passphrase":
		err = hashPassphrase()
	case os.Args[1] == "import" && len(os.Args) == 3:
		err = importSnapshot(os.Args[2])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*config.Config, *database.Database, error) {
	cfg, err := config.Load(util.DataDir(config.AppName))
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runConsole() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the console needs an interactive terminal")
	}
	ctx := context.Background()
	cfg, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Logs would corrupt the terminal UI.
	logger := util.Discard()
	blobs, err := blob.New(cfg.StorageDir)
	if err != nil {
		return err
	}
	sender, closeSender, err := consoleSender(cfg, blobs)
	if err != nil {
		return err
	}
	defer closeSender()
	locker, closeLocker, err := consoleLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

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

	model := tui.NewMainModel(ctx, engine, db, tui.Options{
		PassphraseHash: cfg.AdminPassphraseHash,
		Theme:          os.Getenv("MARATHON_THEME"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// consoleSender picks the same transport the bot uses so reviews made here
// still reach participants.
func consoleSender(cfg *config.Config, blobs *blob.Store) (notify.Sender, func(), error) {
	if cfg.QueueEnabled() {
		q, err := notify.NewQueue(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	}
	if cfg.TelegramToken != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return nil, nil, fmt.Errorf("telegram login: %w", err)
		}
		return notify.NewTelegram(tg, blobs), func() {}, nil
	}
	offline := notify.SenderFunc(func(context.Context, notify.Message) error {
		return errors.New("no notification transport configured")
	})
	return offline, func() {}, nil
}

// consoleLocker shares the bot's Redis locks when REDIS_URL is set, since both
// processes write the same rows.
func consoleLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	if !cfg.QueueEnabled() {
		return lock.NewKeyed(), func() {}, nil
	}
	rl, err := lock.NewRedis(ctx, cfg.RedisURL, config.DefaultLockTTL, logger)
	if err != nil {
		return nil, nil, err
	}
	return rl, func() { _ = rl.Close() }, nil
}

func hashPassphrase() error {
	pass, err := promptForKey("New console passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := promptForKey("Repeat passphrase: ")
	if err != nil {
		return err
	}
	if pass != confirm {
		return errors.New("passphrases do not match")
	}
	hash, err := util.HashPassphrase(pass)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func importSnapshot(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	_, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.ImportSnapshot(ctx, payload, "")
	if errors.Is(err, database.ErrPassphraseRequired) {
		pass, perr := promptForKey("Snapshot passphrase: ")
		if perr != nil {
			return perr
		}
		err = db.ImportSnapshot(ctx, payload, pass)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s into %s\n", path, db.Path())
	return nil
}

func promptForKey(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	return strings.TrimSpace(string(pass)), err
}
