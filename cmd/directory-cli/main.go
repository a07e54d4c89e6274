// Command directory-cli — консольный клиент справочника.
//
//	directory-cli login [-email ana@test.com]
//	directory-cli whoami
//	directory-cli bio "Eletricista residencial"
//	directory-cli tecnicos [id]
//	directory-cli register -nome Ana -email ana@test.com -idade 30 -zap 5511999999999
//	directory-cli logout
//
// Пароль читается без эха. Настройки: CONFIG_PATH или переменные окружения
// (DIRECTORY_BASE_URL, CREDSTORE_BACKEND, CREDSTORE_SECRET, ...).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/tecnico-directory/internal/client/api"
	"github.com/magabrotheeeer/tecnico-directory/internal/client/credstore"
	"github.com/magabrotheeeer/tecnico-directory/internal/client/session"
	"github.com/magabrotheeeer/tecnico-directory/internal/config"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
)

func main() {
	cfg := config.MustLoadClient()
	logger := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := credstore.New(ctx, cfg.CredStore)
	if err != nil {
		logger.Error("failed to open credential store", sl.Err(err))
		os.Exit(1)
	}

	client := api.New(cfg.BaseURL, cfg.Timeout)
	sess := session.New(client, store, logger)

	c := &cli{
		api:     client,
		session: sess,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
	code := c.run(ctx, os.Args[1:])
	if err := sess.Close(); err != nil {
		logger.Warn("failed to close session", sl.Err(err))
	}
	os.Exit(code)
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelWarn
	if env == config.EnvLocal || env == config.EnvDev {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
