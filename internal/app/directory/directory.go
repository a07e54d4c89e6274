package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/tecnico-directory/internal/config"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tecnico-directory/internal/migrations"
	authservice "github.com/magabrotheeeer/tecnico-directory/internal/services/auth"
	usuarioservice "github.com/magabrotheeeer/tecnico-directory/internal/services/usuario"
	"github.com/magabrotheeeer/tecnico-directory/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP‑сервер справочника со всеми зависимостями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	closers []io.Closer
}

// New подключается к базе, накатывает миграции, поднимает публикацию событий и собирает роутер.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.directory.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("schema is up to date", slog.Uint64("version", uint64(version)))

	app := &App{
		logger: logger,
		db:     db,
	}

	var publisher usuarioservice.EventPublisher = usuarioservice.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		conn, err := rabbitmq.Connect(cfg.AMQP.URL, cfg.AMQP.Retries, cfg.AMQP.RetryDelay)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangeUsuarios)
		if err != nil {
			conn.Close()
			db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p := rabbitmq.NewPublisher(ch, rabbitmq.ExchangeUsuarios)
		publisher = p
		app.closers = append(app.closers, p, conn)
		logger.Info("usuario events are published", slog.String("exchange", rabbitmq.ExchangeUsuarios))
	} else {
		logger.Warn("amqp url is not set, usuario events are dropped")
	}

	if cfg.LoginRateLimit <= 0 {
		logger.Warn("login rate limiting is disabled")
	}
	if cfg.AuthOptional {
		logger.Warn("bearer token is optional on protected routes")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	deps := Deps{
		Auth:     authservice.NewAuthService(db, jwtMaker, logger, authservice.NewLoginCounter(reg)),
		Usuarios: usuarioservice.NewUsuarioService(db, publisher, logger),
		Tokens:   jwtMaker,
		DB:       db,
		Gatherer: reg,
		Metrics:  middlewarectx.NewMetrics(reg),
	}

	router := chi.NewRouter()
	debug := cfg.Env == config.EnvLocal || cfg.Env == config.EnvDev
	RegisterRoutes(router, logger, cfg.HTTPServer, debug, deps)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close resource", slog.Any("err", err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", slog.Any("err", err))
	}
}
