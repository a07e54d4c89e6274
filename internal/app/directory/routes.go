// Package directory собирает HTTP‑приложение справочника: маршруты, middleware и зависимости.
package directory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/tecnico-directory/internal/config"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/health"
	tecnicolist "github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/tecnico/list"
	tecnicoread "github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/tecnico/read"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/bio"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/create"
	usuariolist "github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/list"
	usuarioread "github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/read"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/remove"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/handlers/usuario/update"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/tecnico-directory/internal/services/auth"
	usuarioservice "github.com/magabrotheeeer/tecnico-directory/internal/services/usuario"

	_ "github.com/magabrotheeeer/tecnico-directory/docs"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Auth     *authservice.AuthService
	Usuarios *usuarioservice.UsuarioService
	Tokens   middlewarectx.TokenParser
	DB       health.Pinger
	Gatherer prometheus.Gatherer
	Metrics  *middlewarectx.Metrics
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, debug bool, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.CORS,
		middlewarectx.Debug(debug),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler)
	}

	// Открытые конечные точки
	r.With(middlewarectx.RateLimitMiddleware(logger, cfg.LoginRateLimit, cfg.LoginRateBurst)).
		Post("/login", login.New(logger, deps.Auth).ServeHTTP)
	r.Post("/usuario", create.New(logger, deps.Usuarios).ServeHTTP)
	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger, cfg.AuthOptional))

		r.Get("/usuarios", usuariolist.New(logger, deps.Usuarios).ServeHTTP)
		r.Get("/usuario/{id}", usuarioread.New(logger, deps.Usuarios).ServeHTTP)
		r.Get("/tecnicos", tecnicolist.New(logger, deps.Usuarios).ServeHTTP)
		r.Get("/tecnicos/{id}", tecnicoread.New(logger, deps.Usuarios).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OwnerOnly(logger, cfg.AuthOptional))
			r.Put("/usuario/{id}", update.New(logger, deps.Usuarios).ServeHTTP)
			r.Delete("/usuario/{id}", remove.New(logger, deps.Usuarios).ServeHTTP)
			r.Put("/bio/{id}", bio.New(logger, deps.Usuarios).ServeHTTP)
		})
	})

	var metricsHandler http.Handler = promhttp.Handler()
	if deps.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}
	r.Handle("/metrics", metricsHandler)
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
