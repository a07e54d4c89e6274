// Package middlewarectx содержит HTTP middleware справочника.
//
// JWTMiddleware проверяет bearer‑токен в заголовке Authorization и кладёт в контекст
// идентификатор пользователя и признак техника. OwnerOnly разрешает изменять ресурс
// {id} только его владельцу. В случае ошибки проверки возвращается 401 или 403.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tecnico-directory/internal/http/request"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/response"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UsuarioID — ключ для ID пользователя из токена
	UsuarioID Key = "usuario_logado_id"
	// Tecnico — ключ для признака техника из токена
	Tecnico Key = "usuario_logado_tecnico"
)

// TokenParser описывает разбор и проверку bearer‑токена.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// UsuarioIDFrom возвращает ID пользователя, положенный JWTMiddleware.
func UsuarioIDFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UsuarioID).(int)
	return id, ok
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// При optional = true запрос без заголовка пропускается без идентичности в контексте;
// присланный, но невалидный токен отклоняется всегда.
func JWTMiddleware(parser TokenParser, log *slog.Logger, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" && optional {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UsuarioID, claims.UsuarioID)
			ctx = context.WithValue(ctx, Tecnico, claims.Tecnico)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerOnly пропускает запрос, только если {id} из URL совпадает с пользователем из токена.
// При optional = true запрос без идентичности пропускается.
func OwnerOnly(log *slog.Logger, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OwnerOnly"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			callerID, ok := UsuarioIDFrom(r.Context())
			if !ok {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				log.Warn("usuario identity missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			id, err := request.ParseID(r)
			if err != nil {
				log.Warn("failed to decode id from url", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid id"))
				return
			}
			if id != callerID {
				log.Warn("access to another usuario denied",
					slog.Int("caller_id", callerID), slog.Int("target_id", id))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
