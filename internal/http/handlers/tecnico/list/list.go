// Package list отдаёт список пользователей‑техников.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tecnico-directory/internal/http/response"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListTecnicos(ctx context.Context) ([]*models.Usuario, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список техников
// @Tags Tecnicos
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} models.Usuario
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /tecnicos [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tecnico.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tecnicos, err := h.service.ListTecnicos(r.Context())
	if err != nil {
		log.Error("failed to list tecnicos", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithDetails(r, "internal error", err))
		return
	}

	render.JSON(w, r, tecnicos)
}
