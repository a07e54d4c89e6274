// Package bio реализует обновление поля bio пользователя.
package bio

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tecnico-directory/internal/http/request"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/response"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// Request — новое значение bio. Пустая строка очищает поле.
type Request struct {
	Bio *string `json:"bio" example:"Eletricista residencial"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновление bio
// @Tags Usuarios
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param request body Request true "Новое bio"
// @Success 200 {object} models.Usuario
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /bio/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.usuario.bio"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ParseID(r)
	if err != nil {
		log.Info("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	var req Request
	if err = render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithDetails(r, "invalid request body", err))
		return
	}
	if req.Bio == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field Bio is a required field"))
		return
	}

	updated, err := h.service.UpdateBio(r.Context(), id, *req.Bio)
	if err != nil {
		status, msg := response.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("failed to update bio", sl.Err(err))
		}
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithDetails(r, msg, err))
		return
	}

	render.JSON(w, r, updated)
}
