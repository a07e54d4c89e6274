package read

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

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	GetTecnico(ctx context.Context, id int) (*models.Usuario, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Техник по ID
// @Description Обычный пользователь (tecnico = false) даёт 404.
// @Tags Tecnicos
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID техника"
// @Success 200 {object} models.Usuario
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /tecnicos/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tecnico.read"

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

	u, err := h.service.GetTecnico(r.Context(), id)
	if err != nil {
		status, msg := response.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("failed to read tecnico", sl.Err(err))
		}
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithDetails(r, msg, err))
		return
	}

	render.JSON(w, r, u)
}
