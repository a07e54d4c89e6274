package update

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tecnico-directory/internal/http/request"
	"github.com/magabrotheeeer/tecnico-directory/internal/http/response"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// Request — частичное обновление: отсутствующие поля не меняются.
type Request struct {
	Nome           *string          `json:"nome" validate:"omitempty,min=1"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	Senha          *string          `json:"senha" validate:"omitempty,min=1"`
	Tecnico        *bool            `json:"tecnico"`
	Avatar         *string          `json:"avatar"`
	Zap            *string          `json:"zap" validate:"omitempty,numeric"`
	Idade          *request.FlexInt `json:"idade" validate:"omitempty,gt=0,lte=150" swaggertype:"integer"`
	Relacionamento *string          `json:"relacionamento" validate:"omitempty,oneof=SOLTEIRO CASADO"`
}

func (req Request) patch() models.UsuarioPatch {
	p := models.UsuarioPatch{
		Nome:    req.Nome,
		Email:   req.Email,
		Senha:   req.Senha,
		Avatar:  req.Avatar,
		Zap:     req.Zap,
		Tecnico: req.Tecnico,
	}
	if req.Idade != nil {
		idade := int(*req.Idade)
		p.Idade = &idade
	}
	if req.Relacionamento != nil {
		rel := models.Relacionamento(*req.Relacionamento)
		p.Relacionamento = &rel
	}
	return p
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Update(ctx context.Context, id int, patch models.UsuarioPatch) (*models.Usuario, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Частичное обновление пользователя
// @Description Менять можно только собственный профиль.
// @Tags Usuarios
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} models.Usuario
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /usuario/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.usuario.update"

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
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		req.Email = &email
	}
	if req.Relacionamento != nil {
		rel := strings.ToUpper(strings.TrimSpace(*req.Relacionamento))
		req.Relacionamento = &rel
	}

	if err = h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.patch())
	if err != nil {
		status, msg := response.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("failed to update usuario", sl.Err(err))
		}
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithDetails(r, msg, err))
		return
	}

	log.Info("usuario updated", slog.Int("id", id))
	render.JSON(w, r, updated)
}
