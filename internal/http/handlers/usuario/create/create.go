// Package create реализует HTTP-обработчик регистрации пользователя справочника.
package create

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

// Request — тело запроса регистрации. idade принимается числом или строкой.
type Request struct {
	Nome           string          `json:"nome" validate:"required" example:"Ana"`
	Email          string          `json:"email" validate:"required,email" example:"ana@test.com"`
	Senha          string          `json:"senha" validate:"required" example:"secret123"`
	Idade          request.FlexInt `json:"idade" validate:"gt=0,lte=150" swaggertype:"integer" example:"30"`
	Zap            string          `json:"zap" validate:"required,numeric" example:"5511999999999"`
	Relacionamento string          `json:"relacionamento" validate:"required,oneof=SOLTEIRO CASADO" example:"SOLTEIRO"`
	Tecnico        bool            `json:"tecnico"`
	Avatar         string          `json:"avatar"`
	Bio            string          `json:"bio"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, u models.Usuario) (*models.Usuario, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Tags Usuarios
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} models.Usuario
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или email уже зарегистрирован"
// @Failure 500 {object} response.ErrorResponse
// @Router /usuario [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.usuario.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithDetails(r, "invalid request body", err))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Relacionamento = strings.ToUpper(strings.TrimSpace(req.Relacionamento))

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	created, err := h.service.Create(r.Context(), models.Usuario{
		Nome:           req.Nome,
		Email:          req.Email,
		Senha:          req.Senha,
		Avatar:         req.Avatar,
		Bio:            req.Bio,
		Zap:            req.Zap,
		Tecnico:        req.Tecnico,
		Idade:          int(req.Idade),
		Relacionamento: models.Relacionamento(req.Relacionamento),
	})
	if err != nil {
		status, msg := response.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("failed to create usuario", sl.Err(err))
		} else {
			log.Info("usuario rejected", sl.Err(err))
		}
		render.Status(r, status)
		render.JSON(w, r, response.ErrorWithDetails(r, msg, err))
		return
	}

	log.Info("usuario created", slog.Int("id", created.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}
