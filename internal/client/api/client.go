// Package api — HTTP‑клиент REST API справочника.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// Client обращается к серверу справочника.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиент. Нулевой timeout заменяется на 10s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoginResponse — тело успешного ответа POST /login.
type LoginResponse struct {
	Msg     string `json:"msg"`
	Token   string `json:"token"`
	ID      int    `json:"id"`
	Tecnico bool   `json:"tecnico"`
}

// RegisterRequest — тело POST /usuario.
type RegisterRequest struct {
	Nome           string                `json:"nome"`
	Email          string                `json:"email"`
	Senha          string                `json:"senha"`
	Idade          int                   `json:"idade"`
	Zap            string                `json:"zap"`
	Relacionamento models.Relacionamento `json:"relacionamento"`
	Tecnico        bool                  `json:"tecnico"`
	Avatar         string                `json:"avatar,omitempty"`
	Bio            string                `json:"bio,omitempty"`
}

// Login выполняет вход и возвращает токен.
func (c *Client) Login(ctx context.Context, email, senha string) (*LoginResponse, error) {
	const op = "api.Client.Login"
	var out LoginResponse
	body := map[string]string{"email": email, "senha": senha}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// Register регистрирует нового пользователя.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.Usuario, error) {
	const op = "api.Client.Register"
	var out models.Usuario
	if err := c.do(ctx, http.MethodPost, "/usuario", "", req, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// GetUsuario возвращает профиль пользователя.
func (c *Client) GetUsuario(ctx context.Context, token string, id int) (*models.Usuario, error) {
	const op = "api.Client.GetUsuario"
	var out models.Usuario
	if err := c.do(ctx, http.MethodGet, "/usuario/"+strconv.Itoa(id), token, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// UpdateBio меняет bio пользователя.
func (c *Client) UpdateBio(ctx context.Context, token string, id int, bio string) (*models.Usuario, error) {
	const op = "api.Client.UpdateBio"
	var out models.Usuario
	body := map[string]string{"bio": bio}
	if err := c.do(ctx, http.MethodPut, "/bio/"+strconv.Itoa(id), token, body, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// ListTecnicos возвращает всех техников.
func (c *Client) ListTecnicos(ctx context.Context, token string) ([]models.Usuario, error) {
	const op = "api.Client.ListTecnicos"
	var out []models.Usuario
	if err := c.do(ctx, http.MethodGet, "/tecnicos", token, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// GetTecnico возвращает техника по id.
func (c *Client) GetTecnico(ctx context.Context, token string, id int) (*models.Usuario, error) {
	const op = "api.Client.GetTecnico"
	var out models.Usuario
	if err := c.do(ctx, http.MethodGet, "/tecnicos/"+strconv.Itoa(id), token, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Error — ответ сервера с кодом вне 2xx.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Unwrap сопоставляет статус с ошибками предметной области,
// чтобы вызывающий код мог использовать errors.Is.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		if e.Message == models.ErrEmailTaken.Error() {
			return models.ErrEmailTaken
		}
		return models.ErrValidation
	case http.StatusUnauthorized:
		return models.ErrUnauthorized
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	default:
		return nil
	}
}

// Message возвращает текст ошибки сервера, если err получена от API.
func Message(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}
