package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tecnico-directory/internal/config"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
	authservice "github.com/magabrotheeeer/tecnico-directory/internal/services/auth"
	usuarioservice "github.com/magabrotheeeer/tecnico-directory/internal/services/usuario"
)

// memRepo — хранилище в памяти для проверки маршрутов целиком.
type memRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]models.Usuario
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: map[int]models.Usuario{}}
}

func (m *memRepo) Ping(context.Context) error { return nil }

func (m *memRepo) CreateUsuario(_ context.Context, u models.Usuario) (*models.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == u.Email {
			return nil, models.ErrEmailTaken
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.rows[u.ID] = u
	return &u, nil
}

func (m *memRepo) GetUsuario(_ context.Context, id int) (*models.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) GetUsuarioByEmail(_ context.Context, email string) (*models.Usuario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == models.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) list(filter func(models.Usuario) bool) []*models.Usuario {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Usuario, 0)
	for _, u := range m.rows {
		if filter(u) {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRepo) ListUsuarios(context.Context) ([]*models.Usuario, error) {
	return m.list(func(models.Usuario) bool { return true }), nil
}

func (m *memRepo) ListTecnicos(context.Context) ([]*models.Usuario, error) {
	return m.list(func(u models.Usuario) bool { return u.Tecnico }), nil
}

func (m *memRepo) GetTecnico(ctx context.Context, id int) (*models.Usuario, error) {
	u, err := m.GetUsuario(ctx, id)
	if err != nil || !u.Tecnico {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) UpdateUsuario(ctx context.Context, id int, p models.UsuarioPatch) (*models.Usuario, error) {
	m.mu.Lock()
	u, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return nil, models.ErrNotFound
	}
	if p.Nome != nil {
		u.Nome = *p.Nome
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	m.rows[id] = u
	m.mu.Unlock()
	return m.GetUsuario(ctx, id)
}

func (m *memRepo) UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error) {
	return m.UpdateUsuario(ctx, id, models.UsuarioPatch{Bio: &bio})
}

func (m *memRepo) DeleteUsuario(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T, cfg config.HTTPServer) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemRepo()
	maker := jwt.NewJWTMaker("test-secret", 0)
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	RegisterRoutes(r, logger, cfg, false, Deps{
		Auth:     authservice.NewAuthService(repo, maker, logger, authservice.NewLoginCounter(reg)),
		Usuarios: usuarioservice.NewUsuarioService(repo, nil, logger),
		Tokens:   maker,
		DB:       repo,
		Gatherer: reg,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (s *testServer) register(email string, tecnico bool) int {
	status, body := s.do(http.MethodPost, "/usuario", "", map[string]any{
		"nome": "Nome", "email": email, "senha": "secret", "idade": "30",
		"zap": "5511999999999", "relacionamento": "SOLTEIRO", "tecnico": tecnico,
	})
	require.Equal(s.t, http.StatusCreated, status, body)
	return int(body["id"].(float64))
}

func (s *testServer) login(email, senha string) string {
	status, body := s.do(http.MethodPost, "/login", "", map[string]any{"email": email, "senha": senha})
	require.Equal(s.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestRoutes_RegisterLoginAndOwnership(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{})

	anaID := s.register("Ana@Test.com ", false)
	brunoID := s.register("bruno@test.com", true)

	status, body := s.do(http.MethodPost, "/usuario", "", map[string]any{
		"nome": "Ana 2", "email": " ana@test.COM", "senha": "x", "idade": 20,
		"zap": "1", "relacionamento": "CASADO",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already registered", body["error"])

	token := s.login("ANA@TEST.COM", "secret")

	status, _ = s.do(http.MethodGet, "/usuarios", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "token is required")

	status, body = s.do(http.MethodGet, fmt.Sprintf("/usuario/%d", anaID), token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@test.com", body["email"])

	status, _ = s.do(http.MethodGet, fmt.Sprintf("/tecnicos/%d", anaID), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodGet, fmt.Sprintf("/tecnicos/%d", brunoID), token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodPut, fmt.Sprintf("/bio/%d", anaID), token, map[string]any{"bio": "X"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "X", body["bio"])
	assert.Equal(t, "Nome", body["nome"])

	status, _ = s.do(http.MethodPut, fmt.Sprintf("/bio/%d", brunoID), token, map[string]any{"bio": "hacked"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/usuario/%d", brunoID), token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/usuario/%d", anaID), token, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestRoutes_LoginFailuresAreUniform(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{})
	s.register("ana@test.com", false)

	statusUnknown, bodyUnknown := s.do(http.MethodPost, "/login", "", map[string]any{"email": "ghost@test.com", "senha": "secret"})
	statusWrong, bodyWrong := s.do(http.MethodPost, "/login", "", map[string]any{"email": "ana@test.com", "senha": "nope"})

	assert.Equal(t, http.StatusUnauthorized, statusUnknown)
	assert.Equal(t, statusUnknown, statusWrong)
	assert.Equal(t, bodyUnknown, bodyWrong)

	status, body := s.do(http.MethodPost, "/login", "", map[string]any{"email": "ana@test.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.ErrInvalidCredentials, body["error"])
}

func TestRoutes_BlankPasswordIsRejectedAtRegistration(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{})

	status, body := s.do(http.MethodPost, "/usuario", "", map[string]any{
		"nome": "Ana", "email": "ana@test.com", "senha": "   ", "idade": 30,
		"zap": "5511999999999", "relacionamento": "SOLTEIRO",
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, _ = s.do(http.MethodPost, "/login", "", map[string]any{"email": "ana@test.com", "senha": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	s.register("ana@test.com", false)
	assert.NotEmpty(t, s.login("ana@test.com", "secret"))
}

func TestRoutes_AuthOptional(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{AuthOptional: true})
	id := s.register("ana@test.com", false)

	status, _ := s.do(http.MethodGet, fmt.Sprintf("/usuario/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/usuarios", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRoutes_LoginRateLimit(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{LoginRateLimit: 0.001, LoginRateBurst: 1})

	status, _ := s.do(http.MethodPost, "/login", "", map[string]any{"email": "a@b.c", "senha": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(http.MethodPost, "/login", "", map[string]any{"email": "a@b.c", "senha": "x"})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, config.HTTPServer{})

	status, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])

	s.do(http.MethodPost, "/login", "", map[string]any{"email": "a@b.c", "senha": "x"})

	resp, err := http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `directory_login_attempts_total{outcome="invalid_credentials"} 1`)
}
