package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Create(ctx context.Context, u models.Usuario) (*models.Usuario, error) {
	args := m.Called(ctx, u)
	resp, _ := args.Get(0).(*models.Usuario)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const validBody = `{"nome":"Ana","email":"Ana@Test.com","senha":"secret123","idade":"30",
	"zap":"5511999999999","relacionamento":"solteiro"}`

func TestCreateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *ServiceMock)
		wantStatus int
		wantError  string
	}{
		{
			name: "created with idade as string",
			body: validBody,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(u models.Usuario) bool {
					return u.Idade == 30 && u.Relacionamento == models.Solteiro && u.Senha == "secret123"
				})).Return(&models.Usuario{ID: 1, Nome: "Ana", Email: "ana@test.com", Senha: "hash"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "broken json",
			body:       `{"nome":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing fields",
			body:       `{"nome":"Ana","idade":30}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "field Email is a required field",
		},
		{
			name:       "non positive idade",
			body:       strings.Replace(validBody, `"idade":"30"`, `"idade":0`, 1),
			wantStatus: http.StatusBadRequest,
			wantError:  "field Idade must be greater than 0",
		},
		{
			name:       "idade above the column range",
			body:       strings.Replace(validBody, `"idade":"30"`, `"idade":3000000000`, 1),
			wantStatus: http.StatusBadRequest,
			wantError:  "field Idade must be at most 150",
		},
		{
			name: "email already registered",
			body: validBody,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("services.usuario.Create: %w", models.ErrEmailTaken)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "email already registered",
		},
		{
			name: "internal error",
			body: validBody,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/usuario", bytes.NewBufferString(tt.body))

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Contains(t, body["error"], tt.wantError)
				assert.NotContains(t, body, "details")
			} else {
				assert.Equal(t, float64(1), body["id"])
				assert.NotContains(t, body, "senha")
			}
			svc.AssertExpectations(t)
		})
	}
}
