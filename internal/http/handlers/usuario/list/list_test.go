package list

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) List(ctx context.Context) ([]*models.Usuario, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).([]*models.Usuario)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestListHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("List", mock.Anything).Return([]*models.Usuario{{ID: 1}, {ID: 2}}, nil).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usuarios", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body, 2)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("List", mock.Anything).Return([]*models.Usuario{}, nil).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usuarios", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usuarios", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
