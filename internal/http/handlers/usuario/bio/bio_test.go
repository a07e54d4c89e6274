package bio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error) {
	args := m.Called(ctx, id, bio)
	resp, _ := args.Get(0).(*models.Usuario)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func serve(svc Service, id, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Put("/bio/{id}", New(newNoopLogger(), svc).ServeHTTP)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/bio/"+id, bytes.NewBufferString(body)))
	return rec
}

func TestBioHandler(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("UpdateBio", mock.Anything, 4, "X").Return(&models.Usuario{ID: 4, Bio: "X"}, nil).Once()

		rec := serve(svc, "4", `{"bio":"X"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "X", body["bio"])
	})

	t.Run("empty bio clears the field", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("UpdateBio", mock.Anything, 4, "").Return(&models.Usuario{ID: 4}, nil).Once()

		rec := serve(svc, "4", `{"bio":""}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing bio", func(t *testing.T) {
		rec := serve(new(ServiceMock), "4", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown usuario", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("UpdateBio", mock.Anything, 8, "X").Return(nil, models.ErrNotFound).Once()

		rec := serve(svc, "8", `{"bio":"X"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
