package read

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) GetTecnico(ctx context.Context, id int) (*models.Usuario, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*models.Usuario)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestReadTecnicoHandler(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("GetTecnico", mock.Anything, 2).Return(&models.Usuario{ID: 2, Tecnico: true}, nil)
	svc.On("GetTecnico", mock.Anything, 1).Return(nil, models.ErrNotFound)

	r := chi.NewRouter()
	r.Get("/tecnicos/{id}", New(newNoopLogger(), svc).ServeHTTP)

	tests := []struct {
		id         string
		wantStatus int
	}{
		{"2", http.StatusOK},
		{"1", http.StatusNotFound},
		{"-5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tecnicos/"+tt.id, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
