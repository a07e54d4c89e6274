package remove

import (
	"context"
	"errors"
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

func (m *ServiceMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		mockErr    error
		callSvc    bool
		wantStatus int
	}{
		{name: "deleted", id: "2", callSvc: true, wantStatus: http.StatusNoContent},
		{name: "not found", id: "2", callSvc: true, mockErr: models.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "db error", id: "2", callSvc: true, mockErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
		{name: "bad id", id: "zero", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callSvc {
				svc.On("Delete", mock.Anything, 2).Return(tt.mockErr).Once()
			}
			r := chi.NewRouter()
			r.Delete("/usuario/{id}", New(newNoopLogger(), svc).ServeHTTP)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/usuario/"+tt.id, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Empty(t, rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
