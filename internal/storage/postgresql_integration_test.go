//go:build integration

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/magabrotheeeer/tecnico-directory/internal/migrations"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDb(t *testing.T) *Storage {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	storage, err := New(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, filepath.Join(root, "migrations"))
	require.NoError(t, err)
	return storage
}

func TestStorage_Integration(t *testing.T) {
	s := setupTestDb(t)
	ctx := context.Background()

	ana, err := s.CreateUsuario(ctx, models.Usuario{
		Nome: "Ana", Email: "ana@test.com", Senha: "hash", Zap: "1",
		Idade: 30, Relacionamento: models.Solteiro,
	})
	require.NoError(t, err)
	assert.NotZero(t, ana.ID)
	assert.False(t, ana.CreatedAt.IsZero())

	_, err = s.CreateUsuario(ctx, models.Usuario{
		Nome: "Ana 2", Email: "ana@test.com", Senha: "hash", Zap: "2",
		Idade: 22, Relacionamento: models.Casado,
	})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	tec, err := s.CreateUsuario(ctx, models.Usuario{
		Nome: "Bruno", Email: "bruno@test.com", Senha: "hash", Zap: "3",
		Tecnico: true, Idade: 40, Relacionamento: models.Casado,
	})
	require.NoError(t, err)

	tecnicos, err := s.ListTecnicos(ctx)
	require.NoError(t, err)
	require.Len(t, tecnicos, 1)
	assert.Equal(t, tec.ID, tecnicos[0].ID)

	_, err = s.GetTecnico(ctx, ana.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	updated, err := s.UpdateBio(ctx, ana.ID, "X")
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Bio)
	assert.Equal(t, ana.Nome, updated.Nome)
	assert.Equal(t, ana.Email, updated.Email)

	email := "bruno@test.com"
	_, err = s.UpdateUsuario(ctx, ana.ID, models.UsuarioPatch{Email: &email})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	require.NoError(t, s.DeleteUsuario(ctx, ana.ID))
	assert.ErrorIs(t, s.DeleteUsuario(ctx, ana.ID), models.ErrNotFound)

	all, err := s.ListUsuarios(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
