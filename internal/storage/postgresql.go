// Package storage реализует хранилище пользователей справочника на PostgreSQL.
// Ошибки драйвера переводятся в доменные: отсутствие строки → models.ErrNotFound,
// нарушение уникальности email → models.ErrEmailTaken.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

const usuarioColumns = `id, nome, email, senha, avatar, bio, zap, tecnico, idade,
			      relacionamento, created_at, updated_at`

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Ping проверяет доступность базы (используется в /health).
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.Ping"
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CreateUsuario вставляет пользователя и возвращает сохранённую запись.
// Поле Senha должно уже содержать хэш.
func (s *Storage) CreateUsuario(ctx context.Context, u models.Usuario) (*models.Usuario, error) {
	const op = "storage.CreateUsuario"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO usuarios (nome, email, senha, avatar, bio, zap, tecnico, idade, relacionamento)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + usuarioColumns
	row := s.DB.QueryRowContext(ctx, query,
		u.Nome, u.Email, u.Senha, nullString(u.Avatar), nullString(u.Bio), u.Zap,
		u.Tecnico, u.Idade, string(u.Relacionamento))
	created, err := scanUsuario(row)
	if err != nil {
		return nil, mapError(op, err)
	}
	return created, nil
}

// GetUsuario возвращает пользователя по ID.
func (s *Storage) GetUsuario(ctx context.Context, id int) (*models.Usuario, error) {
	const op = "storage.GetUsuario"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + usuarioColumns + `
			  FROM usuarios
			  WHERE id = $1`
	u, err := scanUsuario(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUsuarioByEmail возвращает пользователя по нормализованному email.
func (s *Storage) GetUsuarioByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	const op = "storage.GetUsuarioByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + usuarioColumns + `
			  FROM usuarios
			  WHERE email = $1`
	u, err := scanUsuario(s.DB.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// ListUsuarios возвращает всех пользователей в порядке ID.
func (s *Storage) ListUsuarios(ctx context.Context) ([]*models.Usuario, error) {
	const op = "storage.ListUsuarios"
	return s.list(ctx, op, `SELECT `+usuarioColumns+`
			  FROM usuarios
			  ORDER BY id`)
}

// ListTecnicos возвращает только пользователей с tecnico = true в порядке ID.
func (s *Storage) ListTecnicos(ctx context.Context) ([]*models.Usuario, error) {
	const op = "storage.ListTecnicos"
	return s.list(ctx, op, `SELECT `+usuarioColumns+`
			  FROM usuarios
			  WHERE tecnico = true
			  ORDER BY id`)
}

// GetTecnico возвращает пользователя по ID, только если он техник.
func (s *Storage) GetTecnico(ctx context.Context, id int) (*models.Usuario, error) {
	const op = "storage.GetTecnico"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + usuarioColumns + `
			  FROM usuarios
			  WHERE id = $1 AND tecnico = true`
	u, err := scanUsuario(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// UpdateUsuario записывает только заданные поля патча и возвращает обновлённую запись.
// Пустой патч возвращает текущее состояние.
func (s *Storage) UpdateUsuario(ctx context.Context, id int, patch models.UsuarioPatch) (*models.Usuario, error) {
	const op = "storage.UpdateUsuario"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if patch.Empty() {
		return s.GetUsuario(ctx, id)
	}

	sets := make([]string, 0, 10)
	args := make([]any, 0, 10)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Nome != nil {
		add("nome", *patch.Nome)
	}
	if patch.Email != nil {
		add("email", models.NormalizeEmail(*patch.Email))
	}
	if patch.Senha != nil {
		add("senha", *patch.Senha)
	}
	if patch.Avatar != nil {
		add("avatar", nullString(*patch.Avatar))
	}
	if patch.Bio != nil {
		add("bio", nullString(*patch.Bio))
	}
	if patch.Zap != nil {
		add("zap", *patch.Zap)
	}
	if patch.Tecnico != nil {
		add("tecnico", *patch.Tecnico)
	}
	if patch.Idade != nil {
		add("idade", *patch.Idade)
	}
	if patch.Relacionamento != nil {
		add("relacionamento", string(*patch.Relacionamento))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE usuarios SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), usuarioColumns)
	u, err := scanUsuario(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// UpdateBio меняет только поле bio.
func (s *Storage) UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error) {
	const op = "storage.UpdateBio"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE usuarios SET bio = $1, updated_at = now()
			  WHERE id = $2
			  RETURNING ` + usuarioColumns
	u, err := scanUsuario(s.DB.QueryRowContext(ctx, query, nullString(bio), id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// DeleteUsuario удаляет пользователя. Если строки не было, возвращает models.ErrNotFound.
func (s *Storage) DeleteUsuario(ctx context.Context, id int) error {
	const op = "storage.DeleteUsuario"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

func (s *Storage) list(ctx context.Context, op, query string) ([]*models.Usuario, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.Usuario, 0)
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUsuario(row scanner) (*models.Usuario, error) {
	var (
		u              models.Usuario
		avatar, bio    sql.NullString
		relacionamento string
	)
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.Senha, &avatar, &bio, &u.Zap,
		&u.Tecnico, &u.Idade, &relacionamento, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Avatar = avatar.String
	u.Bio = bio.String
	u.Relacionamento = models.Relacionamento(relacionamento)
	return &u, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
