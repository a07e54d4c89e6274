// Package session управляет жизненным циклом сессии клиента:
// восстановление токена при старте, вход, выход, обновление bio
// и проверка доступа к защищённым командам.
//
// Состояние хранится в явном объекте Session; глобальных переменных нет.
// Методы безопасны для конкурентного вызова.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/magabrotheeeer/tecnico-directory/internal/client/api"
	"github.com/magabrotheeeer/tecnico-directory/internal/client/credstore"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// State — состояние аутентификации.
type State int

const (
	// StateUnknown — Init ещё не завершён.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrUnauthenticated — команда требует входа.
	ErrUnauthenticated = errors.New("session: not authenticated")
	// ErrClosed — сессия закрыта через Close.
	ErrClosed = errors.New("session: closed")
	// ErrNoProfile — токен есть, но снимок профиля не сохранён.
	ErrNoProfile = errors.New("session: cached profile is missing")
)

// API — вызовы сервера, которые нужны сессии.
type API interface {
	Login(ctx context.Context, email, senha string) (*api.LoginResponse, error)
	GetUsuario(ctx context.Context, token string, id int) (*models.Usuario, error)
	UpdateBio(ctx context.Context, token string, id int, bio string) (*models.Usuario, error)
}

// Session — контроллер сессии.
type Session struct {
	api   API
	store credstore.Store
	log   *slog.Logger

	mu        sync.Mutex
	state     State
	token     string
	user      *models.Usuario
	closed    bool
	listeners []func(State)

	ready     chan struct{}
	readyOnce sync.Once
}

// New создаёт сессию в состоянии StateUnknown.
func New(client API, store credstore.Store, log *slog.Logger) *Session {
	return &Session{
		api:   client,
		store: store,
		log:   log,
		state: StateUnknown,
		ready: make(chan struct{}),
	}
}

// Init восстанавливает сессию из хранилища. Непустой токен означает StateAuthenticated;
// отсутствие токена или ошибка чтения означают StateUnauthenticated.
func (s *Session) Init(ctx context.Context) error {
	const op = "session.Init"
	log := s.log.With(slog.String("op", op))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateUnknown {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	token, ok, err := s.store.Get(ctx, credstore.KeyToken)
	if err != nil {
		log.Warn("failed to read token, starting unauthenticated", sl.Err(err))
		ok = false
	}

	var user *models.Usuario
	if ok && token != "" {
		user = s.readProfile(ctx, log)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateUnknown {
		// Login или SignOut завершились раньше чтения хранилища.
		s.mu.Unlock()
		return nil
	}
	if ok && token != "" {
		s.token, s.user = token, user
		s.state = StateAuthenticated
	} else {
		s.state = StateUnauthenticated
	}
	state := s.state
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	log.Debug("session restored", slog.String("state", state.String()))
	notify(listeners, state)
	return nil
}

func (s *Session) readProfile(ctx context.Context, log *slog.Logger) *models.Usuario {
	raw, ok, err := s.store.Get(ctx, credstore.KeyUsuario)
	if err != nil || !ok {
		if err != nil {
			log.Warn("failed to read cached profile", sl.Err(err))
		}
		return nil
	}
	var u models.Usuario
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn("cached profile is corrupted", sl.Err(err))
		return nil
	}
	return &u
}

// Ready закрывается, когда Init определил состояние.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange регистрирует обработчик смены состояния.
// Обработчики вызываются вне блокировки, в горутине вызывающего.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login выполняет вход, загружает профиль и сохраняет usuario и token.
// При ошибке состояние не меняется; сообщение сервера доступно через api.Message.
func (s *Session) Login(ctx context.Context, email, senha string) (*models.Usuario, error) {
	const op = "session.Login"
	log := s.log.With(slog.String("op", op))

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	res, err := s.api.Login(ctx, email, senha)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.api.GetUsuario(ctx, res.Token, res.ID)
	if err != nil {
		log.Error("failed to load profile after login", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, res.Token, user); err != nil {
		log.Error("failed to persist session", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.token, s.user = res.Token, user
	listeners := s.transition(StateAuthenticated)
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	log.Info("logged in", slog.Int("usuario_id", user.ID))
	notify(listeners, StateAuthenticated)
	return user, nil
}

// SignOut удаляет токен и снимок профиля и переводит сессию в StateUnauthenticated.
func (s *Session) SignOut(ctx context.Context) error {
	const op = "session.SignOut"
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.destroy(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateBio меняет bio и перечитывает профиль с сервера.
func (s *Session) UpdateBio(ctx context.Context, bio string) (*models.Usuario, error) {
	const op = "session.UpdateBio"
	log := s.log.With(slog.String("op", op))

	token, user, err := s.credentials()
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoProfile
	}

	if _, err := s.api.UpdateBio(ctx, token, user.ID, bio); err != nil {
		return nil, s.handleCallError(ctx, log, op, err)
	}
	fresh, err := s.api.GetUsuario(ctx, token, user.ID)
	if err != nil {
		return nil, s.handleCallError(ctx, log, op, err)
	}

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.saveProfile(ctx, fresh); err != nil {
		log.Error("failed to persist profile", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.user = fresh
	return fresh, nil
}

// CurrentUser возвращает сохранённый снимок профиля.
func (s *Session) CurrentUser(_ context.Context) (*models.Usuario, error) {
	_, user, err := s.credentials()
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoProfile
	}
	cp := *user
	return &cp, nil
}

// Token возвращает токен для прямых вызовов API.
func (s *Session) Token() (string, error) {
	token, _, err := s.credentials()
	return token, err
}

// RequireAuthenticated разрешает доступ к защищённым командам.
func (s *Session) RequireAuthenticated() error {
	_, _, err := s.credentials()
	return err
}

// Unauthorized уничтожает сессию, если err — отказ сервера в токене.
// Возвращает true, если сессия была сброшена.
func (s *Session) Unauthorized(ctx context.Context, err error) bool {
	if !errors.Is(err, models.ErrUnauthorized) {
		return false
	}
	if derr := s.destroy(ctx); derr != nil {
		s.log.Warn("failed to clear rejected session", sl.Err(derr))
	}
	return true
}

// Close освобождает сессию: последующие вызовы вернут ErrClosed,
// результаты незавершённых вызовов будут отброшены.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.listeners = nil
	s.readyOnce.Do(func() { close(s.ready) })
	if c, ok := s.store.(credstore.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) handleCallError(ctx context.Context, log *slog.Logger, op string, err error) error {
	if s.Unauthorized(ctx, err) {
		log.Info("token rejected, session destroyed")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) credentials() (string, *models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, ErrClosed
	}
	if s.state != StateAuthenticated {
		return "", nil, ErrUnauthenticated
	}
	return s.token, s.user, nil
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) destroy(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	errToken := s.store.Delete(ctx, credstore.KeyToken)
	errUser := s.store.Delete(ctx, credstore.KeyUsuario)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.token, s.user = "", nil
	listeners := s.transition(StateUnauthenticated)
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	notify(listeners, StateUnauthenticated)
	return errors.Join(errToken, errUser)
}

func (s *Session) persist(ctx context.Context, token string, user *models.Usuario) error {
	if err := s.saveProfile(ctx, user); err != nil {
		return err
	}
	return s.store.Set(ctx, credstore.KeyToken, token)
}

func (s *Session) saveProfile(ctx context.Context, user *models.Usuario) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, credstore.KeyUsuario, string(raw))
}

// transition меняет состояние; вызывается под s.mu.
// Возвращает обработчики, если состояние изменилось.
func (s *Session) transition(next State) []func(State) {
	if s.state == next {
		return nil
	}
	s.state = next
	return s.snapshotListeners()
}

func (s *Session) snapshotListeners() []func(State) {
	return slices.Clone(s.listeners)
}

func notify(listeners []func(State), state State) {
	for _, fn := range listeners {
		fn(state)
	}
}
