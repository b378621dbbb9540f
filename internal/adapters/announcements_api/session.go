package announcements_api

import (
	"errors"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session - текущая сессия пользователя, общая для всех запросов к бэкенду.
// Токен не проверяется по подписи (это делает сервер), из него читаются только
// user_id и срок действия, чтобы не ходить в сеть с заведомо протухшим токеном.
type Session struct {
	mu        sync.RWMutex
	token     string
	userID    string
	expiresAt time.Time
	language  string

	now func() time.Time
}

func NewSession() *Session {
	return &Session{now: time.Now}
}

// SetToken устанавливает токен. Непрозрачные (не JWT) токены тоже принимаются, но без срока действия.
// Пустая строка означает выход из аккаунта.
func (s *Session) SetToken(token string) error {
	var userID string
	var expiresAt time.Time

	if token != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				expiresAt = exp.Time
			}
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				userID = sub
			}
			if uid, ok := claims["user_id"]; ok {
				userID = fmt.Sprint(uid)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Протухший токен отклоняется, текущая сессия остается как была
	if !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		return domain.ErrSessionExpired
	}

	s.token = token
	s.userID = userID
	s.expiresAt = expiresAt
	return nil
}

// Token возвращает действующий токен, ErrNoSession или ErrSessionExpired.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", domain.ErrNoSession
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", domain.ErrSessionExpired
	}
	return s.token, nil
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) SetLanguage(language string) {
	s.mu.Lock()
	s.language = language
	s.mu.Unlock()
}

func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// sessionTransport добавляет к каждому запросу токен, язык и trace_id.
// Все вызовы идут через один http.Client, поэтому места вызова не думают об авторизации.
type sessionTransport struct {
	base    http.RoundTripper
	session *Session
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	token, err := t.session.Token()
	switch {
	case err == nil:
		r.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, domain.ErrNoSession):
		// Публичные эндпоинты доступны анонимно
	default:
		return nil, err
	}

	if lang := t.session.Language(); lang != "" {
		r.Header.Set("Accept-Language", lang)
	}
	if traceID := contextkeys.TraceIDFromContext(req.Context()); traceID != "" {
		r.Header.Set("X-Trace-ID", traceID)
	}

	return t.base.RoundTrip(r)
}
