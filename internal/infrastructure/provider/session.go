package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"railbook-service/pkg/logger"
)

// ErrAuth means the provider rejected the login. The enclosing booking
// attempt fails for this cycle; a later message triggers a fresh login.
var ErrAuth = errors.New("provider authentication failed")

// Session owns the provider bearer token for the whole process. The
// token is acquired lazily and dropped on authorization failures so the
// next call re-authenticates exactly once.
type Session struct {
	mu        sync.Mutex
	token     string
	transport *Transport
	loginURL  string
	email     string
	password  string
	logger    logger.Logger
}

// NewSession creates a session manager for the provider at baseURL.
func NewSession(transport *Transport, baseURL, email, password string, log logger.Logger) *Session {
	return &Session{
		transport: transport,
		loginURL:  strings.TrimRight(baseURL, "/") + "/api/auth/login",
		email:     email,
		password:  password,
		logger:    log,
	}
}

// EnsureToken returns the cached token, logging in first if none is
// held. The session lock is held across the login so concurrent
// callers never race two logins.
func (s *Session) EnsureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	s.logger.Debug("logging in to provider")
	var parsed struct {
		Token string `json:"token"`
	}
	outcome := s.transport.Send(ctx, Request{
		Method: http.MethodPost,
		URL:    s.loginURL,
		JSONBody: map[string]string{
			"email":    s.email,
			"password": s.password,
		},
		Limited: true,
		Out:     &parsed,
	})

	switch outcome.Kind {
	case OutcomeSuccess:
		if parsed.Token == "" {
			s.logger.Error("login response carries no token")
			return "", ErrAuth
		}
		s.token = parsed.Token
		s.logger.Info("provider login succeeded")
		return s.token, nil
	case OutcomeHTTPError:
		s.logger.Error("provider login rejected", "status", outcome.Status, "body", truncate(outcome.Body))
		return "", ErrAuth
	default:
		s.logger.Error("provider login unreachable")
		return "", ErrAuth
	}
}

// Invalidate drops the cached token. Called on HTTP 403 from any
// authenticated call. Already-dispatched calls keep their old token;
// the next EnsureToken performs a fresh login.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.logger.Warn("provider session invalidated")
	}
	s.token = ""
}
