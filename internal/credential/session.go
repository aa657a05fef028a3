package credential

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Session is the process-wide credential provider. It caches the token read
// from the Vault and notifies listeners when the token is invalidated, either
// by an explicit logout or because the server rejected it.
type Session struct {
	vault *Vault
	log   logrus.FieldLogger

	mu           sync.RWMutex
	token        string
	loaded       bool
	onInvalidate []func()
}

// NewSession returns a Session backed by vault.
func NewSession(vault *Vault, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{vault: vault, log: log}
}

// Token returns the current bearer token, reading the vault on first use.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	if s.loaded {
		tok := s.token
		s.mu.RUnlock()
		if tok == "" {
			return "", ErrNoToken
		}
		return tok, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		tok, err := s.vault.Token()
		if err != nil && err != ErrNoToken {
			return "", err
		}
		s.token = tok
		s.loaded = true
	}
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// LoggedIn reports whether a token is available.
func (s *Session) LoggedIn() bool {
	_, err := s.Token()
	return err == nil
}

// Login stores token as the current credential.
func (s *Session) Login(token string) error {
	if err := s.vault.SetToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Logout discards the current credential and notifies listeners.
func (s *Session) Logout() error {
	return s.clear("logout")
}

// Invalidate discards a token the server rejected and notifies listeners.
func (s *Session) Invalidate() {
	if err := s.clear("unauthorized"); err != nil {
		s.log.WithError(err).Warn("clearing rejected token")
	}
}

// OnInvalidate registers fn to run whenever the token is discarded.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	s.onInvalidate = append(s.onInvalidate, fn)
	s.mu.Unlock()
}

// Identity decodes the current token's claims.
func (s *Session) Identity() (Identity, error) {
	tok, err := s.Token()
	if err != nil {
		return Identity{}, err
	}
	return ParseIdentity(tok)
}

func (s *Session) clear(reason string) error {
	s.mu.Lock()
	s.token = ""
	s.loaded = true
	listeners := append([]func(){}, s.onInvalidate...)
	s.mu.Unlock()

	err := s.vault.Clear()
	s.log.WithField("reason", reason).Info("credential cleared")
	for _, fn := range listeners {
		fn()
	}
	return err
}
