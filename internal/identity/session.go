package identity

import (
	"context"
	"strings"
	"sync"

	"easyplan-sync.com/easyplan-sync/internal/errors"
	repository "easyplan-sync.com/easyplan-sync/internal/repositories"
)

// Provider exposes the signed-in user, if any.
type Provider interface {
	CurrentUserID() (string, bool)
}

type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Session remembers the signed-in user across restarts. Credentials are
// verified elsewhere; only the resulting user id is kept.
type Session struct {
	settings Settings

	mu     sync.RWMutex
	userID string
}

// LoadSession restores a previously persisted sign-in.
func LoadSession(ctx context.Context, settings Settings) (*Session, error) {
	s := &Session{settings: settings}
	id, ok, err := settings.Get(ctx, repository.KeySessionUserID)
	if err != nil {
		return nil, err
	}
	if ok {
		s.userID = id
	}
	return s, nil
}

func (s *Session) CurrentUserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

func (s *Session) SignIn(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.ErrNotSignedIn
	}
	if err := s.settings.Set(ctx, repository.KeySessionUserID, userID); err != nil {
		return err
	}
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	return nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.settings.Delete(ctx, repository.KeySessionUserID); err != nil {
		return err
	}
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
	return nil
}

// Static is a fixed identity, "" meaning guest.
type Static string

func (s Static) CurrentUserID() (string, bool) {
	return string(s), s != ""
}
