package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"courseshop/internal/domain"
)

// UserStore is the identity provider's backing store.
type UserStore interface {
	ByEmail(email string) (*domain.User, error)
	BindSession(sid, userID string) error
	SessionUser(sid string) (*domain.User, error)
	UnbindSession(sid string) error
}

type AuthService struct {
	Users UserStore
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, storageErr("bind session", err)
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser resolves a session id; an unknown or anonymous session is ErrUnauthorized.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.Users.SessionUser(sid)
	if errors.Is(err, ErrNotFound) || (err == nil && u == nil) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storageErr("session user", err)
	}
	return u, nil
}
