// Package session manages login sessions.
// A session lives in a Store; the client only holds a signed token carrying its ID.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

var (
	ErrNotFound       = core.NewNotFoundError("session")
	ErrInvalidSession = errors.New("invalid session")
)

type (
	Session struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		CreatedAt time.Time `json:"createdAt"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	Store interface {
		// Save stores s until s.ExpiresAt.
		Save(ctx context.Context, s Session) error
		// Get returns ErrNotFound for unknown or expired sessions.
		Get(ctx context.Context, id string) (Session, error)
		// Delete returns ErrNotFound for unknown sessions.
		Delete(ctx context.Context, id string) error
	}

	Manager struct {
		store  Store
		ttl    time.Duration
		secret []byte
		issuer string
	}
)

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func NewManager(store Store, conf *core.Config) *Manager {
	return &Manager{
		store:  store,
		ttl:    conf.Session.TTL,
		secret: []byte(conf.SecretKey),
		issuer: conf.AppName,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create starts a session for userID and returns the signed token to hand to the client.
func (m *Manager) Create(ctx context.Context, userID string) (string, Session, error) {
	id, err := newID()
	if err != nil {
		return "", Session{}, errors.Wrap(err, "generating session id")
	}
	now := time.Now().UTC()
	s := Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err = m.store.Save(ctx, s); err != nil {
		return "", Session{}, errors.Wrap(err, "saving session")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Id:        s.ID,
		Subject:   s.UserID,
		Issuer:    m.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: s.ExpiresAt.Unix(),
	})
	ss, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, errors.Wrap(err, "signing session token")
	}
	return ss, s, nil
}

func (m *Manager) parse(token string) (*jwt.StandardClaims, error) {
	claims := new(jwt.StandardClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	})
	if err != nil || claims.Id == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Resolve returns the live session the token refers to, or ErrInvalidSession.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return Session{}, err
	}
	s, err := m.store.Get(ctx, claims.Id)
	if err != nil {
		if core.IsNotFound(err) {
			return Session{}, ErrInvalidSession
		}
		return Session{}, errors.Wrap(err, "getting session")
	}
	if s.UserID != claims.Subject || s.Expired(time.Now()) {
		return Session{}, ErrInvalidSession
	}
	return s, nil
}

// Destroy ends the session the token refers to. It reports whether a live session existed.
func (m *Manager) Destroy(ctx context.Context, token string) (Session, bool, error) {
	s, err := m.Resolve(ctx, token)
	if err != nil {
		if err == ErrInvalidSession {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	if err = m.store.Delete(ctx, s.ID); err != nil {
		if core.IsNotFound(err) {
			return Session{}, false, nil
		}
		return Session{}, false, errors.Wrap(err, "deleting session")
	}
	return s, true, nil
}
