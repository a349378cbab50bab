package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/google/uuid"
)

// Service issues refresh sessions and checks them on refresh.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// NewSubject returns a fresh anonymous subject id.
func NewSubject() string {
	return "anon-" + uuid.NewString()
}

func newRefreshToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// CreateSession stores a session for sub lasting ttl and returns its refresh
// token.
func (s *Service) CreateSession(ctx context.Context, sub string, admin bool, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	issued := s.now()
	err = s.repo.Create(ctx, &Session{
		RefreshToken: token,
		Sub:          sub,
		Admin:        admin,
		CreatedAt:    issued,
		ExpiresAt:    issued.Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("store session for %s: %w", sub, err)
	}
	return token, nil
}

// ValidateRefresh returns the live session behind refresh, or nil when the
// token is unknown or lapsed. Lapsed sessions are dropped on the way.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	if refresh == "" {
		return nil, nil
	}
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	switch {
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	case sess == nil:
		return nil, nil
	case sess.expired(s.now()):
		if err := s.repo.DeleteByRefresh(ctx, refresh); err != nil {
			logger.Warnw("sessions: dropping lapsed session failed", "sub", sess.Sub, "err", err)
		}
		return nil, nil
	}
	return sess, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}
