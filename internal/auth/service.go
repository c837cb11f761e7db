package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/internal/activity"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// SessionKeyPrefix is the storage key prefix for per-user session records.
const SessionKeyPrefix = "auth-session:"

// ErrNoSession is returned when no session record exists for a user.
var ErrNoSession = errors.New("auth: no active session")

// Session is the persisted record of an authenticated user.
type Session struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// ActivityRecorder receives audit entries for login and logout events.
type ActivityRecorder interface {
	Record(ctx context.Context, user, action, details string, module activity.Module, notify bool) (activity.Record, error)
}

// Service manages session tokens and their persisted records.
type Service struct {
	tokens     *TokenManager
	store      kvstore.Store
	activities ActivityRecorder
	now        func() time.Time
}

func NewService(tokens *TokenManager, store kvstore.Store, activities ActivityRecorder) *Service {
	return &Service{
		tokens:     tokens,
		store:      store,
		activities: activities,
		now:        time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login mints a session token for the user, persists the session record
// and records an authentication audit entry.
func (s *Service) Login(ctx context.Context, userID, email, role string) (Session, error) {
	token, err := s.tokens.Mint(userID, email, role)
	if err != nil {
		return Session{}, err
	}

	session := Session{
		UserID:   userID,
		Email:    email,
		Role:     role,
		Token:    token,
		IssuedAt: s.now(),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return Session{}, fmt.Errorf("auth: encode session: %w", err)
	}
	if _, err := s.store.Put(ctx, sessionKey(userID), payload, kvstore.VersionAny); err != nil {
		return Session{}, fmt.Errorf("auth: persist session: %w", err)
	}

	if s.activities != nil {
		if _, err := s.activities.Record(ctx, email, "logged in", "session started", activity.ModuleAuth, false); err != nil {
			logger.Warn("Failed to record login activity", zap.Error(err))
		}
	}

	logger.Info("User logged in", zap.String("user_id", userID))
	return session, nil
}

// Logout removes the persisted session record. Missing sessions are not
// an error so repeated logouts stay idempotent.
func (s *Service) Logout(ctx context.Context, userID string) error {
	session, err := s.CurrentSession(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}

	if err := s.store.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}

	if s.activities != nil && session.Email != "" {
		if _, err := s.activities.Record(ctx, session.Email, "logged out", "session ended", activity.ModuleAuth, false); err != nil {
			logger.Warn("Failed to record logout activity", zap.Error(err))
		}
	}

	logger.Info("User logged out", zap.String("user_id", userID))
	return nil
}

// CurrentSession loads the persisted session record for a user.
func (s *Service) CurrentSession(ctx context.Context, userID string) (Session, error) {
	entry, err := s.store.Get(ctx, sessionKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal(entry.Value, &session); err != nil {
		return Session{}, fmt.Errorf("auth: decode session: %w", kvstore.ErrCorrupted)
	}
	return session, nil
}

// Authenticate verifies a token and checks it against the persisted
// session for its user. A token that no longer matches the stored
// session has been superseded by a newer login.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	session, err := s.CurrentSession(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if session.Token != token {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func sessionKey(userID string) string {
	return SessionKeyPrefix + userID
}
