package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Set(ctx context.Context, id string, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type adminVerifier interface {
	VerifyAdmin(username, password string) bool
}

// SessionService drives the admin web login flow. It is entirely separate
// from API tokens: holding a valid session never authorizes a token route
// and vice versa.
type SessionService struct {
	store     sessionStore
	admin     adminVerifier
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
}

// NewSessionService constructs a SessionService.
func NewSessionService(store sessionStore, admin adminVerifier, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{store: store, admin: admin, validator: validate, logger: logger, ttl: ttl}
}

// Login validates the credentials against the administrator account and
// establishes a session. The session ID is returned only after the store
// confirms the write; a login must never report success for a session that
// was not persisted.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest) (string, *models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password required")
	}

	if !s.admin.VerifyAdmin(req.Username, req.Password) {
		return "", nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	session := &models.Session{
		Authenticated: true,
		Username:      req.Username,
		Role:          models.RoleAdmin,
	}

	id := uuid.NewString()
	if err := s.store.Set(ctx, id, session, s.ttl); err != nil {
		s.logger.Error("session save failed", zap.Error(err))
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session")
	}

	return id, session, nil
}

// Verify reports the session state for a cookie value. An unknown or
// expired session is not an error, just unauthenticated.
func (s *SessionService) Verify(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}
	session, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionMiss) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Logout destroys the session. It succeeds even when no session existed.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to destroy session")
	}
	return nil
}
