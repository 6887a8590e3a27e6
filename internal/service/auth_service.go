package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthConfig defines configuration for token issuance and the single
// administrator account.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration

	AdminUsername     string
	AdminPasswordHash string
}

// AuthService verifies credentials and issues and validates API tokens.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a username/password pair and returns a signed API
// token. The admin account from configuration is checked before the users
// table; both failure paths collapse into the same invalid-credentials
// error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password required")
	}

	info, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issueToken(*info)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.TokenResponse{
		Token:     token,
		ExpiresIn: int64(expiresAt.Sub(s.now()).Seconds()),
		User:      *info,
	}, nil
}

// VerifyAdmin checks a credential pair against the configured administrator
// account. bcrypt's comparison is not timing-sensitive to the stored hash.
func (s *AuthService) VerifyAdmin(username, password string) bool {
	if username != s.config.AdminUsername || s.config.AdminPasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)) == nil
}

func (s *AuthService) authenticate(ctx context.Context, req models.LoginRequest) (*models.UserInfo, error) {
	if s.VerifyAdmin(req.Username, req.Password) {
		return &models.UserInfo{Username: req.Username, Role: models.RoleAdmin}, nil
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	return &models.UserInfo{Username: user.Username, Role: user.Role, TeacherID: user.TeacherID}, nil
}

// ValidateToken parses and validates an API token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// issueToken signs the claims for a principal. TeacherID lands in the
// claims only for teacher accounts; admin tokens never carry one.
func (s *AuthService) issueToken(info models.UserInfo) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)

	claims := &models.TokenClaims{
		Username: info.Username,
		Role:     info.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   info.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	if info.Role == models.RoleTeacher {
		claims.TeacherID = info.TeacherID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
