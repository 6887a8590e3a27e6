package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type mockUserRepo struct {
	user *models.User
	err  error
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Username != username {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(repo *mockUserRepo, cfg AuthConfig) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), cfg)
}

func TestAuthServiceTeacherLoginCarriesTeacherID(t *testing.T) {
	teacherID := int64(3)
	repo := &mockUserRepo{user: &models.User{
		Username:     "schmidt",
		PasswordHash: hashPassword(t, "geheimnis"),
		Role:         models.RoleTeacher,
		TeacherID:    &teacherID,
	}}
	svc := newAuthService(repo, AuthConfig{TokenSecret: "secret", TokenExpiry: 8 * time.Hour})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "schmidt", Password: "geheimnis"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.InDelta(t, (8 * time.Hour).Seconds(), float64(res.ExpiresIn), 2)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "schmidt", claims.Username)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	require.NotNil(t, claims.TeacherID)
	assert.Equal(t, teacherID, *claims.TeacherID)
}

func TestAuthServiceAdminLoginFromConfig(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, AuthConfig{
		TokenSecret:       "secret",
		TokenExpiry:       8 * time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: hashPassword(t, "adminpass"),
	})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "adminpass"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Nil(t, claims.TeacherID)
}

func TestAuthServiceInvalidCredentialsCollapse(t *testing.T) {
	repo := &mockUserRepo{user: &models.User{
		Username:     "schmidt",
		PasswordHash: hashPassword(t, "geheimnis"),
		Role:         models.RoleTeacher,
	}}
	svc := newAuthService(repo, AuthConfig{TokenSecret: "secret", TokenExpiry: time.Hour})

	// Unknown user and wrong password must be indistinguishable.
	_, errUnknown := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "x"})
	_, errWrong := svc.Login(context.Background(), models.LoginRequest{Username: "schmidt", Password: "falsch"})

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, appErrors.FromError(errUnknown).Code, appErrors.FromError(errWrong).Code)
	assert.Equal(t, appErrors.FromError(errUnknown).Message, appErrors.FromError(errWrong).Message)
}

func TestAuthServiceTokenExpiryBoundary(t *testing.T) {
	repo := &mockUserRepo{user: &models.User{
		Username:     "schmidt",
		PasswordHash: hashPassword(t, "geheimnis"),
		Role:         models.RoleTeacher,
	}}
	svc := newAuthService(repo, AuthConfig{TokenSecret: "secret", TokenExpiry: 8 * time.Hour})

	issued := time.Date(2026, 2, 12, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "schmidt", Password: "geheimnis"})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(7*time.Hour + 59*time.Minute) }
	_, err = svc.ValidateToken(res.Token)
	assert.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(8*time.Hour + time.Minute) }
	_, err = svc.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRejectsForgedToken(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, AuthConfig{TokenSecret: "secret", TokenExpiry: time.Hour})
	other := newAuthService(&mockUserRepo{user: &models.User{
		Username:     "schmidt",
		PasswordHash: hashPassword(t, "geheimnis"),
		Role:         models.RoleTeacher,
	}}, AuthConfig{TokenSecret: "other-secret", TokenExpiry: time.Hour})

	res, err := other.Login(context.Background(), models.LoginRequest{Username: "schmidt", Password: "geheimnis"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token)
	assert.Error(t, err)
}

func TestAuthServiceVerifyAdminEmptyHashNeverMatches(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, AuthConfig{AdminUsername: "admin"})
	assert.False(t, svc.VerifyAdmin("admin", ""))
	assert.False(t, svc.VerifyAdmin("admin", "anything"))
}
