package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bksb/sprechtag-api/internal/models"
)

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	teacherID := int64(3)
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "teacher_id", "created_at"}).
		AddRow(1, "schmidt", "$2a$10$hash", "teacher", teacherID, time.Now())
	mock.ExpectQuery(`SELECT id, username, password_hash, role, teacher_id, created_at FROM users`).
		WithArgs("schmidt").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "schmidt")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	require.NotNil(t, user.TeacherID)
	assert.Equal(t, teacherID, *user.TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicateUsername(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{
		Username:     "schmidt",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleTeacher,
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}
