package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bksb/sprechtag-api/internal/models"
)

func newSlotMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "teacher_id", "date", "time", "booked", "status",
		"visitor_type", "parent_name", "company_name", "student_name",
		"trainee_name", "representative_name", "class_name", "email",
		"message", "updated_at",
	})
}

func TestSlotRepositoryClaimWritesVisitorPayload(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	parent := "Erika Mustermann"
	student := "Max Mustermann"
	class := "ITA-23"
	email := "erika@example.com"

	mock.ExpectQuery(`UPDATE slots\s+SET booked = TRUE, status = 'reserved'`).
		WithArgs(int64(7), "parent", parent, nil, student, nil, nil, class, email, nil).
		WillReturnRows(slotRows().AddRow(
			7, 3, "2026-02-12", "15:00 - 15:10", true, "reserved",
			"parent", parent, nil, student, nil, nil, class, email, nil,
			time.Now(),
		))

	slot, err := repo.Claim(context.Background(), 7, ClaimParams{
		VisitorType: models.VisitorParent,
		ParentName:  &parent,
		StudentName: &student,
		ClassName:   &class,
		Email:       &email,
	})
	require.NoError(t, err)
	assert.True(t, slot.Booked)
	require.NotNil(t, slot.Status)
	assert.Equal(t, models.SlotStatusReserved, *slot.Status)
	require.NotNil(t, slot.ParentName)
	assert.Equal(t, parent, *slot.ParentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryClaimLostRace(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	// WHERE booked = FALSE did not hold; the update touches nothing.
	mock.ExpectQuery(`UPDATE slots`).WillReturnRows(slotRows())

	_, err := repo.Claim(context.Background(), 7, ClaimParams{VisitorType: models.VisitorParent})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryAcceptCarriesOwnership(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	teacherID := int64(3)
	mock.ExpectQuery(`UPDATE slots\s+SET status = 'confirmed'`).
		WithArgs(int64(7), teacherID).
		WillReturnRows(slotRows().AddRow(
			7, 3, "2026-02-12", "15:00 - 15:10", true, "confirmed",
			"parent", "Erika", nil, "Max", nil, nil, "ITA-23", "e@example.com", nil,
			time.Now(),
		))

	slot, err := repo.Accept(context.Background(), 7, &teacherID)
	require.NoError(t, err)
	require.NotNil(t, slot.Status)
	assert.Equal(t, models.SlotStatusConfirmed, *slot.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryAcceptForeignSlot(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	otherTeacher := int64(99)
	mock.ExpectQuery(`UPDATE slots`).
		WithArgs(int64(7), otherTeacher).
		WillReturnRows(slotRows())

	_, err := repo.Accept(context.Background(), 7, &otherTeacher)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryCancelClearsVisitorFields(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(`UPDATE slots\s+SET booked = FALSE, status = NULL`).
		WithArgs(int64(7), nil).
		WillReturnRows(slotRows().AddRow(
			7, 3, "2026-02-12", "15:00 - 15:10", false, nil,
			nil, nil, nil, nil, nil, nil, nil, nil, nil,
			time.Now(),
		))

	slot, err := repo.Cancel(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.False(t, slot.Booked)
	assert.Nil(t, slot.Status)
	assert.Nil(t, slot.VisitorType)
	assert.Nil(t, slot.ParentName)
	assert.Nil(t, slot.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryExists(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO slots`).
		WithArgs(int64(3), "2026-02-12", "15:00 - 15:10").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO slots`).
		WithArgs(int64(3), "2026-02-12", "15:10 - 15:20").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	count, err := repo.BulkInsert(context.Background(), 3, "2026-02-12", []string{"15:00 - 15:10", "15:10 - 15:20"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
