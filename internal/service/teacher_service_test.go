package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bksb/sprechtag-api/internal/dto"
	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/repository"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type fakeTeacherRepo struct {
	teachers map[int64]*models.Teacher
	nextID   int64
}

func newFakeTeacherRepo(teachers ...*models.Teacher) *fakeTeacherRepo {
	repo := &fakeTeacherRepo{teachers: make(map[int64]*models.Teacher), nextID: 1}
	for _, teacher := range teachers {
		repo.teachers[teacher.ID] = teacher
		if teacher.ID >= repo.nextID {
			repo.nextID = teacher.ID + 1
		}
	}
	return repo
}

func (f *fakeTeacherRepo) List(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, teacher := range f.teachers {
		out = append(out, *teacher)
	}
	return out, nil
}

func (f *fakeTeacherRepo) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, ok := f.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func (f *fakeTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = f.nextID
	f.nextID++
	f.teachers[teacher.ID] = teacher
	return nil
}

func (f *fakeTeacherRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.teachers[id]; !ok {
		return false, nil
	}
	delete(f.teachers, id)
	return true, nil
}

type fakeUserRepo struct {
	users     []*models.User
	createErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users = append(f.users, user)
	return nil
}

type fakeSlotInventory struct {
	counts   map[int64]int
	inserted []string
}

func (f *fakeSlotInventory) BulkInsert(ctx context.Context, teacherID int64, date string, times []string) (int, error) {
	f.inserted = append(f.inserted, times...)
	return len(times), nil
}

func (f *fakeSlotInventory) CountByTeacher(ctx context.Context, teacherID int64) (int, error) {
	return f.counts[teacherID], nil
}

func newTeacherService(teachers *fakeTeacherRepo, users *fakeUserRepo, slots *fakeSlotInventory) *TeacherService {
	if users == nil {
		users = &fakeUserRepo{}
	}
	if slots == nil {
		slots = &fakeSlotInventory{counts: make(map[int64]int)}
	}
	return NewTeacherService(teachers, users, slots, validator.New(), zap.NewNop())
}

func TestTeacherServiceCreateWithAccount(t *testing.T) {
	users := &fakeUserRepo{}
	svc := newTeacherService(newFakeTeacherRepo(), users, nil)

	teacher, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:       "Schmidt",
		Subject:    "Mathematik",
		Room:       "A204",
		Salutation: "Frau",
		Username:   "schmidt",
		Password:   "geheimnis123",
	})
	require.NoError(t, err)
	assert.NotZero(t, teacher.ID)
	require.NotNil(t, teacher.Room)
	assert.Equal(t, "A204", *teacher.Room)

	require.Len(t, users.users, 1)
	account := users.users[0]
	assert.Equal(t, models.RoleTeacher, account.Role)
	require.NotNil(t, account.TeacherID)
	assert.Equal(t, teacher.ID, *account.TeacherID)
	// Plaintext never lands in storage.
	assert.NotEqual(t, "geheimnis123", account.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("geheimnis123")))
}

func TestTeacherServiceCreateWithoutAccount(t *testing.T) {
	users := &fakeUserRepo{}
	svc := newTeacherService(newFakeTeacherRepo(), users, nil)

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{Name: "Weber", Subject: "Deutsch"})
	require.NoError(t, err)
	assert.Empty(t, users.users)
}

func TestTeacherServiceCreateUsernameRequiresPassword(t *testing.T) {
	svc := newTeacherService(newFakeTeacherRepo(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:     "Weber",
		Subject:  "Deutsch",
		Username: "weber",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceCreateDuplicateUsername(t *testing.T) {
	users := &fakeUserRepo{createErr: repository.ErrDuplicateUsername}
	svc := newTeacherService(newFakeTeacherRepo(), users, nil)

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{
		Name:     "Schmidt",
		Subject:  "Mathematik",
		Username: "schmidt",
		Password: "geheimnis123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceDeleteBlockedBySlots(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: 3, Name: "Schmidt", Subject: "Mathematik"})
	slots := &fakeSlotInventory{counts: map[int64]int{3: 12}}
	svc := newTeacherService(teachers, nil, slots)

	err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	// Teacher survives.
	_, findErr := teachers.FindByID(context.Background(), 3)
	assert.NoError(t, findErr)
}

func TestTeacherServiceDeleteMissing(t *testing.T) {
	svc := newTeacherService(newFakeTeacherRepo(), nil, nil)

	err := svc.Delete(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceGenerateSlots(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: 3, Name: "Schmidt", Subject: "Mathematik"})
	slots := &fakeSlotInventory{counts: make(map[int64]int)}
	svc := newTeacherService(teachers, nil, slots)

	created, err := svc.GenerateSlots(context.Background(), dto.GenerateSlotsRequest{
		TeacherID:       3,
		Date:            "2026-02-12",
		Start:           "15:00",
		End:             "16:00",
		IntervalMinutes: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, created)
	require.Len(t, slots.inserted, 6)
	assert.Equal(t, "15:00 - 15:10", slots.inserted[0])
	assert.Equal(t, "15:50 - 16:00", slots.inserted[5])
}

func TestTeacherServiceGenerateSlotsWindowTooSmall(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: 3, Name: "Schmidt", Subject: "Mathematik"})
	svc := newTeacherService(teachers, nil, nil)

	_, err := svc.GenerateSlots(context.Background(), dto.GenerateSlotsRequest{
		TeacherID:       3,
		Date:            "2026-02-12",
		Start:           "15:00",
		End:             "15:05",
		IntervalMinutes: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceGenerateSlotsUnknownTeacher(t *testing.T) {
	svc := newTeacherService(newFakeTeacherRepo(), nil, nil)

	_, err := svc.GenerateSlots(context.Background(), dto.GenerateSlotsRequest{
		TeacherID:       404,
		Date:            "2026-02-12",
		Start:           "15:00",
		End:             "16:00",
		IntervalMinutes: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceInfoRequiresTeacherID(t *testing.T) {
	svc := newTeacherService(newFakeTeacherRepo(&models.Teacher{ID: 3, Name: "Schmidt", Subject: "Mathematik"}), nil, nil)

	_, err := svc.Info(context.Background(), &models.TokenClaims{Username: "schmidt", Role: models.RoleTeacher})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	teacherID := int64(3)
	teacher, err := svc.Info(context.Background(), &models.TokenClaims{Username: "schmidt", Role: models.RoleTeacher, TeacherID: &teacherID})
	require.NoError(t, err)
	assert.Equal(t, "Schmidt", teacher.Name)
}
