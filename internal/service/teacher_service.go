package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bksb/sprechtag-api/internal/dto"
	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/repository"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type teacherUserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

type teacherSlotRepository interface {
	BulkInsert(ctx context.Context, teacherID int64, date string, times []string) (int, error)
	CountByTeacher(ctx context.Context, teacherID int64) (int, error)
}

// TeacherService covers the teacher directory and the admin-side inventory
// management (creating teachers, their login accounts and slot inventory).
type TeacherService struct {
	teachers  teacherRepository
	users     teacherUserRepository
	slots     teacherSlotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(teachers teacherRepository, users teacherUserRepository, slots teacherSlotRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeacherService{teachers: teachers, users: users, slots: slots, validator: validate, logger: logger}
}

// List returns the public teacher directory.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// Get returns one teacher record.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	return teacher, nil
}

// Info resolves the teacher record behind a teacher token.
func (s *TeacherService) Info(ctx context.Context, claims *models.TokenClaims) (*models.Teacher, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.TeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id not found in token")
	}
	return s.Get(ctx, *claims.TeacherID)
}

// Create adds a teacher and, when a username is supplied, a linked teacher
// login account. Teachers never self-register.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if req.Username != "" && req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password required when creating a login account")
	}

	teacher := &models.Teacher{
		Name:    strings.TrimSpace(req.Name),
		Subject: strings.TrimSpace(req.Subject),
	}
	if room := strings.TrimSpace(req.Room); room != "" {
		teacher.Room = &room
	}
	if salutation := strings.TrimSpace(req.Salutation); salutation != "" {
		teacher.Salutation = &salutation
	}

	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	if req.Username != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user := &models.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			Role:         models.RoleTeacher,
			TeacherID:    &teacher.ID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher account")
		}
		s.logger.Info("teacher account created", zap.String("username", user.Username), zap.Int64("teacher_id", teacher.ID))
	}

	return teacher, nil
}

// Delete removes a teacher. Deletion is blocked while slots still reference
// the teacher; the inventory has to be cleared first.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	count, err := s.slots.CountByTeacher(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher slots")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher still has %d slots, delete those first", count))
	}

	deleted, err := s.teachers.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}

// GenerateSlots creates the slot inventory for one teacher and day:
// back-to-back slots of the requested interval between start and end.
func (s *TeacherService) GenerateSlots(ctx context.Context, req dto.GenerateSlotsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot generation payload")
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	times, err := slotTimes(req.Start, req.End, req.IntervalMinutes)
	if err != nil {
		return 0, err
	}

	created, err := s.slots.BulkInsert(ctx, req.TeacherID, req.Date, times)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slots")
	}

	s.logger.Info("slot inventory generated",
		zap.Int64("teacher_id", req.TeacherID),
		zap.String("date", req.Date),
		zap.Int("count", created),
	)
	return created, nil
}

// slotTimes expands a start/end window into "HH:MM - HH:MM" ranges.
func slotTimes(start, end string, intervalMinutes int) ([]string, error) {
	from, err := time.Parse("15:04", start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	var times []string
	for cur := from; !cur.Add(interval).After(to); cur = cur.Add(interval) {
		times = append(times, fmt.Sprintf("%s - %s", cur.Format("15:04"), cur.Add(interval).Format("15:04")))
	}
	if len(times) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window too small for a single slot")
	}
	return times, nil
}
