package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bksb/sprechtag-api/internal/dto"
	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/repository"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

type bookingSlotRepository interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Slot, error)
	ListBookedByTeacher(ctx context.Context, teacherID int64) ([]models.Booking, error)
	ListAllBooked(ctx context.Context) ([]models.Booking, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Claim(ctx context.Context, id int64, params repository.ClaimParams) (*models.Slot, error)
	Accept(ctx context.Context, id int64, teacherID *int64) (*models.Slot, error)
	Cancel(ctx context.Context, id int64, teacherID *int64) (*models.Slot, error)
}

type bookingMetrics interface {
	RecordBooking(outcome string)
}

// BookingService implements the slot booking state machine:
// free -> reserved (visitor claim), reserved -> confirmed (teacher accept),
// reserved|confirmed -> free (cancel). All arbitration between concurrent
// requests is delegated to the repository's conditional updates.
type BookingService struct {
	slots     bookingSlotRepository
	metrics   bookingMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService. metrics may be nil.
func NewBookingService(slots bookingSlotRepository, metrics bookingMetrics, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{slots: slots, metrics: metrics, validator: validate, logger: logger}
}

// ListSlots returns a teacher's slots for the public browsing view.
func (s *BookingService) ListSlots(ctx context.Context, teacherID int64) ([]models.Slot, error) {
	slots, err := s.slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch slots")
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	return slots, nil
}

// Claim books a free slot with the visitor's payload. Exactly one of N
// concurrent claims for the same slot succeeds; the rest receive a
// conflict telling the visitor to pick another slot.
func (s *BookingService) Claim(ctx context.Context, slotID int64, req dto.BookingRequest) (*models.Slot, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	slot, err := s.slots.Claim(ctx, slotID, claimParams(req))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists, probeErr := s.slots.Exists(ctx, slotID)
			if probeErr != nil {
				return nil, appErrors.Wrap(probeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book slot")
			}
			if !exists {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
			}
			s.record("conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot is already booked, please pick another one")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book slot")
	}

	s.record("claimed")
	s.logger.Info("slot claimed",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.String("visitor_type", string(req.VisitorType)),
	)
	return slot, nil
}

// Accept confirms a reserved booking on behalf of the acting principal.
// Accepting an already confirmed booking succeeds idempotently. A missing,
// unbooked or foreign slot yields the same not-found error so that slot
// existence never leaks across teachers.
func (s *BookingService) Accept(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error) {
	owner, err := actingTeacher(claims)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.Accept(ctx, slotID, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found or not booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept booking")
	}

	s.record("accepted")
	return slot, nil
}

// Cancel releases a booking, returning the slot to its pre-claim state.
// Failure semantics match Accept.
func (s *BookingService) Cancel(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error) {
	owner, err := actingTeacher(claims)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.Cancel(ctx, slotID, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found, not booked, or not yours")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}

	s.record("cancelled")
	return slot, nil
}

// TeacherSlots lists all slots owned by the token's teacher.
func (s *BookingService) TeacherSlots(ctx context.Context, claims *models.TokenClaims) ([]models.Slot, error) {
	teacherID, err := requireTeacherID(claims)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch slots")
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	return slots, nil
}

// TeacherBookings lists the booked slots owned by the token's teacher.
func (s *BookingService) TeacherBookings(ctx context.Context, claims *models.TokenClaims) ([]models.Booking, error) {
	teacherID, err := requireTeacherID(claims)
	if err != nil {
		return nil, err
	}
	bookings, err := s.slots.ListBookedByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// AllBookings lists every booking for the admin overview.
func (s *BookingService) AllBookings(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.slots.ListAllBooked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) validateBooking(req dto.BookingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	switch req.VisitorType {
	case models.VisitorParent:
		if strings.TrimSpace(req.ParentName) == "" || strings.TrimSpace(req.StudentName) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "parent bookings require parentName and studentName")
		}
	case models.VisitorCompany:
		if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.TraineeName) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "company bookings require companyName and traineeName")
		}
	}
	return nil
}

// claimParams maps the request onto the repository write, turning empty
// strings into NULLs so a claimed slot only carries fields the visitor
// actually filled in.
func claimParams(req dto.BookingRequest) repository.ClaimParams {
	return repository.ClaimParams{
		VisitorType:        req.VisitorType,
		ParentName:         optional(req.ParentName),
		CompanyName:        optional(req.CompanyName),
		StudentName:        optional(req.StudentName),
		TraineeName:        optional(req.TraineeName),
		RepresentativeName: optional(req.RepresentativeName),
		ClassName:          optional(req.ClassName),
		Email:              optional(req.Email),
		Message:            optional(req.Message),
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *BookingService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBooking(outcome)
	}
}

// actingTeacher resolves the ownership filter for a slot mutation: admins
// mutate any slot (nil filter), teachers only their own. A teacher token
// without a teacher ID cannot be evaluated for ownership and is a
// structural error.
func actingTeacher(claims *models.TokenClaims) (*int64, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdmin {
		return nil, nil
	}
	teacherID, err := requireTeacherID(claims)
	if err != nil {
		return nil, err
	}
	return &teacherID, nil
}

func requireTeacherID(claims *models.TokenClaims) (int64, error) {
	if claims == nil {
		return 0, appErrors.ErrUnauthorized
	}
	if claims.TeacherID == nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "teacher id not found in token")
	}
	return *claims.TeacherID, nil
}
