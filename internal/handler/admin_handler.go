package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/dto"
	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/service"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
	"github.com/bksb/sprechtag-api/pkg/response"
)

type adminTeacherService interface {
	Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, id int64) error
	GenerateSlots(ctx context.Context, req dto.GenerateSlotsRequest) (int, error)
}

type adminBookingService interface {
	AllBookings(ctx context.Context) ([]models.Booking, error)
	Accept(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error)
	Cancel(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error)
}

type adminExportService interface {
	AllBookingsCalendar(ctx context.Context) (*service.ExportFile, error)
}

// AdminHandler serves the admin dashboard: teacher management, slot
// inventory and the global booking overview.
type AdminHandler struct {
	teachers adminTeacherService
	bookings adminBookingService
	exports  adminExportService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(teachers adminTeacherService, bookings adminBookingService, exports adminExportService) *AdminHandler {
	return &AdminHandler{teachers: teachers, bookings: bookings, exports: exports}
}

// CreateTeacher adds a teacher and optionally a linked login account.
func (h *AdminHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload"))
		return
	}

	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// DeleteTeacher removes a teacher without slots.
func (h *AdminHandler) DeleteTeacher(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.teachers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateSlots creates the slot inventory for a teacher and day.
func (h *AdminHandler) GenerateSlots(c *gin.Context) {
	var req dto.GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot generation payload"))
		return
	}

	created, err := h.teachers.GenerateSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"created": created})
}

// AllBookings lists every booking across teachers.
func (h *AdminHandler) AllBookings(c *gin.Context) {
	bookings, err := h.bookings.AllBookings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings)
}

// AcceptBooking confirms any reserved slot. The admin principal carries no
// teacher ID, so ownership is not filtered.
func (h *AdminHandler) AcceptBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	slot, err := h.bookings.Accept(c.Request.Context(), id, sessionClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// CancelBooking releases any booking.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	slot, err := h.bookings.Cancel(c.Request.Context(), id, sessionClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// ExportCalendar downloads every booking as one .ics file.
func (h *AdminHandler) ExportCalendar(c *gin.Context) {
	file, err := h.exports.AllBookingsCalendar(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}
