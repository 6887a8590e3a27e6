package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/service"
	"github.com/bksb/sprechtag-api/pkg/response"
)

type teacherInfoService interface {
	Info(ctx context.Context, claims *models.TokenClaims) (*models.Teacher, error)
}

type teacherBookingService interface {
	TeacherSlots(ctx context.Context, claims *models.TokenClaims) ([]models.Slot, error)
	TeacherBookings(ctx context.Context, claims *models.TokenClaims) ([]models.Booking, error)
	Accept(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error)
	Cancel(ctx context.Context, slotID int64, claims *models.TokenClaims) (*models.Slot, error)
}

type teacherExportService interface {
	TeacherCalendar(ctx context.Context, claims *models.TokenClaims) (*service.ExportFile, error)
	TeacherCSV(ctx context.Context, claims *models.TokenClaims) (*service.ExportFile, error)
	TeacherPDF(ctx context.Context, claims *models.TokenClaims) (*service.ExportFile, error)
}

// TeacherHandler serves the token-protected teacher dashboard routes.
type TeacherHandler struct {
	teachers teacherInfoService
	bookings teacherBookingService
	exports  teacherExportService
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(teachers teacherInfoService, bookings teacherBookingService, exports teacherExportService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, bookings: bookings, exports: exports}
}

// Info returns the teacher record behind the token.
func (h *TeacherHandler) Info(c *gin.Context) {
	teacher, err := h.teachers.Info(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// Slots lists all of the teacher's slots.
func (h *TeacherHandler) Slots(c *gin.Context) {
	slots, err := h.bookings.TeacherSlots(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Bookings lists the teacher's booked slots.
func (h *TeacherHandler) Bookings(c *gin.Context) {
	bookings, err := h.bookings.TeacherBookings(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings)
}

// AcceptBooking confirms a reserved slot.
func (h *TeacherHandler) AcceptBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	slot, err := h.bookings.Accept(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// CancelBooking releases a booking, freeing the slot again.
func (h *TeacherHandler) CancelBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	slot, err := h.bookings.Cancel(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// ExportCalendar downloads the teacher's bookings as an .ics file.
func (h *TeacherHandler) ExportCalendar(c *gin.Context) {
	file, err := h.exports.TeacherCalendar(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// ExportCSV downloads the teacher's day plan as CSV.
func (h *TeacherHandler) ExportCSV(c *gin.Context) {
	file, err := h.exports.TeacherCSV(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// ExportPDF downloads the teacher's day plan as PDF.
func (h *TeacherHandler) ExportPDF(c *gin.Context) {
	file, err := h.exports.TeacherPDF(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
