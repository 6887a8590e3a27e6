package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/dto"
	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
	"github.com/bksb/sprechtag-api/pkg/response"
)

type teacherDirectory interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type slotBooker interface {
	ListSlots(ctx context.Context, teacherID int64) ([]models.Slot, error)
	Claim(ctx context.Context, slotID int64, req dto.BookingRequest) (*models.Slot, error)
}

// PublicHandler serves the unauthenticated visitor surface: browsing
// teachers and slots, and claiming a free slot.
type PublicHandler struct {
	teachers teacherDirectory
	bookings slotBooker
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(teachers teacherDirectory, bookings slotBooker) *PublicHandler {
	return &PublicHandler{teachers: teachers, bookings: bookings}
}

// ListTeachers returns the teacher directory.
func (h *PublicHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}

// ListSlots returns all slots of one teacher, free and booked alike, so the
// visitor view can render the full grid.
func (h *PublicHandler) ListSlots(c *gin.Context) {
	teacherID, err := strconv.ParseInt(c.Query("teacherId"), 10, 64)
	if err != nil || teacherID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId query parameter required"))
		return
	}

	slots, err := h.bookings.ListSlots(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// BookSlot claims a free slot for a visitor.
func (h *PublicHandler) BookSlot(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload"))
		return
	}

	slot, err := h.bookings.Claim(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}
