package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
	"github.com/bksb/sprechtag-api/pkg/export"
	"github.com/bksb/sprechtag-api/pkg/ical"
)

type exportSlotRepository interface {
	ListBookedByTeacher(ctx context.Context, teacherID int64) ([]models.Booking, error)
	ListAllBooked(ctx context.Context) ([]models.Booking, error)
}

type exportTeacherRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
}

// ExportConfig names the conference event for generated files.
type ExportConfig struct {
	EventName string
	Location  string
}

// ExportService renders booking lists as downloadable files (iCal, CSV,
// PDF). All rendering is pure formatting over repository reads.
type ExportService struct {
	slots    exportSlotRepository
	teachers exportTeacherRepository
	config   ExportConfig
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(slots exportSlotRepository, teachers exportTeacherRepository, config ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{slots: slots, teachers: teachers, config: config, logger: logger}
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// TeacherCalendar renders a teacher's booked slots as an .ics calendar with
// a 15-minute reminder per appointment.
func (s *ExportService) TeacherCalendar(ctx context.Context, claims *models.TokenClaims) (*ExportFile, error) {
	teacher, bookings, err := s.teacherBookings(ctx, claims)
	if err != nil {
		return nil, err
	}

	cal := ical.New(
		fmt.Sprintf("%s - %s", s.config.EventName, teacher.DisplayName()),
		fmt.Sprintf("Termine für %s", teacher.DisplayNameAccusative()),
	)
	cal.AlarmBefore = 15 * time.Minute

	events, err := s.bookingEvents(bookings)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Name:        fmt.Sprintf("Elternsprechtag-%s.ics", sanitizeFileName(teacher.Name)),
		ContentType: "text/calendar; charset=utf-8",
		Data:        []byte(cal.Render(events)),
	}, nil
}

// AllBookingsCalendar renders every booking as one calendar for the admin.
func (s *ExportService) AllBookingsCalendar(ctx context.Context) (*ExportFile, error) {
	bookings, err := s.slots.ListAllBooked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch bookings")
	}

	cal := ical.New(
		fmt.Sprintf("%s - Alle Buchungen", s.config.EventName),
		fmt.Sprintf("Übersicht aller Termine für %s", s.config.EventName),
	)
	cal.AlarmBefore = 15 * time.Minute

	events, err := s.bookingEvents(bookings)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Name:        "Elternsprechtag-Alle-Buchungen.ics",
		ContentType: "text/calendar; charset=utf-8",
		Data:        []byte(cal.Render(events)),
	}, nil
}

// TeacherCSV renders a teacher's day plan as CSV.
func (s *ExportService) TeacherCSV(ctx context.Context, claims *models.TokenClaims) (*ExportFile, error) {
	teacher, bookings, err := s.teacherBookings(ctx, claims)
	if err != nil {
		return nil, err
	}

	data, err := export.CSV(dayPlanTable(teacher, bookings))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}

	return &ExportFile{
		Name:        fmt.Sprintf("Elternsprechtag-%s.csv", sanitizeFileName(teacher.Name)),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// TeacherPDF renders a teacher's day plan as a printable PDF.
func (s *ExportService) TeacherPDF(ctx context.Context, claims *models.TokenClaims) (*ExportFile, error) {
	teacher, bookings, err := s.teacherBookings(ctx, claims)
	if err != nil {
		return nil, err
	}

	table := dayPlanTable(teacher, bookings)
	table.Title = fmt.Sprintf("%s - %s", s.config.EventName, teacher.DisplayName())

	data, err := export.PDF(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}

	return &ExportFile{
		Name:        fmt.Sprintf("Elternsprechtag-%s.pdf", sanitizeFileName(teacher.Name)),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *ExportService) teacherBookings(ctx context.Context, claims *models.TokenClaims) (*models.Teacher, []models.Booking, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if claims.TeacherID == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "teacher id not found in token")
	}

	teacher, err := s.teachers.FindByID(ctx, *claims.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	bookings, err := s.slots.ListBookedByTeacher(ctx, *claims.TeacherID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch bookings")
	}

	return teacher, bookings, nil
}

func (s *ExportService) bookingEvents(bookings []models.Booking) ([]ical.Event, error) {
	events := make([]ical.Event, 0, len(bookings))
	for _, b := range bookings {
		start, end, err := ical.ParseSlotTimes(b.Date, b.Time)
		if err != nil {
			s.logger.Warn("skipping booking with malformed times",
				zap.Int64("slot_id", b.ID), zap.Error(err))
			continue
		}
		events = append(events, ical.Event{
			UID:         fmt.Sprintf("booking-%d@bksb-elternsprechtag.de", b.ID),
			Summary:     fmt.Sprintf("%s - %s", s.config.EventName, visitorName(b)),
			Description: bookingDescription(b),
			Location:    s.config.Location,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

func dayPlanTable(teacher *models.Teacher, bookings []models.Booking) export.Table {
	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []string{
			b.Date,
			b.Time,
			visitorName(b),
			deref(b.StudentName, deref(b.TraineeName, "")),
			deref(b.ClassName, ""),
			string(derefStatus(b.Status)),
		})
	}
	return export.Table{
		Columns: []string{"Datum", "Zeit", "Besucher", "Schüler/in", "Klasse", "Status"},
		Rows:    rows,
	}
}

func visitorName(b models.Booking) string {
	if b.VisitorType != nil && *b.VisitorType == models.VisitorCompany {
		return deref(b.CompanyName, "Unbekannt")
	}
	return deref(b.ParentName, "Unbekannt")
}

func bookingDescription(b models.Booking) string {
	var parts []string
	if b.VisitorType != nil && *b.VisitorType == models.VisitorCompany {
		parts = append(parts, "Firma: "+deref(b.CompanyName, ""))
		parts = append(parts, "Auszubildende/r: "+deref(b.TraineeName, ""))
	} else {
		parts = append(parts, "Eltern: "+deref(b.ParentName, ""))
		parts = append(parts, "Schüler/in: "+deref(b.StudentName, ""))
	}
	parts = append(parts, "Klasse: "+deref(b.ClassName, ""))
	if msg := deref(b.Message, ""); msg != "" {
		parts = append(parts, "Nachricht: "+msg)
	}
	return strings.Join(parts, "\n")
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func derefStatus(s *models.SlotStatus) models.SlotStatus {
	if s == nil {
		return ""
	}
	return *s
}

func sanitizeFileName(name string) string {
	r := strings.NewReplacer(" ", "-", "/", "-", "\\", "-")
	return r.Replace(strings.TrimSpace(name))
}
