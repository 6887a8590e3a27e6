package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bksb/sprechtag-api/internal/models"
)

const slotColumns = `id, teacher_id, date, time, booked, status, visitor_type, parent_name, company_name, student_name, trainee_name, representative_name, class_name, email, message, updated_at`

// SlotRepository manages persistence for conference slots. Every state
// transition is a single conditional UPDATE whose WHERE clause carries the
// full precondition (slot id, booking state and, for teacher-scoped
// mutations, ownership). Zero affected rows means the precondition did not
// hold at write time; callers never pre-check with a separate read.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListByTeacher returns all slots of a teacher ordered by date and time.
func (r *SlotRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE teacher_id = $1 ORDER BY date, time", slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListBookedByTeacher returns a teacher's booked slots joined with the
// teacher record.
func (r *SlotRepository) ListBookedByTeacher(ctx context.Context, teacherID int64) ([]models.Booking, error) {
	const query = `SELECT s.id, s.teacher_id, s.date, s.time, s.booked, s.status, s.visitor_type, s.parent_name, s.company_name, s.student_name, s.trainee_name, s.representative_name, s.class_name, s.email, s.message, s.updated_at, t.name AS teacher_name, t.subject AS teacher_subject
		FROM slots s JOIN teachers t ON t.id = s.teacher_id
		WHERE s.teacher_id = $1 AND s.booked = TRUE
		ORDER BY s.date, s.time`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher bookings: %w", err)
	}
	return bookings, nil
}

// ListAllBooked returns every booked slot joined with its teacher.
func (r *SlotRepository) ListAllBooked(ctx context.Context) ([]models.Booking, error) {
	const query = `SELECT s.id, s.teacher_id, s.date, s.time, s.booked, s.status, s.visitor_type, s.parent_name, s.company_name, s.student_name, s.trainee_name, s.representative_name, s.class_name, s.email, s.message, s.updated_at, t.name AS teacher_name, t.subject AS teacher_subject
		FROM slots s JOIN teachers t ON t.id = s.teacher_id
		WHERE s.booked = TRUE
		ORDER BY s.date, s.time`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// FindByID fetches a slot by ID.
func (r *SlotRepository) FindByID(ctx context.Context, id int64) (*models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE id = $1", slotColumns)
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Exists reports whether a slot row exists at all. Used only to pick the
// right error after a conditional update affected zero rows, never to
// guard a write.
func (r *SlotRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, "SELECT 1 FROM slots WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check slot: %w", err)
	}
	return true, nil
}

// Claim atomically moves a free slot to reserved and writes the visitor
// payload. Returns sql.ErrNoRows when the slot was not free at write time,
// which is how a lost booking race surfaces.
func (r *SlotRepository) Claim(ctx context.Context, id int64, req ClaimParams) (*models.Slot, error) {
	query := fmt.Sprintf(`UPDATE slots
		SET booked = TRUE, status = 'reserved', visitor_type = $2, parent_name = $3, company_name = $4, student_name = $5, trainee_name = $6, representative_name = $7, class_name = $8, email = $9, message = $10, updated_at = NOW()
		WHERE id = $1 AND booked = FALSE
		RETURNING %s`, slotColumns)

	var slot models.Slot
	err := r.db.GetContext(ctx, &slot, query, id,
		req.VisitorType,
		req.ParentName,
		req.CompanyName,
		req.StudentName,
		req.TraineeName,
		req.RepresentativeName,
		req.ClassName,
		req.Email,
		req.Message,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Accept confirms a reserved booking. A nil teacherID skips the ownership
// predicate (admin). Accepting an already confirmed slot re-applies the
// same state and succeeds. Returns sql.ErrNoRows when the slot is absent,
// not booked, or owned by another teacher; those cases are deliberately
// indistinguishable.
func (r *SlotRepository) Accept(ctx context.Context, id int64, teacherID *int64) (*models.Slot, error) {
	query := fmt.Sprintf(`UPDATE slots
		SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND booked = TRUE AND ($2::bigint IS NULL OR teacher_id = $2)
		RETURNING %s`, slotColumns)

	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id, teacherID); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Cancel releases a booked slot, clearing every visitor field in the same
// statement so the slot returns to exactly its pre-claim state. Ownership
// and failure semantics match Accept.
func (r *SlotRepository) Cancel(ctx context.Context, id int64, teacherID *int64) (*models.Slot, error) {
	query := fmt.Sprintf(`UPDATE slots
		SET booked = FALSE, status = NULL, visitor_type = NULL, parent_name = NULL, company_name = NULL, student_name = NULL, trainee_name = NULL, representative_name = NULL, class_name = NULL, email = NULL, message = NULL, updated_at = NOW()
		WHERE id = $1 AND booked = TRUE AND ($2::bigint IS NULL OR teacher_id = $2)
		RETURNING %s`, slotColumns)

	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id, teacherID); err != nil {
		return nil, err
	}
	return &slot, nil
}

// BulkInsert creates free slots for a teacher. Used by the admin inventory
// generator before the event.
func (r *SlotRepository) BulkInsert(ctx context.Context, teacherID int64, date string, times []string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO slots (teacher_id, date, time, booked) VALUES ($1, $2, $3, FALSE)`
	for _, t := range times {
		if _, err := tx.ExecContext(ctx, query, teacherID, date, t); err != nil {
			return 0, fmt.Errorf("insert slot %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return len(times), nil
}

// CountByTeacher returns the number of slots referencing a teacher.
func (r *SlotRepository) CountByTeacher(ctx context.Context, teacherID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM slots WHERE teacher_id = $1", teacherID); err != nil {
		return 0, fmt.Errorf("count teacher slots: %w", err)
	}
	return count, nil
}

// ClaimParams carries the visitor payload written by Claim. Fields are
// nullable so that unset ones land as NULL, keeping the all-or-nothing
// slot invariant.
type ClaimParams struct {
	VisitorType        models.VisitorType
	ParentName         *string
	CompanyName        *string
	StudentName        *string
	TraineeName        *string
	RepresentativeName *string
	ClassName          *string
	Email              *string
	Message            *string
}
