package models

import "time"

// SlotStatus tracks the booking state of a claimed slot. A free slot has no
// status at all.
type SlotStatus string

const (
	SlotStatusReserved  SlotStatus = "reserved"
	SlotStatusConfirmed SlotStatus = "confirmed"
)

// VisitorType distinguishes the two kinds of visitors a slot can be
// claimed by.
type VisitorType string

const (
	VisitorParent  VisitorType = "parent"
	VisitorCompany VisitorType = "company"
)

// Slot is a bookable conference time slot owned by exactly one teacher.
//
// Invariant: Booked is false exactly when Status and every visitor field
// are nil. A slot is either fully free or fully occupied by one visitor's
// data; transitions happen only through conditional updates in the slot
// repository.
type Slot struct {
	ID        int64  `db:"id" json:"id"`
	TeacherID int64  `db:"teacher_id" json:"teacherId"`
	Date      string `db:"date" json:"date"`
	Time      string `db:"time" json:"time"`

	Booked bool        `db:"booked" json:"booked"`
	Status *SlotStatus `db:"status" json:"status,omitempty"`

	VisitorType        *VisitorType `db:"visitor_type" json:"visitorType,omitempty"`
	ParentName         *string      `db:"parent_name" json:"parentName,omitempty"`
	CompanyName        *string      `db:"company_name" json:"companyName,omitempty"`
	StudentName        *string      `db:"student_name" json:"studentName,omitempty"`
	TraineeName        *string      `db:"trainee_name" json:"traineeName,omitempty"`
	RepresentativeName *string      `db:"representative_name" json:"representativeName,omitempty"`
	ClassName          *string      `db:"class_name" json:"className,omitempty"`
	Email              *string      `db:"email" json:"email,omitempty"`
	Message            *string      `db:"message" json:"message,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Booking is a booked slot joined with its teacher for list views.
type Booking struct {
	Slot
	TeacherName    string `db:"teacher_name" json:"teacherName"`
	TeacherSubject string `db:"teacher_subject" json:"teacherSubject"`
}
