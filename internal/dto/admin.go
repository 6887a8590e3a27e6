package dto

// CreateTeacherRequest creates a teacher and optionally a login account
// linked to it.
type CreateTeacherRequest struct {
	Name       string `json:"name" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Room       string `json:"room,omitempty"`
	Salutation string `json:"salutation,omitempty" validate:"omitempty,oneof=Herr Frau Divers herr frau divers"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// GenerateSlotsRequest creates the slot inventory for one teacher on one
// day: back-to-back slots of IntervalMinutes from Start until End.
type GenerateSlotsRequest struct {
	TeacherID       int64  `json:"teacherId" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Start           string `json:"start" validate:"required,datetime=15:04"`
	End             string `json:"end" validate:"required,datetime=15:04"`
	IntervalMinutes int    `json:"intervalMinutes" validate:"required,min=5,max=120"`
}
