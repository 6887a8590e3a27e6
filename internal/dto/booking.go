package dto

import "github.com/bksb/sprechtag-api/internal/models"

// BookingRequest is the visitor-submitted payload that claims a free slot.
// Which name fields are required depends on the visitor type; the booking
// service enforces that beyond the struct tags.
type BookingRequest struct {
	VisitorType        models.VisitorType `json:"visitorType" validate:"required,oneof=parent company"`
	ParentName         string             `json:"parentName,omitempty"`
	CompanyName        string             `json:"companyName,omitempty"`
	StudentName        string             `json:"studentName,omitempty"`
	TraineeName        string             `json:"traineeName,omitempty"`
	RepresentativeName string             `json:"representativeName,omitempty"`
	ClassName          string             `json:"className" validate:"required"`
	Email              string             `json:"email" validate:"required,email"`
	Message            string             `json:"message,omitempty"`
}
