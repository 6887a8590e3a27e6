package models

import (
	"strings"
	"time"
)

// Teacher represents a teacher offering conference slots.
type Teacher struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Subject    string    `db:"subject" json:"subject"`
	Room       *string   `db:"room" json:"room,omitempty"`
	Salutation *string   `db:"salutation" json:"salutation,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}

// DisplayName prefixes the teacher's name with a normalised salutation.
func (t Teacher) DisplayName() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ""
	}
	salutation := normaliseSalutation(t.Salutation)
	if salutation == "" {
		return name
	}
	return salutation + " " + name
}

// DisplayNameAccusative is the accusative form used in sentences like
// "Gespräch mit Herrn Schmidt".
func (t Teacher) DisplayNameAccusative() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ""
	}
	salutation := normaliseSalutation(t.Salutation)
	switch salutation {
	case "":
		return name
	case "Herr":
		return "Herrn " + name
	default:
		return salutation + " " + name
	}
}

func normaliseSalutation(raw *string) string {
	if raw == nil {
		return ""
	}
	s := strings.TrimSpace(*raw)
	switch strings.ToLower(s) {
	case "herr":
		return "Herr"
	case "frau":
		return "Frau"
	case "divers":
		return "Divers"
	default:
		return s
	}
}
