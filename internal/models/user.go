package models

import "time"

// UserRole represents the two roles known to the API.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
)

// User is a login account. Teacher accounts reference their teacher record;
// the single admin account lives in configuration, not in this table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	TeacherID    *int64    `db:"teacher_id" json:"teacherId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}
