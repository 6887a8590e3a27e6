package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT payload for teacher/admin API tokens. TeacherID is
// present only on teacher tokens; admin tokens omit it.
type TokenClaims struct {
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	TeacherID *int64   `json:"teacherId,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for both the session and the token login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse returns an issued API token.
type TokenResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserInfo `json:"user"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	TeacherID *int64   `json:"teacherId,omitempty"`
}

// Session is the server-held state behind the admin web login cookie. Its
// lifecycle is independent from API tokens: one never satisfies the other.
type Session struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username"`
	Role          UserRole `json:"role"`
}
