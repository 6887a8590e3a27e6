package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/pkg/config"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
	"github.com/bksb/sprechtag-api/pkg/response"
)

type tokenIssuer interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
}

type sessionManager interface {
	Login(ctx context.Context, req models.LoginRequest) (string, *models.Session, error)
	Verify(ctx context.Context, id string) (*models.Session, error)
	Logout(ctx context.Context, id string) error
}

// AuthHandler serves both authentication mechanisms: the cookie session used
// by the admin web UI and the bearer tokens used by the API clients.
type AuthHandler struct {
	auth     tokenIssuer
	sessions sessionManager
	cookie   config.SessionConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth tokenIssuer, sessions sessionManager, cookie config.SessionConfig) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookie: cookie}
}

// SessionLogin establishes an admin web session. The cookie is set only
// after the session store confirmed the write.
func (h *AuthHandler) SessionLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password required"))
		return
	}

	id, session, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, id, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, session)
}

// SessionLogout destroys the session and clears the cookie. Always succeeds.
func (h *AuthHandler) SessionLogout(c *gin.Context) {
	id, _ := c.Cookie(h.cookie.CookieName)
	if err := h.sessions.Logout(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, "", -1, "/", "", h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, gin.H{"loggedOut": true})
}

// SessionVerify reports whether the request carries a live admin session.
// An absent or expired session is a regular 200 with authenticated=false.
func (h *AuthHandler) SessionVerify(c *gin.Context) {
	id, _ := c.Cookie(h.cookie.CookieName)
	session, err := h.sessions.Verify(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if session == nil {
		response.JSON(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"authenticated": session.Authenticated,
		"username":      session.Username,
		"role":          session.Role,
	})
}

// TokenLogin authenticates a credential pair and returns a signed API token.
func (h *AuthHandler) TokenLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password required"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token)
}
