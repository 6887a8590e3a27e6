package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/service"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
	"github.com/bksb/sprechtag-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the verified session.
const ContextSessionKey = "currentSession"

// Session protects the admin web routes with the session cookie. The cookie
// grants access only here; token routes never accept it.
func Session(sessionService *service.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		session, err := sessionService.Verify(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if session == nil || !session.Authenticated {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}
