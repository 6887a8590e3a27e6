package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bksb/sprechtag-api/internal/middleware"
	"github.com/bksb/sprechtag-api/internal/models"
	appErrors "github.com/bksb/sprechtag-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.TokenClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// sessionClaims maps an admin web session onto token claims so the booking
// service sees the same admin principal regardless of the auth mechanism.
func sessionClaims(c *gin.Context) *models.TokenClaims {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok || !session.Authenticated {
		return nil
	}
	return &models.TokenClaims{Username: session.Username, Role: session.Role}
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id")
	}
	return id, nil
}
