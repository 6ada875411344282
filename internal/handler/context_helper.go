package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/middleware"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

// expectedVersion merges the If-Match header with the version carried in the body.
// Either may be absent; when both are present they must agree.
func expectedVersion(c *gin.Context, fromBody *int64) (*int64, error) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return fromBody, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid If-Match header",
			appErrors.FieldError{Field: "If-Match", Reason: "must be a complaint version"})
	}
	if fromBody != nil && *fromBody != version {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "conflicting expected versions",
			appErrors.FieldError{Field: "expectedVersion", Reason: "does not match If-Match"})
	}
	return &version, nil
}

// bindOptionalJSON binds the body when one was sent.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return invalidBody(err)
	}
	return nil
}

func invalidBody(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body")
}
