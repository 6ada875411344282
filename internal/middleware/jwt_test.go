package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/logger"
)

type validatorStub struct {
	tokens map[string]*models.JWTClaims
	seen   []string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = append(v.seen, token)
	claims, ok := v.tokens[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func newJWTRouter(v *validatorStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(v), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID+"|"+c.GetString(logger.ActorIDKey))
	})
	return r
}

func TestJWTAcceptsBearerToken(t *testing.T) {
	v := &validatorStub{tokens: map[string]*models.JWTClaims{"good": {UserID: "staff-1", Role: models.RoleStaff}}}
	r := newJWTRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-1|staff-1", w.Body.String())
}

func TestJWTRejects(t *testing.T) {
	v := &validatorStub{tokens: map[string]*models.JWTClaims{"good": {UserID: "staff-1", Role: models.RoleStaff}}}
	r := newJWTRouter(v)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic good"},
		{"empty token", "Bearer   "},
		{"unknown token", "Bearer forged"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestJWTQueryTokenOnlyOnUpgrade(t *testing.T) {
	v := &validatorStub{tokens: map[string]*models.JWTClaims{"good": {UserID: "res-1", Role: models.RoleResident}}}
	r := newJWTRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, v.seen)

	req = httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"good"}, v.seen)
}
