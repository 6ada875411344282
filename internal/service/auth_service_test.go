package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID: "staff-1",
		Role:   models.RoleStaff,
		Email:  "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			Audience:  jwt.ClaimStrings{"complaints"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "identity", Audience: []string{"complaints"}}, nil)

	claims, err := svc.ValidateToken(signToken(t, "secret", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, models.Actor{ID: "staff-1", Role: models.RoleStaff}, claims.Actor())
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "identity", Audience: []string{"complaints"}}, nil)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"billing"}

	unknownRole := validClaims()
	unknownRole.Role = "janitor"

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	cases := map[string]string{
		"bad signature":  signToken(t, "other", validClaims()),
		"expired":        signToken(t, "secret", expired),
		"wrong audience": signToken(t, "secret", wrongAudience),
		"unknown role":   signToken(t, "secret", unknownRole),
		"wrong issuer":   signToken(t, "secret", wrongIssuer),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
