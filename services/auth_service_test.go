package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrispine/server/pkg"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidateAccessToken_NestedAndFlatClaims(t *testing.T) {
	svc := NewAuthService("s3cret")
	exp := time.Now().Add(time.Hour).Unix()

	nested := sign(t, "s3cret", jwt.MapClaims{
		"user": map[string]any{"id": "u1", "name": "Ayşe", "village": "kuzey"},
		"exp":  exp,
	})
	claims, err := svc.ValidateAccessToken(nested)
	require.NoError(t, err)
	id := claims.Identity()
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "Ayşe", id.Name)
	assert.Equal(t, "kuzey", id.Village)

	flat := sign(t, "s3cret", jwt.MapClaims{"id": "u2", "name": "Ali"})
	claims, err = svc.ValidateAccessToken(flat)
	require.NoError(t, err)
	assert.Equal(t, "u2", claims.Identity().UserID)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	svc := NewAuthService("s3cret")

	cases := map[string]string{
		"wrong secret": sign(t, "other", jwt.MapClaims{"id": "u1"}),
		"expired":      sign(t, "s3cret", jwt.MapClaims{"id": "u1", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no user id":   sign(t, "s3cret", jwt.MapClaims{"name": "x"}),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		_, err := svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized, name)
	}
}
