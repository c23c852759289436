package http

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour)
	token, err := auth.IssueToken("user-1", RoleInstructor)
	require.NoError(t, err)

	claims, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RoleInstructor, claims.Role)
}

func TestParseRejects(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour)

	expired := NewAuthenticator("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken("user-1", RoleStudent)
	require.NoError(t, err)

	otherSecret, err := NewAuthenticator("other", time.Hour).IssueToken("user-1", RoleStudent)
	require.NoError(t, err)

	noSubject, err := auth.IssueToken("", RoleStudent)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expiredToken,
		"wrong secret": otherSecret,
		"no subject":   noSubject,
		"alg none":     unsigned,
		"garbage":      "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Parse(token)
			assert.Error(t, err)
		})
	}
}
