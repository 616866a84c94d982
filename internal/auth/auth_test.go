package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVisitorTokenRoundTrip(t *testing.T) {
	tok, err := SignVisitorToken("01HV0000000000000000000000", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(tok, RoleVisitor, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "01HV0000000000000000000000", claims.Subject)
}

func TestParseJWTRejects(t *testing.T) {
	visitor, err := SignVisitorToken("v", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := SignVisitorToken("v", testSecret, -time.Minute)
	require.NoError(t, err)

	cases := map[string]struct {
		token, role, secret string
	}{
		"wrong secret": {visitor, RoleVisitor, "other"},
		"wrong role":   {visitor, RoleAdmin, testSecret},
		"expired":      {expired, RoleVisitor, testSecret},
		"garbage":      {"not-a-token", RoleVisitor, testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(tc.token, tc.role, tc.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret"))
}
