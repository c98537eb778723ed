package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", "stockledger")

	token, err := m.GenerateToken("u-1", "a@b.test", "Alice", []string{"product:view"}, time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, []string{"product:view"}, claims.Privileges)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", "stockledger")

	expired, err := m.GenerateToken("u-1", "", "", nil, -time.Minute)
	require.NoError(t, err)
	otherSecret, err := NewManager("other", "stockledger").GenerateToken("u-1", "", "", nil, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewManager("secret", "someone-else").GenerateToken("u-1", "", "", nil, time.Hour)
	require.NoError(t, err)
	noUser, err := m.GenerateToken("", "", "", nil, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"other secret": otherSecret,
		"other issuer": otherIssuer,
		"no user id":   noUser,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
