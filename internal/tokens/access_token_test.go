package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSignAndParse(t *testing.T) {
	tok, err := SignAccessToken(7, "demo.manager", "jti-1", time.Now(), time.Hour, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "demo.manager", claims.Username)
	assert.Equal(t, "jti-1", claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestParseRejects(t *testing.T) {
	expired, err := SignAccessToken(1, "u", "j", time.Now().Add(-2*time.Hour), time.Hour, secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, secret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	good, err := SignAccessToken(1, "u", "j", time.Now(), time.Hour, secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(good, []byte("other"))
	require.Error(t, err)

	noID, err := SignAccessToken(1, "u", "", time.Now(), time.Hour, secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(noID, secret)
	require.Error(t, err)

	_, err = AccessClaimsFromToken("garbage", secret)
	require.Error(t, err)
}
