package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1", Name: "Alice"}, testSecret, time.Hour)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "u1", payload.ID)
	assert.Equal(t, "Alice", payload.Name)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}
