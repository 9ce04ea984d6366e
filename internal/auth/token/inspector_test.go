package token_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klwxsrx/edu-resource-client/internal/auth/token"
)

var signingKey = []byte("test-signing-key")

func issue(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return signed
}

func TestDecode_ReturnsPayload(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := issue(t, token.Payload{
		Username: "alice",
		Role:     "teacher",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	payload := token.Decode(tok)
	require.NotNil(t, payload)
	assert.Equal(t, "42", payload.Subject)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, "teacher", payload.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), payload.ExpiresAt.Unix())
}

func TestDecode_IgnoresSignatureAndAlgorithm(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"unknown","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"7","username":"bob"}`))

	payload := token.Decode(header + "." + body + ".not-a-signature")
	require.NotNil(t, payload)
	assert.Equal(t, "7", payload.Subject)
	assert.Nil(t, payload.ExpiresAt)
}

func TestDecode_IgnoresHeaderSegment(t *testing.T) {
	exp := time.Unix(1_700_000_000, 0)
	body := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"7","exp":1700000000}`))

	for _, header := range []string{"", "!!!", base64.RawURLEncoding.EncodeToString([]byte("not json"))} {
		payload := token.Decode(header + "." + body + ".sig")
		require.NotNil(t, payload, header)
		assert.Equal(t, "7", payload.Subject, header)
		assert.Equal(t, exp.Unix(), payload.ExpiresAt.Unix(), header)
		assert.False(t, token.IsExpired(header+"."+body+".sig", exp.Add(-time.Second)), header)
	}
}

func TestInspector_MalformedTokens(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "single_segment", token: "garbage"},
		{name: "two_segments", token: header + ".abc"},
		{name: "invalid_base64", token: header + ".!!!.sig"},
		{name: "payload_not_json", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte("text")) + ".sig"},
		{name: "exp_not_number", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"soon"}`)) + ".sig"},
	}

	now := time.Now()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, token.Decode(tc.token))
			assert.True(t, token.IsExpired(tc.token, now))
			assert.True(t, token.IsExpiringSoon(tc.token, now, token.DefaultExpiryBuffer))
		})
	}
}

func TestIsExpiringSoon(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := issue(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second))})

	assert.True(t, token.IsExpiringSoon(tok, now, token.DefaultExpiryBuffer))
	assert.False(t, token.IsExpiringSoon(tok, now, 5*time.Second))
	assert.False(t, token.IsExpired(tok, now))
	assert.True(t, token.IsExpired(tok, now.Add(11*time.Second)))
}

func TestIsExpired_ComparesWholeSeconds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := issue(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now)})

	assert.False(t, token.IsExpired(tok, now.Add(900*time.Millisecond)))
	assert.True(t, token.IsExpired(tok, now.Add(time.Second)))
}

func TestInspector_TokenWithoutExpiry_NeverExpires(t *testing.T) {
	tok := issue(t, jwt.RegisteredClaims{Subject: "1"})
	now := time.Now()

	assert.False(t, token.IsExpired(tok, now))
	assert.False(t, token.IsExpiringSoon(tok, now, token.DefaultExpiryBuffer))
}
