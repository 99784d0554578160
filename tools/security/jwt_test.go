package security

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, hash, expireAt, err := Generate(opts, "u-42", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, strings.HasPrefix(hash, "sha256:"))
	assert.WithinDuration(t, time.Now().Add(opts.TTL), expireAt, 5*time.Second)

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.Subject())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions([]byte("right")), "u-1", nil)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	opts := Options{Secret: []byte("s"), Alg: "HS256"}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := tok.SignedString(opts.Secret)
	require.NoError(t, err)

	_, err = Verify(opts, signed)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions([]byte("s")), "not.a.jwt")
	assert.Error(t, err)
}

func TestGenerateRejectsUnknownAlg(t *testing.T) {
	_, _, _, err := Generate(Options{Secret: []byte("s"), Alg: "RS256"}, "u-1", nil)
	assert.Error(t, err)
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("tok-1")
	b := HashToken("tok-1")
	c := HashToken("tok-2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHS512RoundTrip(t *testing.T) {
	opts := Options{Secret: []byte("s"), Alg: "HS512", TTL: time.Hour}
	token, _, _, err := Generate(opts, "u-7", []string{"chat"})
	require.NoError(t, err)

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.Subject())
}
