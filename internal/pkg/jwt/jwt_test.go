package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewManager(key, &key.PublicKey, Config{
		Issuer:   "vigilance",
		Audience: "vigilance-api",
		TTL:      time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager(t)

	token, jti, err := m.Generator.GenerateAccessToken(42, "admin@example.com", RoleAdmin, "web")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	issuer := testManager(t)
	other := testManager(t)

	token, _, err := issuer.Generator.GenerateAccessToken(1, "g@example.com", RoleVigilante, "")
	require.NoError(t, err)

	_, err = other.Verifier.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := NewGenerator(key, "vigilance", "someone-else", "", time.Hour)
	ver := NewVerifier(&key.PublicKey, "vigilance", "vigilance-api")

	token, _, err := gen.GenerateAccessToken(1, "g@example.com", RoleVigilante, "")
	require.NoError(t, err)

	_, err = ver.Verify(token)
	assert.Error(t, err)
}

func TestLoadAndBuildFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	m, err := LoadAndBuild(Config{PrivPath: privPath, PubPath: pubPath, Issuer: "i", Audience: "a", TTL: time.Minute})
	require.NoError(t, err)

	token, _, err := m.Generator.GenerateAccessToken(7, "x@example.com", RoleVigilante, "")
	require.NoError(t, err)
	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.False(t, claims.IsAdmin())
}
