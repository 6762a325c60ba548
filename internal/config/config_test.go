package config

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSecret(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestLoad(t *testing.T) {
	t.Setenv("MS_DATABASE_URL", "postgres://localhost/medisync")
	t.Setenv("MS_SESSION_SECRET", validSecret(t))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, "postgres://localhost/medisync", cfg.DatabaseURL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("MS_DATABASE_URL", "")
	t.Setenv("MS_SESSION_SECRET", validSecret(t))

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("MS_DATABASE_URL", "postgres://localhost/medisync")
	t.Setenv("MS_SESSION_SECRET", "")

	_, err := Load()
	require.ErrorContains(t, err, "SESSION_SECRET")
}

func TestLoadRejectsBadSessionSecret(t *testing.T) {
	t.Setenv("MS_DATABASE_URL", "postgres://localhost/medisync")

	testCases := []struct {
		name   string
		secret string
	}{
		{"not base64", "!!not-base64!!"},
		{"wrong key length", base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MS_SESSION_SECRET", tc.secret)

			_, err := Load()
			require.ErrorContains(t, err, "SESSION_SECRET")
		})
	}
}
