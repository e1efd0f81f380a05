package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngohub.org/internal/auth"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ngohub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "")
	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMissingSecret)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "s3cret")
	t.Setenv("NGOHUB_TOKEN_TTL", "2h")
	t.Setenv("NGOHUB_DB_DRIVER", "pgx")
	t.Setenv("NGOHUB_DB_DSN", "postgres://localhost/ngohub")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadDefaultsTTL(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadFileWithExpansion(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "")
	t.Setenv("FILE_SECRET", "from-file-env")
	path := writeConfig(t, `
http_addr: ":9999"
shutdown_timeout: 5s
database:
  driver: sqlite
  dsn: /tmp/ngohub-test.db
auth:
  secret: ${FILE_SECRET}
  token_ttl: 30m
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "from-file-env", cfg.Auth.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "env-wins")
	path := writeConfig(t, "auth:\n  secret: file-value\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-wins", cfg.Auth.Secret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "s3cret")

	t.Run("bad ttl", func(t *testing.T) {
		t.Setenv("NGOHUB_TOKEN_TTL", "forever")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("NGOHUB_DB_DRIVER", "mysql")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NGOHUB_TEST_A", "alpha")
	assert.Equal(t, "x-alpha-", expandEnvVars("x-${NGOHUB_TEST_A}-${NGOHUB_TEST_UNSET_B}"))
}

func TestConfigTokens(t *testing.T) {
	t.Setenv("NGOHUB_AUTH_SECRET", "s3cret")
	t.Setenv("NGOHUB_AUTH_ISSUER", "ngohub-test")
	t.Setenv("NGOHUB_TOKEN_TTL", "90m")
	cfg, err := Load("")
	require.NoError(t, err)

	tokens, err := cfg.Tokens()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, tokens.TTL())

	token, _, err := tokens.Issue("user-1", auth.RoleDonor)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}
