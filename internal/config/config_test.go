package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
jwt:
  secret: s3cret
database:
  driver: memory
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, "https://pixabay.com", cfg.Media.BaseURL)
	assert.Equal(t, 20, cfg.Media.PerPage)
	assert.Equal(t, "@every 10m", cfg.Sweeper.Schedule)
	assert.Equal(t, 4, cfg.AI.MaxImages)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
jwt:
  secret: from-file
media:
  api_key: file-key
oauth:
  github:
    client_id: gh-id
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PIXABAY_API_KEY", "env-key")
	t.Setenv("GITHUB_CLIENT_SECRET", "gh-secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/quizontal")
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "env-key", cfg.Media.APIKey)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.OAuth.GitHub.Enabled())
	assert.False(t, cfg.OAuth.Google.Enabled())
	assert.Equal(t, "postgres://u:p@db:5432/quizontal", cfg.Database.DSN())
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(writeConfig(t, "server:\n  port: 1\n"))
	assert.ErrorContains(t, err, "jwt secret")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\ndatabase:\n  driver: sqlite\n"))
	assert.ErrorContains(t, err, "database driver")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSNFromFields(t *testing.T) {
	c := DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "pw", DBName: "quizontal", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=app password=pw dbname=quizontal sslmode=disable", c.DSN())
}
