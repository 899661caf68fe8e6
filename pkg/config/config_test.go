package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servestream.json")

	c, err := NewServerConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be created")

	data := c.Get()
	assert.Equal(t, 8080, data.Port)
	assert.Equal(t, "servestream.db", data.Database)
	assert.Equal(t, "ServeStream", data.UserAgent)
	assert.Equal(t, 6*time.Second, c.GetTimeout())
	assert.Equal(t, 500*time.Millisecond, c.GetEnrichInterval())
	assert.True(t, data.InsecureTLS)
}

func TestLoadExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	content := `{
  "port": 9000,
  "database": "other.db",
  "timeout": 3,
  "auth": {
    "secret_key": "s3cret",
    "users": [{"username": "Admin", "password": "x", "role": "admin"}]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := NewServerConfig(path)
	require.NoError(t, err)

	data := c.Get()
	assert.Equal(t, 9000, data.Port)
	assert.Equal(t, "other.db", data.Database)
	assert.Equal(t, 3*time.Second, c.GetTimeout())
	assert.Equal(t, "s3cret", data.Auth.SecretKey)
	assert.Equal(t, 24, data.Auth.ExpirationTime, "unset keys keep their defaults")
	require.Len(t, data.Auth.Users, 1)
	assert.Equal(t, "Admin", data.Auth.Users[0].Username)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servestream.json")
	t.Setenv("SERVESTREAM_PORT", "9191")
	t.Setenv("SERVESTREAM_ENRICH_INTERVAL_MS", "50")

	c, err := NewServerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, c.Get().Port)
	assert.Equal(t, 50*time.Millisecond, c.GetEnrichInterval())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servestream.json")
	c, err := NewServerConfig(path)
	require.NoError(t, err)

	a := c.GetAuth()
	a.Users = append(a.Users, User{Username: "bob", Password: "hash", Role: "viewer"})
	c.SetAuth(a)
	require.NoError(t, c.Save())

	reloaded, err := NewServerConfig(path)
	require.NoError(t, err)
	require.Len(t, reloaded.GetAuth().Users, 1)
	assert.Equal(t, "bob", reloaded.GetAuth().Users[0].Username)
}
