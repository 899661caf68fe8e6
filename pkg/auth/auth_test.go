package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yomguy/servestream-sub001/pkg/config"
)

func newTestAuthority(t *testing.T) (*Authority, *config.ServerConfig) {
	t.Helper()
	cfg, err := config.NewServerConfig(filepath.Join(t.TempDir(), "servestream.json"))
	require.NoError(t, err)

	users := NewConfigUserStore(cfg)
	require.NoError(t, users.AddUser("admin", "secret", RoleAdmin))
	require.NoError(t, users.AddUser("guest", "guest", ""))

	a, err := New(config.AuthConfig{SecretKey: "test-key"}, users)
	require.NoError(t, err)
	return a, cfg
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(config.AuthConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestCreateAndVerifyToken(t *testing.T) {
	a, _ := newTestAuthority(t)

	token, err := a.CreateToken("admin", "secret")
	require.NoError(t, err)
	assert.True(t, a.VerifyToken(token))

	user, err := a.GetUserFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)

	role, err := a.GetRoleFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	token, err = a.CreateToken("guest", "guest")
	require.NoError(t, err)
	role, err = a.GetRoleFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, role)
}

func TestCreateTokenRejectsBadCredentials(t *testing.T) {
	a, _ := newTestAuthority(t)

	_, err := a.CreateToken("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.CreateToken("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsForeignAndExpired(t *testing.T) {
	a, _ := newTestAuthority(t)

	other, err := New(config.AuthConfig{SecretKey: "other-key"}, a.Users())
	require.NoError(t, err)
	token, err := other.CreateToken("admin", "secret")
	require.NoError(t, err)
	assert.False(t, a.VerifyToken(token))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": RoleAdmin,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-key"))
	require.NoError(t, err)
	assert.False(t, a.VerifyToken(signed))

	assert.False(t, a.VerifyToken("not-a-token"))
}

func TestConfigUserStorePersists(t *testing.T) {
	_, cfg := newTestAuthority(t)

	reloaded, err := config.NewServerConfig(cfg.GetPath())
	require.NoError(t, err)
	store := NewConfigUserStore(reloaded)

	users, err := store.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []UserView{{Username: "admin", Role: RoleAdmin}, {Username: "guest", Role: RoleViewer}}, users)

	for _, u := range reloaded.GetAuth().Users {
		assert.NotEqual(t, "secret", u.Password)
	}
	assert.True(t, store.Authenticate("admin", "secret"))

	require.NoError(t, store.ChangePassword("admin", "changed"))
	assert.False(t, store.Authenticate("admin", "secret"))
	assert.True(t, store.Authenticate("admin", "changed"))

	require.NoError(t, store.SetRole("guest", RoleAdmin))
	role, err := store.GetRole("guest")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	assert.ErrorIs(t, store.SetRole("guest", "root"), ErrInvalidRole)
	assert.ErrorIs(t, store.AddUser("guest", "x", ""), ErrUserExists)
	require.NoError(t, store.RemoveUser("guest"))
	assert.ErrorIs(t, store.RemoveUser("guest"), ErrUserNotFound)
	assert.ErrorIs(t, store.ChangePassword("ghost", "x"), ErrUserNotFound)
}
