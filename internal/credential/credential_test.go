package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestVault_RoundTrip(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	_, err := v.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, v.SetToken("abc"))
	tok, err := v.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, v.Clear())
	_, err = v.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	assert.NoError(t, v.Clear(), "clearing an empty vault")
}

func TestSession_ReadsExistingToken(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: tokenKey, Data: []byte("stored")}})
	s := NewSession(NewVault(ring), nil)

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", tok)
	assert.True(t, s.LoggedIn())
}

func TestSession_InvalidateNotifiesAndClears(t *testing.T) {
	vault := NewVault(keyring.NewArrayKeyring(nil))
	s := NewSession(vault, nil)
	require.NoError(t, s.Login("tok"))

	calls := 0
	s.OnInvalidate(func() { calls++ })

	s.Invalidate()

	assert.Equal(t, 1, calls)
	assert.False(t, s.LoggedIn())
	_, err := vault.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSession_LogoutNotifies(t *testing.T) {
	s := NewSession(NewVault(keyring.NewArrayKeyring(nil)), nil)
	require.NoError(t, s.Login("tok"))

	notified := false
	s.OnInvalidate(func() { notified = true })

	require.NoError(t, s.Logout())
	assert.True(t, notified)
	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestParseIdentity(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"id": 42, "sub": "ann@example.com", "name": "Ann"})

	ident, err := ParseIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ident.UserID)
	assert.Equal(t, "ann@example.com", ident.Email)
	assert.Equal(t, "Ann", ident.Name)
}

func TestParseIdentity_StringID(t *testing.T) {
	ident, err := ParseIdentity(signToken(t, jwt.MapClaims{"id": "7"}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), ident.UserID)
}

func TestParseIdentity_Errors(t *testing.T) {
	_, err := ParseIdentity("not-a-token")
	assert.Error(t, err)

	_, err = ParseIdentity(signToken(t, jwt.MapClaims{"sub": "x"}))
	assert.ErrorContains(t, err, `no "id" claim`)
}

func TestSession_Identity(t *testing.T) {
	s := NewSession(NewVault(keyring.NewArrayKeyring(nil)), nil)

	_, err := s.Identity()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Login(signToken(t, jwt.MapClaims{"id": 3})))
	ident, err := s.Identity()
	require.NoError(t, err)
	assert.Equal(t, int64(3), ident.UserID)
}
