package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(Identity{UserID: 42, Email: "staff@lib.test", Nickname: "馆员", IsStaff: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "staff@lib.test", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)

	refresh, err := m.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, refresh.UserID)
	assert.Empty(t, refresh.Email)
	assert.False(t, refresh.IsStaff)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	pair, err := NewManager("a", time.Hour, time.Hour).GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewManager("b", time.Hour, time.Hour).ParseToken(pair.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
}

func TestParseExpired(t *testing.T) {
	m := NewManager("s", -time.Minute, time.Hour)
	pair, err := m.GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = m.ParseToken(pair.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTokenExpired))
}

func TestRefreshReloadsIdentity(t *testing.T) {
	m := NewManager("s", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken(Identity{UserID: 9, Email: "u@lib.test"})
	require.NoError(t, err)

	// 刷新期间被授予馆员身份
	access, err := m.RefreshAccessToken(pair.RefreshToken, func(id uint) (Identity, error) {
		return Identity{UserID: id, Email: "u@lib.test", IsStaff: true}, nil
	})
	require.NoError(t, err)

	claims, err := m.ParseToken(access)
	require.NoError(t, err)
	assert.True(t, claims.IsStaff)
	assert.EqualValues(t, 9, claims.UserID)
}
