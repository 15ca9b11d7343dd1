package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessToken(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	dept := uint(7)

	tok, err := m.GenerateToken(Subject{UserID: 3, Username: "lan", Role: "manager", DepartmentID: &dept})
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "lan", claims.Username)
	assert.Equal(t, "manager", claims.Role)
	require.NotNil(t, claims.DepartmentID)
	assert.Equal(t, uint(7), *claims.DepartmentID)
}

func TestJWTManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	sub := Subject{UserID: 1, Username: "a", Role: "member"}

	access, err := m.GenerateToken(sub)
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken(sub)
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access)
	assert.Error(t, err)
	_, err = m.VerifyToken(refresh)
	assert.Error(t, err)

	_, err = m.VerifyRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	tok, err := NewJWTManager("one", 1, 1).GenerateToken(Subject{UserID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager("two", 1, 1).VerifyToken(tok)
	assert.Error(t, err)
}
