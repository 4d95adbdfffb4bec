package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "healthchain/pkg/domain-errors"
)

func newTestService() *JWTService {
	return NewJWTService("test-signing-key", "healthchain", "healthchain-api")
}

func TestValidateToken(t *testing.T) {
	service := newTestService()

	t.Run("round-trips the subject", func(t *testing.T) {
		token, err := service.GenerateAccessToken("principal-1", time.Hour)
		require.NoError(t, err)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "principal-1", claims.Subject)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token, err := service.GenerateAccessToken("principal-1", -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		other := NewJWTService("different-key", "healthchain", "healthchain-api")
		token, err := other.GenerateAccessToken("principal-1", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		token, err := service.GenerateAccessToken("", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}

func TestAdapter(t *testing.T) {
	service := newTestService()
	adapter := NewJWTServiceAdapter(service)

	token, err := service.GenerateAccessToken("principal-2", time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "principal-2", claims.Subject)
}
