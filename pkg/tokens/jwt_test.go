package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundtrip(t *testing.T) {
	tg := NewTokenGenerator("test-secret", 15*time.Minute)

	token, err := tg.Generate("user-1", "alice", "standard")
	require.NoError(t, err)

	claims, err := tg.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "standard", claims.Role)
	assert.Equal(t, "securevault", claims.Issuer)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	signer := NewTokenGenerator("secret-one", 15*time.Minute)
	verifier := NewTokenGenerator("secret-two", 15*time.Minute)

	token, err := signer.Generate("user-1", "alice", "standard")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tg := NewTokenGenerator("test-secret", time.Minute)
	tg.ttl = -time.Minute

	token, err := tg.Generate("user-1", "alice", "standard")
	require.NoError(t, err)

	_, err = tg.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	tg := NewTokenGenerator("test-secret", time.Minute)
	_, err := tg.Validate("not-a-token")
	assert.Error(t, err)
}
