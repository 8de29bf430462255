package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-backend/internal/security"
)

func TestStateSigner(t *testing.T) {
	signer := security.NewStateSigner("test-secret", time.Minute)

	state, err := signer.Sign("google")
	require.NoError(t, err)
	require.NotEmpty(t, state)

	assert.NoError(t, signer.Verify(state, "google"))
	assert.Error(t, signer.Verify(state, "github"), "state is bound to its provider")
	assert.Error(t, signer.Verify(state+"x", "google"))

	other := security.NewStateSigner("other-secret", time.Minute)
	assert.Error(t, other.Verify(state, "google"))
}

func TestStateSignerExpiry(t *testing.T) {
	signer := security.NewStateSigner("test-secret", -time.Minute)

	state, err := signer.Sign("google")
	require.NoError(t, err)
	assert.Error(t, signer.Verify(state, "google"))
}

func TestPasswordHasher(t *testing.T) {
	hasher := security.NewPasswordHasher(4)

	hash, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1!", hash)

	assert.NoError(t, hasher.Verify("Password1!", hash))
	assert.Error(t, hasher.Verify("wrong", hash))
}
