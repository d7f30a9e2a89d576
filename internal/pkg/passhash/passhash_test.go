package passhash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("password123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, Verify("password123", digest))
	assert.False(t, Verify("wrongpassword", digest))
}

func TestVerifyMultiByte(t *testing.T) {
	digest, err := Hash("pässwörd", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify("pässwörd", digest))
	assert.False(t, Verify("passwörd", digest))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("password123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := Hash("password123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("password123", first))
	assert.True(t, Verify("password123", second))
}

func TestLongPasswordBeyondBcryptLimit(t *testing.T) {
	long := strings.Repeat("a", 100)
	digest, err := Hash(long, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify(long, digest))
	// Without the pre-digest bcrypt would accept any password sharing the
	// first 72 bytes; the fixed-length preparation must reject this one.
	assert.False(t, Verify(strings.Repeat("a", 99)+"b", digest))
}

func TestVerifyGarbageDigest(t *testing.T) {
	assert.False(t, Verify("password123", "not-a-bcrypt-digest"))
}
