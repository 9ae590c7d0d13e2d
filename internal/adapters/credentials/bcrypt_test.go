package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	hasher := BcryptHasher{Cost: 4} // minimum cost keeps the test fast

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse", hash)

	assert.NoError(t, hasher.Compare(hash, "correct-horse"))
	assert.Error(t, hasher.Compare(hash, "battery-staple"))
}

func TestBcryptHasher_HashesAreSalted(t *testing.T) {
	hasher := BcryptHasher{Cost: 4}

	first, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	second, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, hasher.Compare(first, "correct-horse"))
	assert.NoError(t, hasher.Compare(second, "correct-horse"))
}

func TestBcryptHasher_RejectsShortPasswords(t *testing.T) {
	hasher := BcryptHasher{Cost: 4}

	_, err := hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestBcryptHasher_CompareAgainstInvalidHash(t *testing.T) {
	hasher := BcryptHasher{}

	// Accounts provisioned through SSO carry a sentinel that is not a valid
	// bcrypt hash; no password may ever compare equal against it.
	assert.Error(t, hasher.Compare("!sso", "anything"))
	assert.Error(t, hasher.Compare("", ""))
}
