package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/security"
)

var fastArgon = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", fastArgon)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$"), hash)

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := security.HashPassword("very-secure-password", fastArgon)
	require.NoError(t, err)
	b, err := security.HashPassword("very-secure-password", fastArgon)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=32768,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5",
		"$argon2id$v=19$m=32768,t=1,p=1$!!$a2V5a2V5a2V5",
	} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		assert.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestPasswordPolicy(t *testing.T) {
	_, err := security.HashPassword("short", fastArgon)
	assert.ErrorIs(t, err, security.ErrPasswordPolicy)

	_, err = security.HashPassword(strings.Repeat("a", 101), fastArgon)
	assert.ErrorIs(t, err, security.ErrPasswordPolicy)

	assert.NoError(t, security.CheckPolicy(strings.Repeat("é", 8)))
	assert.NoError(t, security.CheckPolicy(strings.Repeat("a", 100)))
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", fastArgon)
	require.NoError(t, err)
	assert.False(t, security.NeedsRehash(hash, fastArgon))

	stronger := fastArgon
	stronger.ArgonTime = 3
	assert.True(t, security.NeedsRehash(hash, stronger))
	assert.True(t, security.NeedsRehash("garbage", fastArgon))
}
