package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	digest, err := HashPassword("Abc12345!")
	require.NoError(t, err)
	require.NotEqual(t, "Abc12345!", digest)

	require.True(t, CheckPassword(digest, "Abc12345!"))
	require.False(t, CheckPassword(digest, "wrong"))
}

func TestBcryptAdapter(t *testing.T) {
	h := Bcrypt{}
	digest, err := h.Hash("Abc12345!")
	require.NoError(t, err)
	require.True(t, h.Verify("Abc12345!", digest))
	require.False(t, h.Verify("nope", digest))
}

func TestValidateStrength(t *testing.T) {
	require.NoError(t, ValidateStrength("Abc12345!"))
	require.NoError(t, ValidateStrength("Passw0rd"))

	for _, weak := range []string{"", "short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		require.ErrorIs(t, ValidateStrength(weak), ErrWeakPassword)
	}
}
