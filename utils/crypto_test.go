package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	require.NoError(t, InitCipher("000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"))

	t.Run("round trip", func(t *testing.T) {
		sealed, err := Encrypt("room-4921")
		require.NoError(t, err)
		assert.NotEqual(t, "room-4921", sealed)

		plain, err := Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, "room-4921", plain)
	})

	t.Run("empty passes through", func(t *testing.T) {
		sealed, err := Encrypt("")
		require.NoError(t, err)
		assert.Equal(t, "", sealed)

		plain, err := Decrypt("")
		require.NoError(t, err)
		assert.Equal(t, "", plain)
	})

	t.Run("tampered ciphertext is rejected", func(t *testing.T) {
		sealed, err := Encrypt("secret")
		require.NoError(t, err)

		_, err = Decrypt(sealed[:len(sealed)-4] + "AAAA")
		assert.Error(t, err)
	})

	t.Run("bad key length is rejected", func(t *testing.T) {
		assert.Error(t, InitCipher("deadbeef"))
	})
}
