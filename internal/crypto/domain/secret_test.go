package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret(t *testing.T) {
	t.Run("bytes returns wrapped buffer", func(t *testing.T) {
		s := NewSecret([]byte{1, 2, 3})
		assert.Equal(t, []byte{1, 2, 3}, s.Bytes())
		assert.Equal(t, 3, s.Len())
	})

	t.Run("close zeroes the buffer", func(t *testing.T) {
		buf := []byte{1, 2, 3, 4}
		s := NewSecret(buf)
		s.Close()

		for _, v := range buf {
			assert.Equal(t, byte(0), v)
		}
		assert.Nil(t, s.Bytes())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewSecret([]byte{1, 2, 3})
		s.Close()
		assert.NotPanics(t, func() { s.Close() })
	})

	t.Run("from string copies the value", func(t *testing.T) {
		s := SecretFromString("validator")
		assert.Equal(t, []byte("validator"), s.Bytes())
		s.Close()
	})
}
