package keystore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hexA = strings.Repeat("0a", KeySize)
	hexB = strings.Repeat("0b", KeySize)
)

func TestParse(t *testing.T) {
	ctx := context.Background()

	t.Run("single key becomes default", func(t *testing.T) {
		ks, err := Parse("k1:"+hexA, "")
		require.NoError(t, err)

		id, key, err := ks.GetDefaultKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, "k1", id)
		assert.Len(t, key, KeySize)
		assert.False(t, ks.Empty())
	})

	t.Run("rotation keeps old keys readable", func(t *testing.T) {
		ks, err := Parse("k1:"+hexA+", k2:"+hexB, "k2")
		require.NoError(t, err)

		id, _, err := ks.GetDefaultKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, "k2", id)
		_, err = ks.GetKey(ctx, "k1")
		assert.NoError(t, err)
		_, err = ks.GetKey(ctx, "k3")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		ks, err := Parse("", "")
		require.NoError(t, err)
		assert.True(t, ks.Empty())
		_, _, err = ks.GetDefaultKey(ctx)
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		bad := []struct{ raw, def string }{
			{"k1", ""},
			{":" + hexA, ""},
			{"k1:zz", ""},
			{"k1:0a0a", ""},
			{"k.1:" + hexA, ""},
			{"k1:" + hexA + ",k2:" + hexB, ""},
			{"k1:" + hexA, "k9"},
		}
		for _, b := range bad {
			_, err := Parse(b.raw, b.def)
			assert.Error(t, err, "raw=%q def=%q", b.raw, b.def)
		}
	})
}
