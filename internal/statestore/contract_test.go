package statestore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/ir"
)

// runContract exercises the behavior every backend must share.
func runContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key is not an error", func(t *testing.T) {
		v, found, err := s.Load(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, v)
	})

	t.Run("round trip object", func(t *testing.T) {
		value := ir.IRObject{
			"label":      ir.IRString("agent"),
			"confidence": ir.IRFloat(0.98),
			"count":      ir.IRInt(9007199254740993),
			"tags":       ir.IRArray{ir.IRString("a"), ir.IRBool(true), ir.IRNull{}},
		}
		require.NoError(t, s.Save(ctx, "record", value))

		got, found, err := s.Load(ctx, "record")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, value, got)
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "counter", ir.IRInt(1)))
		require.NoError(t, s.Save(ctx, "counter", ir.IRInt(2)))

		got, found, err := s.Load(ctx, "counter")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ir.IRInt(2), got)
	})

	t.Run("nil value stores null", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "nothing", nil))

		got, found, err := s.Load(ctx, "nothing")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ir.IRNull{}, got)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.Save(ctx, "", ir.IRInt(1)), ErrEmptyKey)
		_, _, err := s.Load(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("unencodable value rejected", func(t *testing.T) {
		err := s.Save(ctx, "bad", ir.IRFloat(posInf()))
		require.Error(t, err)

		_, found, err := s.Load(ctx, "bad")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, "shared", ir.IRInt(int64(i))))
			}(i)
		}
		wg.Wait()

		got, found, err := s.Load(ctx, "shared")
		require.NoError(t, err)
		require.True(t, found)
		assert.IsType(t, ir.IRInt(0), got)
	})
}
