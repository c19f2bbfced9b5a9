package optional_test

import (
	"testing"

	"github.com/go-queues/msq/types/optional"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	option := optional.Some[int](42)
	require.True(t, option.IsSet())
	val, ok := option.Get()
	require.Equal(t, 42, val)
	require.True(t, ok)
	require.Equal(t, 42, option.Unwrap())
	require.Equal(t, 42, option.GetOr(5))

	option = optional.None[int]()
	require.False(t, option.IsSet())
	val, ok = option.Get()
	require.Equal(t, 0, val)
	require.False(t, ok)
	require.Panics(t, func() { option.Unwrap() })
	require.Equal(t, 5, option.GetOr(5))

	option.Set(45)
	require.True(t, option.IsSet())
	val, ok = option.Get()
	require.Equal(t, 45, val)
	require.True(t, ok)
}

func TestOptionalTake(t *testing.T) {
	option := optional.Some("front")
	val, ok := option.Take()
	require.Equal(t, "front", val)
	require.True(t, ok)
	require.False(t, option.IsSet())

	// the slot must not keep the moved value
	val, ok = option.Get()
	require.Equal(t, "", val)
	require.False(t, ok)

	_, ok = option.Take()
	require.False(t, ok)
}

func TestOptionalCastInt(t *testing.T) {
	a := optional.Some[uint8](7)
	b := optional.CastInt[uint8, int64](a)
	require.Equal(t, int64(7), b.Unwrap())

	b = optional.CastInt[uint8, int64](optional.None[uint8]())
	require.False(t, b.IsSet())
}
