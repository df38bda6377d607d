package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf("fp", "actions", "all"), KeyOf("fp", "actions", "all"))
	assert.NotEqual(t, KeyOf("fp", "actions", "all"), KeyOf("fp", "actions", "shortcut"))
	assert.NotEqual(t, KeyOf("ab", "c"), KeyOf("a", "bc"))
	assert.Len(t, KeyOf("x").String(), 32)
}

func TestMemo_ComputesOnce(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	key := KeyOf("fp", "stats")
	for i := 0; i < 3; i++ {
		v, err := Memo(c, key, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Entries: 1, Hits: 2, Misses: 1}, c.Stats())
}

func TestMemo_ErrorsAreNotCached(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	boom := errors.New("boom")
	key := KeyOf("fp", "focus")

	_, err = Memo(c, key, func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := Memo(c, key, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestPurge(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	c.Add(KeyOf("a"), 1)
	c.Add(KeyOf("b"), 2)
	require.Equal(t, 2, c.Len())

	c.Purge()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(KeyOf("a"))
	assert.False(t, ok)
}

func TestEviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Add(KeyOf("a"), 1)
	c.Add(KeyOf("b"), 2)
	c.Get(KeyOf("a"))
	c.Add(KeyOf("c"), 3)

	_, ok := c.Get(KeyOf("b"))
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get(KeyOf("a"))
	assert.True(t, ok)
}

func TestNew_DefaultSize(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	for i := 0; i < DefaultSize+10; i++ {
		c.Add(KeyOf("k", string(rune('a'+i%26)), string(rune(i))), i)
	}
	assert.Equal(t, DefaultSize, c.Len())
}
