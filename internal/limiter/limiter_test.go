package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLimiter_OnePerKey(t *testing.T) {
	l := New[int64](0)

	assert.True(t, l.TryAcquire(1))
	assert.False(t, l.TryAcquire(1))
	assert.True(t, l.TryAcquire(2))
	assert.Equal(t, 2, l.ActiveCount())
	assert.True(t, l.IsActive(1))

	l.Release(1)
	l.Release(1)

	assert.False(t, l.IsActive(1))
	assert.True(t, l.TryAcquire(1))
}

func TestKeyLimiter_GlobalCap(t *testing.T) {
	l := New[string](2)

	assert.True(t, l.TryAcquire("a"))
	assert.True(t, l.TryAcquire("b"))
	assert.False(t, l.TryAcquire("c"))

	l.Release("a")
	assert.True(t, l.TryAcquire("c"))
}
