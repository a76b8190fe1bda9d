package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryDeviceBranchCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on unknown guid", func(t *testing.T) {
		c := NewInMemoryDeviceBranchCache(time.Minute)
		_, ok := c.Get(ctx, "unknown")
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		c := NewInMemoryDeviceBranchCache(time.Minute)
		branchID := uuid.New()

		c.Set(ctx, "device-1", branchID)

		got, ok := c.Get(ctx, "device-1")
		assert.True(t, ok)
		assert.Equal(t, branchID, got)
	})

	t.Run("expired entry reads as miss", func(t *testing.T) {
		c := NewInMemoryDeviceBranchCache(time.Nanosecond)
		c.Set(ctx, "device-1", uuid.New())

		time.Sleep(5 * time.Millisecond)

		_, ok := c.Get(ctx, "device-1")
		assert.False(t, ok)
	})

	t.Run("set overwrites previous mapping", func(t *testing.T) {
		c := NewInMemoryDeviceBranchCache(time.Minute)
		first, second := uuid.New(), uuid.New()

		c.Set(ctx, "device-1", first)
		c.Set(ctx, "device-1", second)

		got, ok := c.Get(ctx, "device-1")
		assert.True(t, ok)
		assert.Equal(t, second, got)
	})
}
