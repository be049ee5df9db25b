package plagiarism

import (
	"context"
	"testing"
	"time"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRedis implements the two commands the tracker uses
type memoryRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewStatusCmd(ctx)
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func TestStatusTracker(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		store := newMemoryRedis()
		tracker := NewStatusTracker(store)
		ctx := context.Background()

		step, err := tracker.Get(ctx, "hw1")
		require.NoError(t, err)
		assert.Equal(t, models.StepIdle, step)

		require.NoError(t, tracker.Update(ctx, "hw1", models.StepComparing))
		step, err = tracker.Get(ctx, "hw1")
		require.NoError(t, err)
		assert.Equal(t, models.StepComparing, step)
		assert.Equal(t, statusTTL, store.ttls[statusKeyPrefix+"hw1"])
	})

	t.Run("unknown step rejected before writing", func(t *testing.T) {
		t.Parallel()
		store := newMemoryRedis()
		err := NewStatusTracker(store).Update(context.Background(), "hw1", models.Step("exploded"))
		assert.ErrorContains(t, err, "unknown step")
		assert.Empty(t, store.values)
	})
}
