package pinstore

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstorage "github.com/taoyao-code/pinlink/internal/storage/redis"
)

// 需要本地 Redis，不可用时跳过
func setupTestRedis(t *testing.T) *redisstorage.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
		return nil
	}
	rdb.FlushDB(ctx)

	t.Cleanup(func() {
		rdb.FlushDB(ctx)
		rdb.Close()
	})
	return redisstorage.Wrap(rdb, "pinlink-test")
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, 1, []string{"123.5", "abc"}))
	v, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"123.5", "abc"}, v)

	// 覆盖写
	require.NoError(t, s.Set(ctx, 1, []string{"7"}))
	v, _, _ = s.Get(ctx, 1)
	assert.Equal(t, []string{"7"}, v)

	// 空值也算已记录
	require.NoError(t, s.Set(ctx, 2, nil))
	v, ok, err = s.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	in := []string{"1"}
	require.NoError(t, s.Set(context.Background(), 3, in))
	in[0] = "changed"

	v, _, _ := s.Get(context.Background(), 3)
	assert.Equal(t, []string{"1"}, v)
}

func TestRedisStore(t *testing.T) {
	client := setupTestRedis(t)
	if client == nil {
		return
	}
	testStore(t, NewRedisStore(client))

	// 数据落在带前缀的 Hash 中
	n, err := client.HLen(context.Background(), "pinlink-test:vpin").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
