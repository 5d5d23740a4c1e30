package pinstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	redisstorage "github.com/taoyao-code/pinlink/internal/storage/redis"
)

const (
	vpinHashKey = "vpin"
	sep         = "\x00"
)

// RedisStore 引脚值保存在一个 Hash 中：field 为引脚号，value 为 NUL 连接的 token
type RedisStore struct {
	client *redisstorage.Client
	key    string
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redisstorage.Client) *RedisStore {
	return &RedisStore{client: client, key: client.Key(vpinHashKey)}
}

func (s *RedisStore) Set(ctx context.Context, pin int, values []string) error {
	if err := s.client.HSet(ctx, s.key, strconv.Itoa(pin), strings.Join(values, sep)).Err(); err != nil {
		return fmt.Errorf("hset pin %d: %w", pin, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, pin int) ([]string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, strconv.Itoa(pin)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget pin %d: %w", pin, err)
	}
	if v == "" {
		return []string{}, true, nil
	}
	return strings.Split(v, sep), true, nil
}

var _ Store = (*RedisStore)(nil)
