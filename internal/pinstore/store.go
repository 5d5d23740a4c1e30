// Package pinstore 缓存虚拟引脚的最新值，用于应答服务端的读请求
package pinstore

import (
	"context"
	"sync"
)

// Store 虚拟引脚值存储，values 为线上格式的文本 token
type Store interface {
	Set(ctx context.Context, pin int, values []string) error
	// Get 未记录过的引脚返回 ok=false
	Get(ctx context.Context, pin int) (values []string, ok bool, err error)
}

// MemoryStore 进程内存储
type MemoryStore struct {
	mu   sync.RWMutex
	pins map[int][]string
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pins: make(map[int][]string)}
}

func (s *MemoryStore) Set(_ context.Context, pin int, values []string) error {
	cp := append([]string(nil), values...)
	s.mu.Lock()
	s.pins[pin] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, pin int) ([]string, bool, error) {
	s.mu.RLock()
	v, ok := s.pins[pin]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), v...), true, nil
}

var _ Store = (*MemoryStore)(nil)
