package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
)

// defaultListLimit 是 List 未指定条数时的默认值。
const defaultListLimit = 20

// MemoryStore 以内存方式保存交易流水，主要用于测试与单机部署。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Save 实现 Store 接口。
func (m *MemoryStore) Save(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "entry 不能为空")
	}
	if entry.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "流水 ID 不能为空")
	}
	if _, ok := m.entries[entry.ID]; ok {
		return ErrEntryConflict
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

// Get 返回指定流水。
func (m *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	clone := *entry
	return &clone, nil
}

// List 按创建时间倒序返回最近的流水。
func (m *MemoryStore) List(_ context.Context, limit int) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	results := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		clone := *entry
		results = append(results, &clone)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt == results[j].CreatedAt {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt > results[j].CreatedAt
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
