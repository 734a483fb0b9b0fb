package journal

import "context"

// Store 抽象了交易流水的持久化接口。
type Store interface {
	Save(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, limit int) ([]*Entry, error)
	Close() error
}
