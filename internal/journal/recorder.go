package journal

import (
	"context"
	"log/slog"
	"time"

	"OpenMCP-DeFi/pkg/logger"

	"github.com/google/uuid"
)

// Recorder 负责把一笔交易结果写入流水并通知异步处理器。写入失败只记录
// 日志，绝不让记账问题影响已经完成的链上交易。
type Recorder struct {
	store    Store
	producer Producer
	log      *slog.Logger
}

// RecorderOption 定义可选配置。
type RecorderOption func(*Recorder)

// WithRecorderLogger 指定日志输出。
func WithRecorderLogger(log *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

// NewRecorder 构造 Recorder。producer 可以为 nil，此时仅落库不投递。
func NewRecorder(store Store, producer Producer, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, producer: producer}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Record 持久化一条流水并把 ID 投递到队列。返回分配的流水 ID。
func (r *Recorder) Record(ctx context.Context, entry *Entry) string {
	if r == nil || r.store == nil || entry == nil {
		return ""
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	if err := r.store.Save(ctx, entry); err != nil {
		r.logger().Error("写入交易流水失败",
			slog.Any("error", err),
			slog.String("entry_id", entry.ID),
			slog.String("kind", string(entry.Kind)),
		)
		return entry.ID
	}
	if r.producer != nil {
		if err := r.producer.Publish(ctx, entry.ID); err != nil {
			r.logger().Warn("投递交易流水失败",
				slog.Any("error", err),
				slog.String("entry_id", entry.ID),
			)
		}
	}
	return entry.ID
}

func (r *Recorder) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}
	return logger.L()
}
