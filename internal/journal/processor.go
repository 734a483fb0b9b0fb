package journal

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/internal/observability/alerting"
	"OpenMCP-DeFi/pkg/logger"
)

// Processor 从队列消费流水 ID，补写审计日志并对失败交易发出告警。
type Processor struct {
	store       Store
	consumer    Consumer
	workerCount int
	logger      *slog.Logger
	alerter     alerting.Dispatcher
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = log
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(store Store, consumer Consumer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:       store,
		consumer:    consumer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动流水处理循环，阻塞直到 ctx 取消。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置流水消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, entryID string) error {
	if p.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "处理器未初始化")
	}
	entry, err := p.store.Get(ctx, entryID)
	if err != nil {
		if stdErrors.Is(err, ErrEntryNotFound) {
			p.logDebug("跳过流水", slog.String("entry_id", entryID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("读取交易流水失败", slog.Any("error", err), slog.String("entry_id", entryID))
		return xerrors.Wrap(CodeJournalProcessing, err, "读取交易流水失败")
	}

	switch entry.Status {
	case StatusConfirmed:
		logger.Audit().Info("交易已确认",
			slog.String("entry_id", entry.ID),
			slog.String("kind", string(entry.Kind)),
			slog.String("account", entry.Account),
			slog.String("tx_hash", entry.TxHash),
			slog.Uint64("gas_used", entry.GasUsed),
		)
	case StatusFailed:
		logger.Audit().Warn("交易失败",
			slog.String("entry_id", entry.ID),
			slog.String("kind", string(entry.Kind)),
			slog.String("account", entry.Account),
			slog.String("error", entry.LastError),
			slog.String("error_code", entry.ErrorCode),
		)
		p.emitAlert(ctx, entry)
	default:
		p.logDebug("未知流水状态", slog.String("entry_id", entry.ID), slog.String("status", string(entry.Status)))
	}
	return nil
}

func (p *Processor) emitAlert(ctx context.Context, entry *Entry) {
	if p == nil || p.alerter == nil || entry == nil {
		return
	}
	code := xerrors.Code(entry.ErrorCode)
	if code == "" {
		code = CodeJournalProcessing
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if entry.LastError != "" {
		message = entry.LastError
	}
	metadata := map[string]string{
		"account":      entry.Account,
		"counterparty": entry.Counterparty,
		"amount_wei":   entry.AmountWei,
	}
	if entry.TxHash != "" {
		metadata["tx_hash"] = entry.TxHash
	}
	event := alerting.Event{
		Code:       code,
		Message:    message,
		Severity:   attrs.Severity,
		TradeID:    entry.ID,
		Kind:       string(entry.Kind),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("告警通知失败",
			slog.Any("error", err),
			slog.String("entry_id", entry.ID),
		)
	}
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}
