package alerting

import (
	"context"
	"log/slog"
	"testing"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
)

// captureHandler 收集日志记录，便于断言告警内容。
type captureHandler struct {
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestLogNotifierWritesWarning(t *testing.T) {
	handler := &captureHandler{}
	notifier := &LogNotifier{Logger: slog.New(handler)}

	err := notifier.Notify(context.Background(), Event{
		Code:       "SUBMISSION_FAILED",
		Message:    "广播交易失败",
		Severity:   xerrors.SeverityCritical,
		TradeID:    "trade-1",
		Kind:       "transfer",
		Metadata:   map[string]string{"chain": "ethereum"},
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(handler.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(handler.records))
	}

	record := handler.records[0]
	if record.Level != slog.LevelWarn {
		t.Fatalf("level = %s, want WARN", record.Level)
	}
	found := map[string]string{}
	record.Attrs(func(attr slog.Attr) bool {
		found[attr.Key] = attr.Value.String()
		return true
	})
	if found["code"] != "SUBMISSION_FAILED" {
		t.Fatalf("code attr = %q", found["code"])
	}
	if found["trade_id"] != "trade-1" {
		t.Fatalf("trade_id attr = %q", found["trade_id"])
	}
	if found["meta_chain"] != "ethereum" {
		t.Fatalf("meta_chain attr = %q", found["meta_chain"])
	}
}

func TestFanoutDispatchesToLogNotifier(t *testing.T) {
	handler := &captureHandler{}
	dispatcher := NewFanout(&LogNotifier{Logger: slog.New(handler)})

	if err := dispatcher.Notify(context.Background(), Event{Code: "RECEIPT_MISSING", TradeID: "trade-2"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(handler.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(handler.records))
	}
}
