package journal

import (
	xerrors "OpenMCP-DeFi/internal/errors"
)

// Kind 表示交易流水的类型。
type Kind string

const (
	// KindTransfer 原生币转账。
	KindTransfer Kind = "transfer"
	// KindSwapIn 原生币换代币。
	KindSwapIn Kind = "swap_in"
	// KindSwapOut 代币换原生币。
	KindSwapOut Kind = "swap_out"
)

// Status 表示流水的最终状态。
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry 描述一笔已完成（成功或失败）的链上交易流水。
type Entry struct {
	ID           string `json:"id"`
	Kind         Kind   `json:"kind"`
	Chain        string `json:"chain"`
	Account      string `json:"account"`
	Counterparty string `json:"counterparty"`
	AmountWei    string `json:"amount_wei"`
	MinimumOut   string `json:"minimum_out,omitempty"`
	TxHash       string `json:"tx_hash,omitempty"`
	GasUsed      uint64 `json:"gas_used"`
	Status       Status `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

var (
	// ErrEntryNotFound 表示指定的流水不存在。
	ErrEntryNotFound = xerrors.New(CodeEntryNotFound, "journal entry not found")
	// ErrEntryConflict 表示流水 ID 已存在。
	ErrEntryConflict = xerrors.New(CodeEntryConflict, "journal entry conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
)

const (
	CodeEntryNotFound     xerrors.Code = "JOURNAL_ENTRY_NOT_FOUND"
	CodeEntryConflict     xerrors.Code = "JOURNAL_ENTRY_CONFLICT"
	CodeJournalPublish    xerrors.Code = "JOURNAL_PUBLISH_FAILED"
	CodeJournalProcessing xerrors.Code = "JOURNAL_PROCESSING_FAILED"
)

func init() {
	xerrors.Register(CodeEntryNotFound, xerrors.Attributes{
		Message:   "journal entry not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeEntryConflict, xerrors.Attributes{
		Message:   "journal entry conflict",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeJournalPublish, xerrors.Attributes{
		Message:   "failed to publish journal entry",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
	xerrors.Register(CodeJournalProcessing, xerrors.Attributes{
		Message:   "journal processing failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
}

// IsValidStatus 检查状态是否为支持的枚举值。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusConfirmed, StatusFailed:
		return true
	default:
		return false
	}
}
