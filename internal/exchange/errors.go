package exchange

import (
	xerrors "OpenMCP-DeFi/internal/errors"
)

const (
	CodeParse             xerrors.Code = "PARSE_ERROR"
	CodeNoSigner          xerrors.Code = "NO_SIGNER"
	CodeInsufficientFunds xerrors.Code = "INSUFFICIENT_FUNDS"
	CodeSubmission        xerrors.Code = "SUBMISSION_FAILED"
	CodeReceiptMissing    xerrors.Code = "RECEIPT_MISSING"
)

func init() {
	xerrors.Register(CodeParse, xerrors.Attributes{
		Message:   "failed to parse trade parameters",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeNoSigner, xerrors.Attributes{
		Message:   "no signing key for the requested account",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeInsufficientFunds, xerrors.Attributes{
		Message:   "account balance cannot cover amount plus gas",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeSubmission, xerrors.Attributes{
		Message:   "transaction submission failed",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeReceiptMissing, xerrors.Attributes{
		Message:   "transaction receipt missing",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
}
