package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"OpenMCP-DeFi/internal/chain"
	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/internal/journal"
	"OpenMCP-DeFi/internal/keyring"
	"OpenMCP-DeFi/pkg/logger"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

const (
	// DefaultSlippagePercent tolerates a ten percent price move between
	// quoting and execution.
	DefaultSlippagePercent = 10
	// DefaultDeadlineWindow bounds how long a submitted swap stays valid.
	DefaultDeadlineWindow = 5 * time.Minute
	// DefaultGasUnitEstimate is the worst-case gas reserve used by the
	// balance guard for swaps.
	DefaultGasUnitEstimate = 200_000
	// transferGasLimit is the fixed cost of a plain value transfer.
	transferGasLimit = 21_000
)

// Service executes transfers and swaps against a single chain using keys
// held by the keyring.
type Service struct {
	ring            *keyring.Keyring
	client          chain.Client
	chainID         *big.Int
	chainName       string
	wrappedNative   common.Address
	router          common.Address
	slippagePercent uint
	deadlineWindow  time.Duration
	gasUnitEstimate uint64
	journal         *journal.Recorder
	log             *slog.Logger
}

// Option 定义 Service 的可选配置。
type Option func(*Service)

// WithSlippagePercent 设置滑点容忍度，取值 0 到 100。
func WithSlippagePercent(percent uint) Option {
	return func(s *Service) {
		if percent <= 100 {
			s.slippagePercent = percent
		}
	}
}

// WithDeadlineWindow 设置交换的有效时间窗口。
func WithDeadlineWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.deadlineWindow = window
		}
	}
}

// WithGasUnitEstimate 设置余额校验使用的 gas 预算。
func WithGasUnitEstimate(units uint64) Option {
	return func(s *Service) {
		if units > 0 {
			s.gasUnitEstimate = units
		}
	}
}

// WithJournal 挂接交易流水记录器。
func WithJournal(recorder *journal.Recorder) Option {
	return func(s *Service) {
		s.journal = recorder
	}
}

// WithLogger 指定日志输出。
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithChainName 设置写入流水的链名称。
func WithChainName(name string) Option {
	return func(s *Service) {
		s.chainName = name
	}
}

// New 构造交易服务。def 提供链上的 WETH 与路由合约地址。
func New(ring *keyring.Keyring, client chain.Client, chainID *big.Int, def chain.Definition, opts ...Option) (*Service, error) {
	if ring == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置钱包")
	}
	if client == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置链客户端")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "非法的链 ID")
	}
	if !common.IsHexAddress(def.WrappedNative) {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("非法的 WETH 地址 %q", def.WrappedNative))
	}
	if !common.IsHexAddress(def.Router) {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("非法的路由合约地址 %q", def.Router))
	}

	s := &Service{
		ring:            ring,
		client:          client,
		chainID:         new(big.Int).Set(chainID),
		wrappedNative:   common.HexToAddress(def.WrappedNative),
		router:          common.HexToAddress(def.Router),
		slippagePercent: DefaultSlippagePercent,
		deadlineWindow:  DefaultDeadlineWindow,
		gasUnitEstimate: DefaultGasUnitEstimate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Accounts returns the addresses the service can sign for.
func (s *Service) Accounts() []common.Address {
	return s.ring.Addresses()
}

// GetBalance returns the native balance of the account in wei.
func (s *Service) GetBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return s.client.BalanceAt(ctx, account)
}

// GetCode returns the contract bytecode deployed at the address. An empty
// result means the address is externally owned.
func (s *Service) GetCode(ctx context.Context, account common.Address) ([]byte, error) {
	return s.client.CodeAt(ctx, account)
}

// ERC20Balance queries balanceOf on the token contract.
func (s *Service) ERC20Balance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamFailure, err, "编码 balanceOf 调用失败")
	}
	out, err := s.client.CallContract(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamFailure, err, "解析 balanceOf 返回值失败")
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, xerrors.New(xerrors.CodeUpstreamFailure, "balanceOf 返回值类型异常")
	}
	return balance, nil
}

// resolveIdentity 选择签名身份：钱包里没有请求的地址时回落到默认账户，
// 只有钱包完全没有身份才报 NoSigner。
func (s *Service) resolveIdentity(account common.Address) (*keyring.Identity, error) {
	if account != (common.Address{}) {
		if identity, ok := s.ring.Lookup(account); ok {
			return identity, nil
		}
		if identity := s.ring.Default(); identity != nil {
			s.logger().Warn("请求的签名地址不在钱包中，回落到默认账户",
				slog.String("requested", account.Hex()),
				slog.String("default", identity.Address().Hex()),
			)
			return identity, nil
		}
	}
	if identity := s.ring.Default(); identity != nil {
		return identity, nil
	}
	return nil, xerrors.New(CodeNoSigner, "钱包为空，没有可用的签名账户")
}

// submit 签名并广播交易，然后等待回执。
func (s *Service) submit(ctx context.Context, identity *keyring.Identity, tx *coretypes.Transaction) (*Outcome, error) {
	signed, err := identity.SignTx(tx, s.chainID)
	if err != nil {
		return nil, xerrors.Wrap(CodeSubmission, err, "签名交易失败")
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return nil, xerrors.Wrap(CodeSubmission, err, "广播交易失败")
	}

	receipt, err := s.client.WaitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, xerrors.Wrap(CodeReceiptMissing, err, "等待交易回执失败")
	}
	if receipt == nil {
		return nil, xerrors.New(CodeReceiptMissing, fmt.Sprintf("交易 %s 未返回回执", signed.Hash().Hex()))
	}
	return &Outcome{
		TxHash:      receipt.TxHash,
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber,
	}, nil
}

// record 把交易结果写入流水，记账失败绝不影响交易结果。
func (s *Service) record(ctx context.Context, kind journal.Kind, account, counterparty common.Address, amount, minimumOut *big.Int, outcome *Outcome, tradeErr error) {
	if s.journal == nil {
		return
	}
	entry := &journal.Entry{
		Kind:         kind,
		Chain:        s.chainName,
		Account:      account.Hex(),
		Counterparty: counterparty.Hex(),
		AmountWei:    zeroIfNil(amount).String(),
	}
	if minimumOut != nil && minimumOut.Sign() > 0 {
		entry.MinimumOut = minimumOut.String()
	}
	if tradeErr != nil {
		entry.Status = journal.StatusFailed
		entry.ErrorCode = string(xerrors.CodeOf(tradeErr))
		entry.LastError = tradeErr.Error()
	} else if outcome != nil {
		entry.Status = journal.StatusConfirmed
		entry.TxHash = outcome.TxHash.Hex()
		entry.GasUsed = outcome.GasUsed
	}
	s.journal.Record(ctx, entry)
}

func (s *Service) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return logger.L()
}
