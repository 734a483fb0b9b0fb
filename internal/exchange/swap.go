package exchange

import (
	"context"
	"log/slog"
	"math/big"

	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/internal/journal"
	"OpenMCP-DeFi/internal/keyring"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// SwapRequest describes a swap between the native currency and an ERC-20
// token on the chain's V2 router. A zero From address selects the default
// wallet; a zero Router falls back to the chain's configured router. A
// zero ExpectedOut disables slippage protection.
type SwapRequest struct {
	From        common.Address
	Token       common.Address
	Router      common.Address
	AmountIn    *big.Int
	ExpectedOut *big.Int
}

// SwapCurrencyForToken trades native currency for the token via
// swapExactETHForTokens. The input amount rides along as transaction
// value.
func (s *Service) SwapCurrencyForToken(ctx context.Context, req SwapRequest) (*Outcome, error) {
	outcome, plan, err := s.swapCurrencyForToken(ctx, req)
	s.record(ctx, journal.KindSwapIn, req.From, s.routerFor(req), req.AmountIn, plan.MinimumOut, outcome, err)
	return outcome, err
}

func (s *Service) swapCurrencyForToken(ctx context.Context, req SwapRequest) (*Outcome, Plan, error) {
	plan := Plan{}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, plan, xerrors.New(CodeParse, "交换的输入金额必须为正数")
	}

	identity, err := s.resolveIdentity(req.From)
	if err != nil {
		return nil, plan, err
	}
	from := identity.Address()
	router := s.routerFor(req)

	plan = NewPlan(req.AmountIn, req.ExpectedOut, s.slippagePercent, s.deadlineWindow,
		[]common.Address{s.wrappedNative, req.Token})
	s.warnUnprotected(plan, from)

	balance, err := s.client.BalanceAt(ctx, from)
	if err != nil {
		return nil, plan, err
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, plan, err
	}
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(s.gasUnitEstimate))
	if err := CheckBalance(balance, req.AmountIn, gasCost); err != nil {
		return nil, plan, err
	}

	data, err := routerABI.Pack("swapExactETHForTokens", plan.MinimumOut, plan.Path, from, plan.Deadline)
	if err != nil {
		return nil, plan, xerrors.Wrap(CodeSubmission, err, "编码交换调用失败")
	}

	outcome, err := s.executeSwap(ctx, identity, router, req.AmountIn, data, gasPrice)
	if err != nil {
		return nil, plan, err
	}
	s.logger().Info("原生币换代币完成",
		slog.String("from", from.Hex()),
		slog.String("token", req.Token.Hex()),
		slog.String("amount_in", req.AmountIn.String()),
		slog.String("minimum_out", plan.MinimumOut.String()),
		slog.String("tx_hash", outcome.TxHash.Hex()),
	)
	return outcome, plan, nil
}

// SwapTokenForCurrency trades the token back to native currency via
// swapExactTokensForETH. The router must already hold an ERC-20 allowance
// for the input amount.
func (s *Service) SwapTokenForCurrency(ctx context.Context, req SwapRequest) (*Outcome, error) {
	outcome, plan, err := s.swapTokenForCurrency(ctx, req)
	s.record(ctx, journal.KindSwapOut, req.From, s.routerFor(req), req.AmountIn, plan.MinimumOut, outcome, err)
	return outcome, err
}

func (s *Service) swapTokenForCurrency(ctx context.Context, req SwapRequest) (*Outcome, Plan, error) {
	plan := Plan{}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, plan, xerrors.New(CodeParse, "交换的输入金额必须为正数")
	}

	identity, err := s.resolveIdentity(req.From)
	if err != nil {
		return nil, plan, err
	}
	from := identity.Address()
	router := s.routerFor(req)

	plan = NewPlan(req.AmountIn, req.ExpectedOut, s.slippagePercent, s.deadlineWindow,
		[]common.Address{req.Token, s.wrappedNative})
	s.warnUnprotected(plan, from)

	// 卖出侧校验代币余额，gas 仍然由原生币余额承担。
	tokenBalance, err := s.ERC20Balance(ctx, req.Token, from)
	if err != nil {
		return nil, plan, err
	}
	if err := CheckBalance(tokenBalance, req.AmountIn, nil); err != nil {
		return nil, plan, err
	}
	nativeBalance, err := s.client.BalanceAt(ctx, from)
	if err != nil {
		return nil, plan, err
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, plan, err
	}
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(s.gasUnitEstimate))
	if err := CheckBalance(nativeBalance, nil, gasCost); err != nil {
		return nil, plan, err
	}

	data, err := routerABI.Pack("swapExactTokensForETH", req.AmountIn, plan.MinimumOut, plan.Path, from, plan.Deadline)
	if err != nil {
		return nil, plan, xerrors.Wrap(CodeSubmission, err, "编码交换调用失败")
	}

	outcome, err := s.executeSwap(ctx, identity, router, nil, data, gasPrice)
	if err != nil {
		return nil, plan, err
	}
	s.logger().Info("代币换原生币完成",
		slog.String("from", from.Hex()),
		slog.String("token", req.Token.Hex()),
		slog.String("amount_in", req.AmountIn.String()),
		slog.String("minimum_out", plan.MinimumOut.String()),
		slog.String("tx_hash", outcome.TxHash.Hex()),
	)
	return outcome, plan, nil
}

// executeSwap estimates gas for the router call, then signs and submits.
func (s *Service) executeSwap(ctx context.Context, identity *keyring.Identity, router common.Address, value *big.Int, data []byte, gasPrice *big.Int) (*Outcome, error) {
	from := identity.Address()

	gasLimit, err := s.client.EstimateGas(ctx, gethcore.CallMsg{
		From:  from,
		To:    &router,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, xerrors.Wrap(CodeSubmission, err, "交易预执行失败")
	}
	// 预留两成余量，避免估算值恰好触及上限。
	gasLimit += gasLimit / 5

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &router,
		Value:    value,
		Data:     data,
	})
	return s.submit(ctx, identity, tx)
}

func (s *Service) routerFor(req SwapRequest) common.Address {
	if req.Router != (common.Address{}) {
		return req.Router
	}
	return s.router
}

func (s *Service) warnUnprotected(plan Plan, from common.Address) {
	if plan.Protected() {
		return
	}
	s.logger().Warn("交换未启用滑点保护，最小输出为零",
		slog.String("from", from.Hex()),
		slog.String("amount_in", plan.AmountIn.String()),
	)
}
