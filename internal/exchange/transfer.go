package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/internal/journal"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// TransferRequest describes a native currency transfer. A zero From
// address selects the keyring's default wallet.
type TransferRequest struct {
	From      common.Address
	To        common.Address
	AmountWei *big.Int
}

// Outcome reports a mined transaction.
type Outcome struct {
	TxHash      common.Hash
	GasUsed     uint64
	BlockNumber *big.Int
}

// Summary renders the outcome for agent-facing tool output.
func (o *Outcome) Summary() string {
	return fmt.Sprintf("Transaction successful! Hash: %s, Gas used: %d", o.TxHash.Hex(), o.GasUsed)
}

// Transfer sends native currency and waits for the receipt. The balance
// guard requires amount plus the fixed 21000 gas cost up front; a guard
// failure means nothing was submitted.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*Outcome, error) {
	outcome, err := s.transfer(ctx, req)
	s.record(ctx, journal.KindTransfer, req.From, req.To, req.AmountWei, nil, outcome, err)
	return outcome, err
}

func (s *Service) transfer(ctx context.Context, req TransferRequest) (*Outcome, error) {
	if req.AmountWei == nil || req.AmountWei.Sign() <= 0 {
		return nil, xerrors.New(CodeParse, "转账金额必须为正数")
	}

	identity, err := s.resolveIdentity(req.From)
	if err != nil {
		return nil, err
	}
	from := identity.Address()

	balance, err := s.client.BalanceAt(ctx, from)
	if err != nil {
		return nil, err
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	gasCost := new(big.Int).Mul(gasPrice, big.NewInt(transferGasLimit))
	if err := CheckBalance(balance, req.AmountWei, gasCost); err != nil {
		return nil, err
	}

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      transferGasLimit,
		To:       &req.To,
		Value:    req.AmountWei,
	})

	outcome, err := s.submit(ctx, identity, tx)
	if err != nil {
		return nil, err
	}
	s.logger().Info("转账完成",
		slog.String("from", from.Hex()),
		slog.String("to", req.To.Hex()),
		slog.String("amount_wei", req.AmountWei.String()),
		slog.String("tx_hash", outcome.TxHash.Hex()),
	)
	return outcome, nil
}
