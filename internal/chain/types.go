package chain

import (
	"context"
	"math/big"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// Client defines the node operations the orchestration core consumes. The
// interface is deliberately narrow so request handlers can be exercised
// against stubs; every method must be safe to call from concurrent
// goroutines.
type Client interface {
	// ChainID reports the EIP-155 chain identifier of the connected network.
	ChainID(ctx context.Context) (*big.Int, error)
	// BalanceAt returns the native-currency balance in wei.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	// CodeAt returns the contract bytecode deployed at the address, empty
	// when the address is externally owned.
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	// SuggestGasPrice returns the node's current gas price estimate in wei.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	// PendingNonceAt returns the next nonce including pending transactions.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	// EstimateGas simulates the call and returns a gas-unit estimate.
	EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error)
	// CallContract executes a read-only contract call.
	CallContract(ctx context.Context, msg gethcore.CallMsg) ([]byte, error)
	// SendTransaction broadcasts a signed transaction.
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
	// WaitReceipt blocks until the transaction is mined or the context is
	// cancelled. A nil receipt without error never occurs; dropped
	// transactions surface as the context error of the caller's deadline.
	WaitReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
	// Close releases network connections held by the client.
	Close()
}
