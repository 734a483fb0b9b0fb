package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name    string
	RPCURL  string
	Notes   string
	PollGap time.Duration
}

// defaultPollGap is the receipt polling interval. Mainnet blocks arrive every
// twelve seconds; local devnets mine instantly, so a short gap keeps tests
// fast without hammering remote nodes.
const defaultPollGap = 500 * time.Millisecond

// Client implements the chain.Client interface for EVM compatible networks.
type Client struct {
	name      string
	notes     string
	rpcClient *gethrpc.Client
	eth       *ethclient.Client
	pollGap   time.Duration
	mu        sync.Mutex
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use
// client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}

	pollGap := cfg.PollGap
	if pollGap <= 0 {
		pollGap = defaultPollGap
	}

	return &Client{
		name:      cfg.Name,
		notes:     cfg.Notes,
		rpcClient: rpcClient,
		eth:       ethclient.NewClient(rpcClient),
		pollGap:   pollGap,
	}, nil
}

// Close releases network connections held by the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// ChainID reports the EIP-155 identifier of the connected network.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链 ID 失败: %w", err)
	}
	return id, nil
}

// BalanceAt returns the latest native balance of the account in wei.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

// CodeAt returns the bytecode deployed at the address.
func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	code, err := c.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("查询合约字节码失败: %w", err)
	}
	return code, nil
}

// SuggestGasPrice fetches the node's current gas price estimate.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询 gas 价格失败: %w", err)
	}
	return price, nil
}

// PendingNonceAt returns the next usable nonce including pending txs.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if c == nil || c.eth == nil {
		return 0, errors.New("未初始化的以太坊客户端")
	}
	nonce, err := c.eth.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("查询交易计数失败: %w", err)
	}
	return nonce, nil
}

// EstimateGas simulates the call against the pending state.
func (c *Client) EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error) {
	if c == nil || c.eth == nil {
		return 0, errors.New("未初始化的以太坊客户端")
	}
	gas, err := c.eth.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("估算 gas 失败: %w", err)
	}
	return gas, nil
}

// CallContract executes a read-only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg gethcore.CallMsg) ([]byte, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("合约调用失败: %w", err)
	}
	return out, nil
}

// SendTransaction broadcasts a signed transaction to the network.
func (c *Client) SendTransaction(ctx context.Context, tx *coretypes.Transaction) error {
	if c == nil || c.eth == nil {
		return errors.New("未初始化的以太坊客户端")
	}
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("发送交易失败: %w", err)
	}
	return nil
}

// WaitReceipt polls for the transaction receipt until the transaction is
// mined or the context is cancelled.
func (c *Client) WaitReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("未初始化的以太坊客户端")
	}

	ticker := time.NewTicker(c.pollGap)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, gethcore.NotFound) {
			return nil, fmt.Errorf("查询交易回执失败: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
