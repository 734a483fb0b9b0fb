package exchange

import (
	"context"
	"math/big"
	"testing"

	"OpenMCP-DeFi/internal/chain"
	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/internal/keyring"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// stubClient 实现 chain.Client，按需返回预置的链上状态。
type stubClient struct {
	chainID     *big.Int
	balances    map[common.Address]*big.Int
	code        []byte
	gasPrice    *big.Int
	callResult  []byte
	estimate    uint64
	sent        []*coretypes.Transaction
	sendErr     error
	receipt     *coretypes.Receipt
	receiptErr  error
	noReceipt   bool
	estimateErr error
}

func newStubClient() *stubClient {
	return &stubClient{
		chainID:  big.NewInt(1),
		balances: make(map[common.Address]*big.Int),
		gasPrice: big.NewInt(1),
		estimate: 150_000,
	}
}

func (c *stubClient) ChainID(context.Context) (*big.Int, error) { return c.chainID, nil }

func (c *stubClient) BalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	if balance, ok := c.balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (c *stubClient) CodeAt(context.Context, common.Address) ([]byte, error) {
	return c.code, nil
}

func (c *stubClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.gasPrice), nil
}

func (c *stubClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(len(c.sent)), nil
}

func (c *stubClient) EstimateGas(context.Context, gethcore.CallMsg) (uint64, error) {
	if c.estimateErr != nil {
		return 0, c.estimateErr
	}
	return c.estimate, nil
}

func (c *stubClient) CallContract(context.Context, gethcore.CallMsg) ([]byte, error) {
	return c.callResult, nil
}

func (c *stubClient) SendTransaction(_ context.Context, tx *coretypes.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *stubClient) WaitReceipt(_ context.Context, txHash common.Hash) (*coretypes.Receipt, error) {
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	if c.noReceipt {
		return nil, nil
	}
	if c.receipt != nil {
		receipt := *c.receipt
		receipt.TxHash = txHash
		return &receipt, nil
	}
	return &coretypes.Receipt{TxHash: txHash, GasUsed: 21_000, BlockNumber: big.NewInt(1)}, nil
}

func (c *stubClient) Close() {}

var _ chain.Client = (*stubClient)(nil)

func testDefinition() chain.Definition {
	return chain.Definition{
		WrappedNative: chain.WETHMainnet,
		Router:        chain.UniswapV2RouterMainnet,
	}
}

func newTestService(t *testing.T, client *stubClient, opts ...Option) (*Service, *keyring.Keyring) {
	t.Helper()
	ring, err := keyring.FromMnemonic(keyring.DefaultMnemonic, 2)
	if err != nil {
		t.Fatalf("build keyring: %v", err)
	}
	service, err := New(ring, client, big.NewInt(1), testDefinition(), opts...)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return service, ring
}

func encodeUint256(value *big.Int) []byte {
	return common.LeftPadBytes(value.Bytes(), 32)
}

func TestTransferSubmitsSignedTransaction(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()
	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	amount := big.NewInt(1_000)
	gasCost := new(big.Int).Mul(client.gasPrice, big.NewInt(transferGasLimit))
	client.balances[from] = new(big.Int).Add(amount, new(big.Int).Mul(gasCost, big.NewInt(2)))

	outcome, err := service.Transfer(context.Background(), TransferRequest{To: to, AmountWei: amount})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(client.sent))
	}

	tx := client.sent[0]
	if tx.To() == nil || *tx.To() != to {
		t.Fatalf("tx to = %v, want %s", tx.To(), to.Hex())
	}
	if tx.Value().Cmp(amount) != 0 {
		t.Fatalf("tx value = %s, want %s", tx.Value(), amount)
	}
	if tx.Gas() != transferGasLimit {
		t.Fatalf("tx gas = %d, want %d", tx.Gas(), transferGasLimit)
	}
	sender, err := coretypes.Sender(coretypes.LatestSignerForChainID(big.NewInt(1)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != from {
		t.Fatalf("sender = %s, want default wallet %s", sender.Hex(), from.Hex())
	}
	if outcome.GasUsed != 21_000 {
		t.Fatalf("gas used = %d", outcome.GasUsed)
	}
	if outcome.Summary() == "" {
		t.Fatal("expected non-empty summary")
	}
}

func TestTransferBoundaryBalancePasses(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()

	amount := big.NewInt(1_000)
	gasCost := new(big.Int).Mul(client.gasPrice, big.NewInt(transferGasLimit))
	client.balances[from] = new(big.Int).Add(amount, gasCost)

	if _, err := service.Transfer(context.Background(), TransferRequest{
		To:        common.HexToAddress("0x01"),
		AmountWei: amount,
	}); err != nil {
		t.Fatalf("boundary balance should pass: %v", err)
	}
}

func TestTransferInsufficientFundsBlocksSubmission(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()

	amount := big.NewInt(1_000)
	gasCost := new(big.Int).Mul(client.gasPrice, big.NewInt(transferGasLimit))
	required := new(big.Int).Add(amount, gasCost)
	client.balances[from] = new(big.Int).Sub(required, big.NewInt(1))

	_, err := service.Transfer(context.Background(), TransferRequest{
		To:        common.HexToAddress("0x01"),
		AmountWei: amount,
	})
	if xerrors.CodeOf(err) != CodeInsufficientFunds {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeInsufficientFunds)
	}
	if len(client.sent) != 0 {
		t.Fatal("guard failure must not submit a transaction")
	}
}

func TestTransferUnknownSenderFallsBackToDefault(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	fallback := ring.Default().Address()
	client.balances[fallback] = big.NewInt(1_000_000)

	_, err := service.Transfer(context.Background(), TransferRequest{
		From:      common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		To:        common.HexToAddress("0x01"),
		AmountWei: big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("transfer with unknown sender must use the default wallet: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(client.sent))
	}
	sender, err := coretypes.Sender(coretypes.LatestSignerForChainID(big.NewInt(1)), client.sent[0])
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != fallback {
		t.Fatalf("sender = %s, want default wallet %s", sender.Hex(), fallback.Hex())
	}
}

func TestTransferEmptyKeyringHasNoSigner(t *testing.T) {
	client := newStubClient()
	service, err := New(&keyring.Keyring{}, client, big.NewInt(1), testDefinition())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = service.Transfer(context.Background(), TransferRequest{
		To:        common.HexToAddress("0x01"),
		AmountWei: big.NewInt(1),
	})
	if xerrors.CodeOf(err) != CodeNoSigner {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeNoSigner)
	}
	if len(client.sent) != 0 {
		t.Fatal("no transaction may be submitted without a signer")
	}
}

func TestTransferMissingReceipt(t *testing.T) {
	client := newStubClient()
	client.noReceipt = true
	service, ring := newTestService(t, client)
	from := ring.Default().Address()
	client.balances[from] = big.NewInt(1_000_000_000)

	_, err := service.Transfer(context.Background(), TransferRequest{
		To:        common.HexToAddress("0x01"),
		AmountWei: big.NewInt(1),
	})
	if xerrors.CodeOf(err) != CodeReceiptMissing {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeReceiptMissing)
	}
}

func TestSwapCurrencyForTokenBuildsRouterCall(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()
	token := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	amountIn := big.NewInt(1_000_000)
	client.balances[from] = big.NewInt(2_000_000)

	outcome, err := service.SwapCurrencyForToken(context.Background(), SwapRequest{
		Token:       token,
		AmountIn:    amountIn,
		ExpectedOut: big.NewInt(1_000_000),
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if outcome == nil || len(client.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(client.sent))
	}

	tx := client.sent[0]
	if tx.To() == nil || *tx.To() != common.HexToAddress(chain.UniswapV2RouterMainnet) {
		t.Fatalf("tx to = %v, want router", tx.To())
	}
	if tx.Value().Cmp(amountIn) != 0 {
		t.Fatalf("tx value = %s, want %s", tx.Value(), amountIn)
	}

	method := routerABI.Methods["swapExactETHForTokens"]
	data := tx.Data()
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		t.Fatal("calldata does not target swapExactETHForTokens")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	minOut := args[0].(*big.Int)
	if minOut.Cmp(big.NewInt(900_000)) != 0 {
		t.Fatalf("amountOutMin = %s, want 900000", minOut)
	}
	path := args[1].([]common.Address)
	if len(path) != 2 || path[0] != common.HexToAddress(chain.WETHMainnet) || path[1] != token {
		t.Fatalf("unexpected path: %v", path)
	}
	recipient := args[2].(common.Address)
	if recipient != from {
		t.Fatalf("recipient = %s, want %s", recipient.Hex(), from.Hex())
	}
}

func TestSwapTokenForCurrencyGuardsTokenBalance(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()
	token := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	// 代币余额只有 400，卖出 500 必须被拦截。
	client.callResult = encodeUint256(big.NewInt(400))
	client.balances[from] = big.NewInt(10_000_000)

	_, err := service.SwapTokenForCurrency(context.Background(), SwapRequest{
		Token:       token,
		AmountIn:    big.NewInt(500),
		ExpectedOut: big.NewInt(450),
	})
	if xerrors.CodeOf(err) != CodeInsufficientFunds {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeInsufficientFunds)
	}
	if len(client.sent) != 0 {
		t.Fatal("guard failure must not submit a transaction")
	}
}

func TestSwapTokenForCurrencySubmits(t *testing.T) {
	client := newStubClient()
	service, ring := newTestService(t, client)
	from := ring.Default().Address()
	token := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	amountIn := big.NewInt(500)
	client.callResult = encodeUint256(big.NewInt(10_000))
	client.balances[from] = big.NewInt(10_000_000)

	_, err := service.SwapTokenForCurrency(context.Background(), SwapRequest{
		Token:       token,
		AmountIn:    amountIn,
		ExpectedOut: big.NewInt(450),
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(client.sent))
	}

	tx := client.sent[0]
	if tx.Value().Sign() != 0 {
		t.Fatalf("token swap must not carry value, got %s", tx.Value())
	}
	method := routerABI.Methods["swapExactTokensForETH"]
	data := tx.Data()
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		t.Fatal("calldata does not target swapExactTokensForETH")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	if got := args[0].(*big.Int); got.Cmp(amountIn) != 0 {
		t.Fatalf("amountIn = %s, want %s", got, amountIn)
	}
	if got := args[1].(*big.Int); got.Cmp(big.NewInt(405)) != 0 {
		t.Fatalf("amountOutMin = %s, want 405", got)
	}
	path := args[2].([]common.Address)
	if len(path) != 2 || path[0] != token || path[1] != common.HexToAddress(chain.WETHMainnet) {
		t.Fatalf("unexpected path: %v", path)
	}
}

func TestSwapRejectsNonPositiveAmount(t *testing.T) {
	client := newStubClient()
	service, _ := newTestService(t, client)

	_, err := service.SwapCurrencyForToken(context.Background(), SwapRequest{
		Token:    common.HexToAddress("0x01"),
		AmountIn: big.NewInt(0),
	})
	if xerrors.CodeOf(err) != CodeParse {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeParse)
	}
}
