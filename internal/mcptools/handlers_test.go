package mcptools

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"OpenMCP-DeFi/internal/chain"
	"OpenMCP-DeFi/internal/exchange"
	"OpenMCP-DeFi/internal/keyring"
	"OpenMCP-DeFi/internal/search"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeChain 为处理器测试提供固定的链上状态。
type fakeChain struct {
	balance *big.Int
	code    []byte
	sent    []*coretypes.Transaction
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (f *fakeChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}
func (f *fakeChain) CodeAt(context.Context, common.Address) ([]byte, error) { return f.code, nil }
func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error)      { return big.NewInt(1), nil }
func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}
func (f *fakeChain) EstimateGas(context.Context, gethcore.CallMsg) (uint64, error) {
	return 100_000, nil
}
func (f *fakeChain) CallContract(context.Context, gethcore.CallMsg) ([]byte, error) {
	return common.LeftPadBytes(big.NewInt(0).Bytes(), 32), nil
}
func (f *fakeChain) SendTransaction(_ context.Context, tx *coretypes.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}
func (f *fakeChain) WaitReceipt(_ context.Context, txHash common.Hash) (*coretypes.Receipt, error) {
	return &coretypes.Receipt{TxHash: txHash, GasUsed: 21_000, BlockNumber: big.NewInt(1)}, nil
}
func (f *fakeChain) Close() {}

var _ chain.Client = (*fakeChain)(nil)

func newTestDeps(t *testing.T, client chain.Client) Deps {
	t.Helper()
	ring, err := keyring.FromMnemonic(keyring.DefaultMnemonic, 2)
	if err != nil {
		t.Fatalf("build keyring: %v", err)
	}
	service, err := exchange.New(ring, client, big.NewInt(1), chain.Definition{
		WrappedNative: chain.WETHMainnet,
		Router:        chain.UniswapV2RouterMainnet,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return Deps{Exchange: service}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestHandleGetBalance(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(42_000)})

	result, err := deps.handleGetBalance(context.Background(),
		callRequest("get_balance", map[string]any{"address": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "42000 wei") {
		t.Fatalf("unexpected text: %s", resultText(t, result))
	}
}

func TestHandleGetBalanceRejectsBadAddress(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(1)})

	result, err := deps.handleGetBalance(context.Background(),
		callRequest("get_balance", map[string]any{"address": "not-an-address"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for invalid address")
	}
}

func TestHandleGetContract(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(0), code: []byte{0x60, 0x60}})

	result, err := deps.handleGetContract(context.Background(),
		callRequest("get_contract", map[string]any{"address": "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "2 bytes of code") {
		t.Fatalf("unexpected text: %s", resultText(t, result))
	}
}

func TestHandleTransfer(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(1_000_000)})

	result, err := deps.handleTransfer(context.Background(), callRequest("transfer", map[string]any{
		"to":         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"amount_wei": "1000",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Transaction successful!") {
		t.Fatalf("unexpected text: %s", resultText(t, result))
	}
}

func TestHandleTransferAcceptsEtherAmount(t *testing.T) {
	chainStub := &fakeChain{balance: big.NewInt(1_000_000)}
	deps := newTestDeps(t, chainStub)

	result, err := deps.handleTransfer(context.Background(), callRequest("transfer", map[string]any{
		"to":           "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"amount_ether": "0.000000000000001",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if len(chainStub.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(chainStub.sent))
	}
	if got := chainStub.sent[0].Value(); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("tx value = %s, want 1000 wei", got)
	}
}

func TestHandleTransferRejectsAmbiguousAmount(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(1_000_000)})

	result, err := deps.handleTransfer(context.Background(), callRequest("transfer", map[string]any{
		"to":           "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"amount_wei":   "1000",
		"amount_ether": "1",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when both amount forms are given")
	}

	result, err = deps.handleTransfer(context.Background(), callRequest("transfer", map[string]any{
		"to": "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when no amount is given")
	}
}

func TestHandleTransferSurfacesGuardError(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(10)})

	result, err := deps.handleTransfer(context.Background(), callRequest("transfer", map[string]any{
		"to":         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"amount_wei": "1000",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when the balance guard trips")
	}
	if !strings.Contains(resultText(t, result), "余额不足") {
		t.Fatalf("unexpected text: %s", resultText(t, result))
	}
}

func TestHandleSwapHonorsRouterOverride(t *testing.T) {
	chainStub := &fakeChain{balance: big.NewInt(1_000_000_000)}
	deps := newTestDeps(t, chainStub)
	router := "0x10ED43C718714eb63d5aA57B78B54704E256024E"

	result, err := deps.handleSwapETHForTokens(context.Background(), callRequest("swap_eth_for_tokens", map[string]any{
		"token":            "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"amount_in_wei":    "1000",
		"expected_out_wei": "900",
		"router":           router,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if len(chainStub.sent) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(chainStub.sent))
	}
	tx := chainStub.sent[0]
	if tx.To() == nil || *tx.To() != common.HexToAddress(router) {
		t.Fatalf("tx to = %v, want override router %s", tx.To(), router)
	}
}

func TestHandleSwapRejectsBadRouter(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(1_000_000_000)})

	result, err := deps.handleSwapETHForTokens(context.Background(), callRequest("swap_eth_for_tokens", map[string]any{
		"token":         "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"amount_in_wei": "1000",
		"router":        "not-a-router",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for invalid router address")
	}
}

func TestHandleWebSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
	}))
	defer server.Close()

	client, err := search.NewClient(search.Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new search client: %v", err)
	}
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(0)})
	deps.Search = client

	result, err := deps.handleWebSearch(context.Background(),
		callRequest("web_search", map[string]any{"query": "uniswap"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "results") {
		t.Fatalf("unexpected text: %s", resultText(t, result))
	}
}

func TestHandleWebSearchUnconfigured(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(0)})

	result, err := deps.handleWebSearch(context.Background(),
		callRequest("web_search", map[string]any{"query": "uniswap"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when search is not configured")
	}
}

func TestHandleGetQuoteUnconfigured(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(0)})

	result, err := deps.handleGetQuote(context.Background(), callRequest("get_quote", map[string]any{
		"sell_token":  "ETH",
		"buy_token":   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"sell_amount": "1000",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when quotes are not configured")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	deps := newTestDeps(t, &fakeChain{balance: big.NewInt(0)})
	srv, err := NewServer(deps)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv == nil {
		t.Fatal("expected server instance")
	}
}
