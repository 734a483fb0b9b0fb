package mcptools

import (
	"context"
	"fmt"
	"math/big"

	"OpenMCP-DeFi/internal/exchange"
	"OpenMCP-DeFi/internal/quote"
	"OpenMCP-DeFi/internal/search"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
)

// Deps 汇集工具处理器需要的后端能力。Quotes 与 Search 可以为 nil，
// 对应的工具会提示未配置而不是注册失败。
type Deps struct {
	Exchange *exchange.Service
	Quotes   *quote.Client
	Search   *search.Client
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// optionalAddress 把空字符串当成零地址（表示默认钱包）。
func optionalAddress(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, nil
	}
	return parseAddress(raw)
}

func (d Deps) handleGetBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	address, err := parseAddress(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	balance, err := d.Exchange.GetBalance(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Balance of %s: %s wei", address.Hex(), balance.String())), nil
}

func (d Deps) handleTransfer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawTo, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := parseAddress(rawTo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := transferAmount(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := optionalAddress(req.GetString("from", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := d.Exchange.Transfer(ctx, exchange.TransferRequest{
		From:      from,
		To:        to,
		AmountWei: amount,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(outcome.Summary()), nil
}

// transferAmount 要求 amount_wei 与 amount_ether 恰好给出一个。
func transferAmount(req mcp.CallToolRequest) (*big.Int, error) {
	rawWei := req.GetString("amount_wei", "")
	rawEther := req.GetString("amount_ether", "")
	switch {
	case rawWei != "" && rawEther != "":
		return nil, fmt.Errorf("provide only one of amount_wei and amount_ether")
	case rawWei != "":
		return exchange.ParseWei(rawWei)
	case rawEther != "":
		return exchange.ParseEther(rawEther)
	default:
		return nil, fmt.Errorf("one of amount_wei or amount_ether is required")
	}
}

func (d Deps) handleGetContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	address, err := parseAddress(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	code, err := d.Exchange.GetCode(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(code) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No contract deployed at %s", address.Hex())), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Contract deployed at %s: %d bytes of code", address.Hex(), len(code))), nil
}

func (d Deps) handleGetERC20Balance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawToken, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token, err := parseAddress(rawToken)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawHolder, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	holder, err := parseAddress(rawHolder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	balance, err := d.Exchange.ERC20Balance(ctx, token, holder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Token %s balance of %s: %s", token.Hex(), holder.Hex(), balance.String())), nil
}

func (d Deps) handleWebSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if d.Search == nil {
		return mcp.NewToolResultError("web search is not configured on this server"), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := req.GetInt("count", search.DefaultCount)

	body, err := d.Search.Search(ctx, query, count)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (d Deps) handleGetQuote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if d.Quotes == nil {
		return mcp.NewToolResultError("quotes are not configured on this server"), nil
	}
	sellToken, err := req.RequireString("sell_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	buyToken, err := req.RequireString("buy_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawAmount, err := req.RequireString("sell_amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sellAmount, err := exchange.ParseWei(rawAmount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	price, err := d.Quotes.Price(ctx, sellToken, buyToken, sellAmount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(price.Raw)), nil
}

func (d Deps) swapRequest(req mcp.CallToolRequest) (exchange.SwapRequest, error) {
	rawToken, err := req.RequireString("token")
	if err != nil {
		return exchange.SwapRequest{}, err
	}
	token, err := parseAddress(rawToken)
	if err != nil {
		return exchange.SwapRequest{}, err
	}
	rawAmount, err := req.RequireString("amount_in_wei")
	if err != nil {
		return exchange.SwapRequest{}, err
	}
	amountIn, err := exchange.ParseWei(rawAmount)
	if err != nil {
		return exchange.SwapRequest{}, err
	}

	var expectedOut *big.Int
	if raw := req.GetString("expected_out_wei", ""); raw != "" {
		expectedOut, err = exchange.ParseWei(raw)
		if err != nil {
			return exchange.SwapRequest{}, err
		}
	}
	from, err := optionalAddress(req.GetString("from", ""))
	if err != nil {
		return exchange.SwapRequest{}, err
	}
	router, err := optionalAddress(req.GetString("router", ""))
	if err != nil {
		return exchange.SwapRequest{}, err
	}

	return exchange.SwapRequest{
		From:        from,
		Token:       token,
		Router:      router,
		AmountIn:    amountIn,
		ExpectedOut: expectedOut,
	}, nil
}

func (d Deps) handleSwapETHForTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	swapReq, err := d.swapRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := d.Exchange.SwapCurrencyForToken(ctx, swapReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(outcome.Summary()), nil
}

func (d Deps) handleSwapTokensForETH(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	swapReq, err := d.swapRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := d.Exchange.SwapTokenForCurrency(ctx, swapReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(outcome.Summary()), nil
}
