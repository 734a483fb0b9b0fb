package mcptools

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the trading MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetBalance = mcp.NewTool("get_balance",
	mcp.WithDescription(
		"Get the native currency balance of an address in wei. "+
			"Works for any address, not just wallets managed by this server."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The address to query (e.g. '0x1234...')")),
)

var ToolTransfer = mcp.NewTool("transfer",
	mcp.WithDescription(
		"Send native currency from a managed wallet and wait for the transaction to be mined. "+
			"Provide exactly one of amount_wei or amount_ether. "+
			"The balance must cover the amount plus gas or the transfer is rejected before submission."),
	mcp.WithString("to",
		mcp.Required(),
		mcp.Description("Recipient address (e.g. '0x1234...')")),
	mcp.WithString("amount_wei",
		mcp.Description("Amount to send in wei, as a decimal integer string")),
	mcp.WithString("amount_ether",
		mcp.Description("Amount to send in ether, as a decimal string with up to 18 fractional digits (e.g. '0.5')")),
	mcp.WithString("from",
		mcp.Description("Sending wallet address. Omit to use the default wallet.")),
)

var ToolGetContract = mcp.NewTool("get_contract",
	mcp.WithDescription(
		"Check whether a contract is deployed at an address and report its bytecode size. "+
			"An empty result means the address is externally owned."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The address to inspect (e.g. '0x1234...')")),
)

var ToolGetERC20Balance = mcp.NewTool("get_erc20_balance",
	mcp.WithDescription(
		"Get an ERC-20 token balance of an address, in the token's base units."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("The token contract address")),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("The holder address to query")),
)

var ToolWebSearch = mcp.NewTool("web_search",
	mcp.WithDescription(
		"Search the web via Brave and return the raw JSON results. "+
			"Use this to research tokens, protocols or market context before trading."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Free-text search query")),
	mcp.WithNumber("count",
		mcp.Description("Number of results to return (default 10)")),
)

var ToolGetQuote = mcp.NewTool("get_quote",
	mcp.WithDescription(
		"Get an indicative swap price from the 0x aggregator. "+
			"Pass 'ETH' for the native currency side. "+
			"Use the returned buyAmount as expected_out_wei when calling the swap tools."),
	mcp.WithString("sell_token",
		mcp.Required(),
		mcp.Description("Token address to sell, or 'ETH' for the native currency")),
	mcp.WithString("buy_token",
		mcp.Required(),
		mcp.Description("Token address to buy, or 'ETH' for the native currency")),
	mcp.WithString("sell_amount",
		mcp.Required(),
		mcp.Description("Amount to sell in the token's base units, as a decimal integer string")),
)

var ToolSwapETHForTokens = mcp.NewTool("swap_eth_for_tokens",
	mcp.WithDescription(
		"Swap native currency for an ERC-20 token on the Uniswap V2 router and wait for the receipt. "+
			"Provide expected_out_wei from get_quote to enable slippage protection; "+
			"without it the swap runs unprotected."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("The token contract address to buy")),
	mcp.WithString("amount_in_wei",
		mcp.Required(),
		mcp.Description("Native currency amount to sell in wei")),
	mcp.WithString("expected_out_wei",
		mcp.Description("Expected token output from a quote, used to derive the slippage floor")),
	mcp.WithString("from",
		mcp.Description("Wallet address to trade from. Omit to use the default wallet.")),
	mcp.WithString("router",
		mcp.Description("Uniswap V2 router contract address. Omit to use the chain's default router.")),
)

var ToolSwapTokensForETH = mcp.NewTool("swap_tokens_for_eth",
	mcp.WithDescription(
		"Swap an ERC-20 token back to native currency on the Uniswap V2 router and wait for the receipt. "+
			"The router must already have an allowance for the input amount. "+
			"Provide expected_out_wei from get_quote to enable slippage protection."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("The token contract address to sell")),
	mcp.WithString("amount_in_wei",
		mcp.Required(),
		mcp.Description("Token amount to sell in the token's base units")),
	mcp.WithString("expected_out_wei",
		mcp.Description("Expected native output from a quote, used to derive the slippage floor")),
	mcp.WithString("from",
		mcp.Description("Wallet address to trade from. Omit to use the default wallet.")),
	mcp.WithString("router",
		mcp.Description("Uniswap V2 router contract address. Omit to use the chain's default router.")),
)
