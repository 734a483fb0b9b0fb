// Package exchange implements the trading core: native transfers and
// Uniswap V2 style swaps between the native currency and ERC-20 tokens.
// Every trade goes through the same pipeline: plan the slippage-adjusted
// parameters, check the account balance against amount plus worst-case
// gas, sign with the keyring, submit once and wait for the receipt.
// Failed trades are never retried; the error is reported to the caller
// exactly as it occurred.
package exchange
