// Package quote fetches indicative swap prices from the 0x API. The raw
// response is preserved for agent-facing output while the buy amount is
// parsed out so the swap planner can derive a slippage floor from it.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
)

const (
	// DefaultBaseURL 是 0x API 的默认入口。
	DefaultBaseURL = "https://api.0x.org"
	// ETHSentinel 是 0x 用来表示原生 ETH 的占位地址。
	ETHSentinel = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	// DefaultChainID 默认查询以太坊主网。
	DefaultChainID = "1"

	defaultTimeout = 15 * time.Second
)

const CodeQuoteUnavailable xerrors.Code = "QUOTE_UNAVAILABLE"

func init() {
	xerrors.Register(CodeQuoteUnavailable, xerrors.Attributes{
		Message:   "quote provider unavailable",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
}

// Config 描述 0x 客户端的连接参数。
type Config struct {
	APIKey  string
	BaseURL string
	ChainID string
	Timeout time.Duration
}

// Client 调用 0x 的 permit2 价格接口。
type Client struct {
	apiKey  string
	baseURL string
	chainID string
	httpc   *http.Client
}

// NewClient 构造 0x 客户端。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置 0x API key")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	chainID := cfg.ChainID
	if chainID == "" {
		chainID = DefaultChainID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		chainID: chainID,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Price 保存一次询价结果。
type Price struct {
	// Raw 是 0x 返回的原始 JSON。
	Raw json.RawMessage
	// BuyAmount 是解析出的预期买入数量，解析失败时为 nil。
	BuyAmount *big.Int
}

// NormalizeAsset 把 "ETH" 归一化为 0x 的原生币占位地址，其余原样返回。
func NormalizeAsset(asset string) string {
	if strings.EqualFold(strings.TrimSpace(asset), "ETH") {
		return ETHSentinel
	}
	return strings.TrimSpace(asset)
}

// Price 查询 sellAmount 数量的 sellToken 能换多少 buyToken。
func (c *Client) Price(ctx context.Context, sellToken, buyToken string, sellAmount *big.Int) (*Price, error) {
	if sellAmount == nil || sellAmount.Sign() <= 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "询价数量必须为正数")
	}

	query := url.Values{}
	query.Set("chainId", c.chainID)
	query.Set("sellToken", NormalizeAsset(sellToken))
	query.Set("buyToken", NormalizeAsset(buyToken))
	query.Set("sellAmount", sellAmount.String())

	endpoint := fmt.Sprintf("%s/swap/permit2/price?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, xerrors.Wrap(CodeQuoteUnavailable, err, "构造询价请求失败")
	}
	req.Header.Set("0x-api-key", c.apiKey)
	req.Header.Set("0x-version", "v2")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(CodeQuoteUnavailable, err, "请求 0x 失败")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, xerrors.Wrap(CodeQuoteUnavailable, err, "读取 0x 响应失败")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.New(CodeQuoteUnavailable,
			fmt.Sprintf("0x 返回状态 %d: %s", resp.StatusCode, truncate(string(body), 256)))
	}

	price := &Price{Raw: json.RawMessage(body)}
	var parsed struct {
		BuyAmount string `json:"buyAmount"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.BuyAmount != "" {
		if amount, ok := new(big.Int).SetString(parsed.BuyAmount, 10); ok {
			price.BuyAmount = amount
		}
	}
	return price, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
