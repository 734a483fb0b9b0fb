// Package search wraps the Brave web search API for the research tool.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
)

const (
	// DefaultBaseURL 是 Brave 搜索 API 的默认入口。
	DefaultBaseURL = "https://api.search.brave.com/res/v1"
	// DefaultCount 是单次搜索返回的结果条数。
	DefaultCount = 10

	defaultTimeout = 15 * time.Second
)

const CodeSearchFailure xerrors.Code = "SEARCH_FAILED"

func init() {
	xerrors.Register(CodeSearchFailure, xerrors.Attributes{
		Message:   "web search failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
}

// Config 描述 Brave 客户端的连接参数。
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client 调用 Brave 的 web 搜索接口。
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient 构造 Brave 客户端。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置 Brave API key")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Search 执行一次 web 搜索并返回原始 JSON 响应。count 不为正时使用默认值。
func (c *Client) Search(ctx context.Context, query string, count int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "搜索关键词不能为空")
	}
	if count <= 0 {
		count = DefaultCount
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	endpoint := fmt.Sprintf("%s/web/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", xerrors.Wrap(CodeSearchFailure, err, "构造搜索请求失败")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", xerrors.Wrap(CodeSearchFailure, err, "请求 Brave 失败")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", xerrors.Wrap(CodeSearchFailure, err, "读取 Brave 响应失败")
	}
	if resp.StatusCode != http.StatusOK {
		return "", xerrors.New(CodeSearchFailure,
			fmt.Sprintf("Brave 返回状态 %d", resp.StatusCode))
	}
	return string(body), nil
}
