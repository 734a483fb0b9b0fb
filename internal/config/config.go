package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config 描述了 defimcp 在启动阶段需要加载的核心配置。
type Config struct {
	Server  ServerConfig  `json:"server"`
	Wallet  WalletConfig  `json:"wallet"`
	Web3    Web3Config    `json:"web3"`
	Swap    SwapConfig    `json:"swap"`
	Search  SearchConfig  `json:"search"`
	Quotes  QuoteConfig   `json:"quotes"`
	Journal JournalConfig `json:"journal"`
	Logging LoggingConfig `json:"logging"`
	Runtime RuntimeConfig `json:"runtime"`
}

// ServerConfig 控制 MCP 服务与运维接口的监听地址。
type ServerConfig struct {
	MCPAddress string `json:"mcp_address"`
	OpsAddress string `json:"ops_address"`
}

// WalletConfig 描述签名身份的派生方式。助记词优先从环境变量读取，
// 避免将种子写入配置文件。
type WalletConfig struct {
	Mnemonic    string `json:"mnemonic,omitempty"`
	MnemonicEnv string `json:"mnemonic_env"`
	Count       uint32 `json:"count"`
}

// Web3Config 包含访问区块链节点所需的 RPC 地址与链注册表。
type Web3Config struct {
	RPCURL       string `json:"rpc_url"`
	ChainConfig  string `json:"chain_config"`
	DefaultChain string `json:"default_chain"`
}

// SwapConfig 控制兑换计划的保护参数。
type SwapConfig struct {
	SlippagePercent uint   `json:"slippage_percent"`
	DeadlineSeconds uint   `json:"deadline_seconds"`
	GasUnitEstimate uint64 `json:"gas_unit_estimate"`
}

// SearchConfig 描述 Brave Search API 的访问方式。
type SearchConfig struct {
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url"`
}

// QuoteConfig 描述 0x 聚合器报价接口的访问方式。
type QuoteConfig struct {
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url"`
	ChainID   string `json:"chain_id"`
}

// JournalConfig 统一描述交易流水的存储与队列后端。
type JournalConfig struct {
	Store StoreConfig `json:"store"`
	Queue QueueConfig `json:"queue"`
}

// StoreConfig 目前提供内存实现，后续可以切换到真正的 MySQL。
type StoreConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// QueueConfig 描述流水事件队列的驱动选择。
type QueueConfig struct {
	Driver   string         `json:"driver"`
	Worker   int            `json:"worker"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig 描述 Redis 队列的连接参数。
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// RabbitMQConfig 描述 RabbitMQ 队列的连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// LoggingConfig 控制结构化日志与交易审计日志。
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	AuditPath   string   `json:"audit_path"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load 负责解析指定路径的 JSON 配置文件，并应用环境变量覆盖。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	cfg.applyEnvOverrides()

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.MCPAddress == "" {
		c.Server.MCPAddress = ":8080"
	}
	if c.Server.OpsAddress == "" {
		c.Server.OpsAddress = ":8081"
	}

	if c.Wallet.MnemonicEnv == "" {
		c.Wallet.MnemonicEnv = "WALLET_MNEMONIC"
	}
	if c.Wallet.Count == 0 {
		c.Wallet.Count = 10
	}

	if c.Swap.SlippagePercent == 0 {
		c.Swap.SlippagePercent = 10
	}
	if c.Swap.DeadlineSeconds == 0 {
		c.Swap.DeadlineSeconds = 300
	}
	if c.Swap.GasUnitEstimate == 0 {
		c.Swap.GasUnitEstimate = 200_000
	}

	if c.Search.APIKeyEnv == "" {
		c.Search.APIKeyEnv = "BRAVE_API_KEY"
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://api.search.brave.com/res/v1"
	}

	if c.Quotes.APIKeyEnv == "" {
		c.Quotes.APIKeyEnv = "ZERO_X_API_KEY"
	}
	if c.Quotes.BaseURL == "" {
		c.Quotes.BaseURL = "https://api.0x.org"
	}
	if c.Quotes.ChainID == "" {
		c.Quotes.ChainID = "1"
	}

	if c.Journal.Store.Driver == "" {
		c.Journal.Store.Driver = "memory"
	}
	if c.Journal.Queue.Driver == "" {
		c.Journal.Queue.Driver = "memory"
	}
	if c.Journal.Queue.Worker <= 0 {
		c.Journal.Queue.Worker = 2
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Web3.ChainConfig != "" && !filepath.IsAbs(c.Web3.ChainConfig) {
		c.Web3.ChainConfig = filepath.Join(baseDir, c.Web3.ChainConfig)
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}
}

// applyEnvOverrides 将原有部署沿用的环境变量覆盖到配置上，
// 保证 .env 中的密钥不需要重复写进 JSON 文件。
func (c *Config) applyEnvOverrides() {
	if rpc := strings.TrimSpace(os.Getenv("ETH_RPC")); rpc != "" {
		c.Web3.RPCURL = rpc
	}
	if addr := strings.TrimSpace(os.Getenv("MCP_SERVER_ADDRESS")); addr != "" {
		port := strings.TrimSpace(os.Getenv("MCP_SERVER_PORT"))
		if port != "" {
			c.Server.MCPAddress = addr + ":" + port
		} else {
			c.Server.MCPAddress = addr
		}
	}
	if c.Wallet.Mnemonic == "" && c.Wallet.MnemonicEnv != "" {
		c.Wallet.Mnemonic = strings.TrimSpace(os.Getenv(c.Wallet.MnemonicEnv))
	}
	if c.Search.APIKey == "" && c.Search.APIKeyEnv != "" {
		c.Search.APIKey = strings.TrimSpace(os.Getenv(c.Search.APIKeyEnv))
	}
	if c.Quotes.APIKey == "" && c.Quotes.APIKeyEnv != "" {
		c.Quotes.APIKey = strings.TrimSpace(os.Getenv(c.Quotes.APIKeyEnv))
	}
}
