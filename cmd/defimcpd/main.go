package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"OpenMCP-DeFi/internal/api"
	"OpenMCP-DeFi/internal/chain/provider"
	"OpenMCP-DeFi/internal/config"
	"OpenMCP-DeFi/internal/exchange"
	"OpenMCP-DeFi/internal/journal"
	"OpenMCP-DeFi/internal/keyring"
	"OpenMCP-DeFi/internal/mcptools"
	"OpenMCP-DeFi/internal/observability/alerting"
	"OpenMCP-DeFi/internal/quote"
	"OpenMCP-DeFi/internal/search"
	"OpenMCP-DeFi/pkg/logger"

	"github.com/joho/godotenv"
)

// main 是 defimcp 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("defimcpd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	// .env 不存在时静默跳过，保持与容器环境一致。
	_ = godotenv.Load()

	configPath := os.Getenv("DEFIMCP_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "defimcp.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled: cfg.Logging.AuditPath != "",
			Path:    cfg.Logging.AuditPath,
		},
	}); err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return err
	}

	ring, err := buildKeyring(cfg)
	if err != nil {
		return err
	}
	logger.L().Info("钱包已派生",
		slog.Int("count", ring.Len()),
		slog.String("default", ring.Default().Address().Hex()),
	)

	chainRegistry, err := provider.NewRegistry(ctx, cfg.Web3)
	if err != nil {
		return err
	}
	defer chainRegistry.Close()

	chainClient, err := chainRegistry.DefaultClient()
	if err != nil {
		return err
	}
	chainDef, err := chainRegistry.DefaultDefinition()
	if err != nil {
		return err
	}
	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return err
	}

	journalStore, err := buildJournalStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = journalStore.Close()
	}()

	journalQueue, err := buildJournalQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := journalQueue.Close(); err != nil {
			logger.L().Warn("关闭流水队列失败", slog.Any("error", err))
		}
	}()

	recorder := journal.NewRecorder(journalStore, journalQueue)
	processor := journal.NewProcessor(journalStore, journalQueue,
		journal.WithWorkerCount(cfg.Journal.Queue.Worker),
		journal.WithAlertDispatcher(alerting.NewFanout(&alerting.LogNotifier{})),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()
	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("流水处理器异常退出", slog.Any("error", err))
		}
	}()

	exchangeService, err := exchange.New(ring, chainClient, chainID, chainDef,
		exchange.WithSlippagePercent(cfg.Swap.SlippagePercent),
		exchange.WithDeadlineWindow(time.Duration(cfg.Swap.DeadlineSeconds)*time.Second),
		exchange.WithGasUnitEstimate(cfg.Swap.GasUnitEstimate),
		exchange.WithJournal(recorder),
		exchange.WithChainName(cfg.Web3.DefaultChain),
	)
	if err != nil {
		return err
	}

	deps := mcptools.Deps{Exchange: exchangeService}
	if strings.TrimSpace(cfg.Quotes.APIKey) != "" {
		quoteClient, err := quote.NewClient(quote.Config{
			APIKey:  cfg.Quotes.APIKey,
			BaseURL: cfg.Quotes.BaseURL,
			ChainID: cfg.Quotes.ChainID,
		})
		if err != nil {
			return err
		}
		deps.Quotes = quoteClient
	} else {
		logger.L().Warn("未配置 0x API key，询价工具不可用")
	}
	if strings.TrimSpace(cfg.Search.APIKey) != "" {
		searchClient, err := search.NewClient(search.Config{
			APIKey:  cfg.Search.APIKey,
			BaseURL: cfg.Search.BaseURL,
		})
		if err != nil {
			return err
		}
		deps.Search = searchClient
	} else {
		logger.L().Warn("未配置 Brave API key，搜索工具不可用")
	}

	opsServer := api.NewServer(cfg.Server.OpsAddress, journalStore, ring.Addresses())
	go func() {
		if err := opsServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("运维接口异常退出", slog.Any("error", err))
		}
	}()

	return mcptools.Serve(ctx, cfg.Server.MCPAddress, deps)
}

func buildKeyring(cfg *config.Config) (*keyring.Keyring, error) {
	mnemonic := strings.TrimSpace(cfg.Wallet.Mnemonic)
	if mnemonic == "" {
		logger.L().Warn("未配置助记词，使用本地开发链默认助记词")
		return keyring.New()
	}
	return keyring.FromMnemonic(mnemonic, cfg.Wallet.Count)
}

func buildJournalStore(cfg *config.Config) (journal.Store, error) {
	switch cfg.Journal.Store.Driver {
	case "", "memory":
		return journal.NewMemoryStore(), nil
	case "mysql":
		return journal.NewMySQLStore(cfg.Journal.Store.DSN)
	default:
		return nil, fmt.Errorf("未知的流水存储驱动: %s", cfg.Journal.Store.Driver)
	}
}

func buildJournalQueue(cfg *config.Config) (journal.Queue, error) {
	switch cfg.Journal.Queue.Driver {
	case "", "memory":
		return journal.NewMemoryQueue(1024), nil
	case "redis":
		return journal.NewRedisQueue(journal.RedisQueueConfig{
			Address:   cfg.Journal.Queue.Redis.Address,
			Password:  cfg.Journal.Queue.Redis.Password,
			DB:        cfg.Journal.Queue.Redis.DB,
			Queue:     cfg.Journal.Queue.Redis.Queue,
			BlockWait: time.Duration(cfg.Journal.Queue.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return journal.NewRabbitMQQueue(journal.RabbitMQConfig{
			URL:        cfg.Journal.Queue.RabbitMQ.URL,
			Queue:      cfg.Journal.Queue.RabbitMQ.Queue,
			Prefetch:   cfg.Journal.Queue.RabbitMQ.Prefetch,
			Durable:    cfg.Journal.Queue.RabbitMQ.Durable,
			AutoDelete: cfg.Journal.Queue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的流水队列驱动: %s", cfg.Journal.Queue.Driver)
	}
}
