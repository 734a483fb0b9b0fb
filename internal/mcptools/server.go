// Package mcptools wires the trading core into an MCP server so agent
// frameworks can drive it over SSE.
package mcptools

import (
	"context"
	"errors"
	"log/slog"

	xerrors "OpenMCP-DeFi/internal/errors"
	"OpenMCP-DeFi/pkg/logger"

	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "defimcp"
	serverVersion = "0.1.0"
)

// NewServer 构造注册了全部交易工具的 MCP 服务。
func NewServer(deps Deps) (*server.MCPServer, error) {
	if deps.Exchange == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置交易服务")
	}

	srv := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(ToolGetBalance, deps.handleGetBalance)
	srv.AddTool(ToolTransfer, deps.handleTransfer)
	srv.AddTool(ToolGetContract, deps.handleGetContract)
	srv.AddTool(ToolGetERC20Balance, deps.handleGetERC20Balance)
	srv.AddTool(ToolWebSearch, deps.handleWebSearch)
	srv.AddTool(ToolGetQuote, deps.handleGetQuote)
	srv.AddTool(ToolSwapETHForTokens, deps.handleSwapETHForTokens)
	srv.AddTool(ToolSwapTokensForETH, deps.handleSwapTokensForETH)
	return srv, nil
}

// Serve 通过 SSE 暴露 MCP 服务，阻塞直到上下文取消。
func Serve(ctx context.Context, addr string, deps Deps) error {
	srv, err := NewServer(deps)
	if err != nil {
		return err
	}

	sse := server.NewSSEServer(srv)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := sse.Start(addr); err != nil {
			errCh <- err
		}
	}()
	logger.L().Info("MCP 服务已启动", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		_ = sse.Shutdown(context.Background())
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
