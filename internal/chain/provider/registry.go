package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"OpenMCP-DeFi/internal/chain"
	"OpenMCP-DeFi/internal/chain/ethereum"
	"OpenMCP-DeFi/internal/config"
)

// Registry manages chain clients and their swap metadata keyed by human
// readable names.
type Registry struct {
	defaultChain string
	clients      map[string]chain.Client
	definitions  map[string]chain.Definition
}

// NewRegistry loads chain definitions and instantiates concrete clients.
func NewRegistry(ctx context.Context, cfg config.Web3Config) (*Registry, error) {
	defs, err := chain.LoadDefinitions(cfg.ChainConfig)
	if err != nil {
		return nil, err
	}

	clients := make(map[string]chain.Client)
	definitions := make(map[string]chain.Definition)
	for name, def := range defs.Chains {
		chainType := strings.ToLower(strings.TrimSpace(def.Type))
		if chainType == "" {
			chainType = "evm"
		}
		switch chainType {
		case "evm", "ethereum":
			client, err := ethereum.NewClient(ctx, ethereum.Config{
				Name:   name,
				RPCURL: def.RPCURL,
				Notes:  def.Description,
			})
			if err != nil {
				return nil, fmt.Errorf("初始化链 %s 失败: %w", name, err)
			}
			clients[name] = client
			definitions[name] = def
		default:
			return nil, fmt.Errorf("链 %s 使用了不支持的类型 %s", name, def.Type)
		}
	}

	defaultChain := cfg.DefaultChain
	if len(clients) == 0 && strings.TrimSpace(cfg.RPCURL) != "" {
		client, err := ethereum.NewClient(ctx, ethereum.Config{Name: "default", RPCURL: cfg.RPCURL})
		if err != nil {
			return nil, err
		}
		clients["default"] = client
		definitions["default"] = chain.Definition{
			RPCURL:        cfg.RPCURL,
			WrappedNative: chain.WETHMainnet,
			Router:        chain.UniswapV2RouterMainnet,
		}
		if defaultChain == "" {
			defaultChain = "default"
		}
	}

	if len(clients) == 0 {
		return nil, errors.New("未配置任何链的 RPC 端点")
	}

	if defaultChain == "" {
		names := make([]string, 0, len(clients))
		for name := range clients {
			names = append(names, name)
		}
		sort.Strings(names)
		defaultChain = names[0]
	}
	if _, ok := clients[defaultChain]; !ok {
		return nil, fmt.Errorf("默认链 %s 未在配置中找到", defaultChain)
	}

	return &Registry{
		defaultChain: defaultChain,
		clients:      clients,
		definitions:  definitions,
	}, nil
}

// DefaultClient returns the client configured as the default chain.
func (r *Registry) DefaultClient() (chain.Client, error) {
	if r == nil {
		return nil, errors.New("未初始化的链客户端注册表")
	}
	client, ok := r.clients[r.defaultChain]
	if !ok {
		return nil, fmt.Errorf("默认链 %s 未在注册表中", r.defaultChain)
	}
	return client, nil
}

// DefaultDefinition returns the swap metadata of the default chain.
func (r *Registry) DefaultDefinition() (chain.Definition, error) {
	if r == nil {
		return chain.Definition{}, errors.New("未初始化的链客户端注册表")
	}
	def, ok := r.definitions[r.defaultChain]
	if !ok {
		return chain.Definition{}, fmt.Errorf("默认链 %s 未在注册表中", r.defaultChain)
	}
	return def, nil
}

// Client returns the chain client identified by name.
func (r *Registry) Client(name string) (chain.Client, bool) {
	if r == nil {
		return nil, false
	}
	client, ok := r.clients[name]
	return client, ok
}

// Close releases all clients managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for name, client := range r.clients {
		if client != nil {
			client.Close()
		}
		delete(r.clients, name)
	}
}

// Chains returns the list of registered chain names.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
