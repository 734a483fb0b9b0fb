package chain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WETHMainnet is the canonical wrapped-ether contract on Ethereum mainnet,
// used as the default wrapped-native address when a chain definition omits
// one.
const WETHMainnet = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

// UniswapV2RouterMainnet is the Uniswap V2 Router02 deployment on mainnet.
const UniswapV2RouterMainnet = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"

// Definitions models the structure of configs/chains.yaml.
type Definitions struct {
	Chains map[string]Definition `yaml:"chains"`
}

// Definition describes a single chain endpoint along with the addresses the
// swap executor needs on that chain.
type Definition struct {
	Type          string `yaml:"type"`
	RPCURL        string `yaml:"rpc_url"`
	WrappedNative string `yaml:"wrapped_native"`
	Router        string `yaml:"router"`
	Description   string `yaml:"description"`
}

// LoadDefinitions parses the YAML file containing chain metadata.
func LoadDefinitions(path string) (Definitions, error) {
	if strings.TrimSpace(path) == "" {
		return Definitions{Chains: map[string]Definition{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("读取链配置失败: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return Definitions{}, fmt.Errorf("解析链配置失败: %w", err)
	}
	if defs.Chains == nil {
		defs.Chains = map[string]Definition{}
	}
	for name, def := range defs.Chains {
		if def.WrappedNative == "" {
			def.WrappedNative = WETHMainnet
		}
		if def.Router == "" {
			def.Router = UniswapV2RouterMainnet
		}
		defs.Chains[name] = def
	}
	return defs, nil
}
