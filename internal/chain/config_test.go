package chain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefinitionsAppliesMainnetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := []byte(`chains:
  anvil:
    type: ethereum
    rpc_url: http://127.0.0.1:8545
  polygon:
    type: ethereum
    rpc_url: https://polygon-rpc.com
    wrapped_native: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"
    router: "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	defs, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}

	anvil, ok := defs.Chains["anvil"]
	if !ok {
		t.Fatal("missing anvil definition")
	}
	if anvil.WrappedNative != WETHMainnet {
		t.Fatalf("expected mainnet WETH default, got %s", anvil.WrappedNative)
	}
	if anvil.Router != UniswapV2RouterMainnet {
		t.Fatalf("expected mainnet router default, got %s", anvil.Router)
	}

	polygon := defs.Chains["polygon"]
	if polygon.WrappedNative != "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270" {
		t.Fatalf("explicit wrapped_native overridden: %s", polygon.WrappedNative)
	}
}

func TestLoadDefinitionsEmptyPath(t *testing.T) {
	defs, err := LoadDefinitions("")
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	if len(defs.Chains) != 0 {
		t.Fatalf("expected empty registry, got %d chains", len(defs.Chains))
	}
}
