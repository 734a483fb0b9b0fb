package keyring

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// Anvil 默认助记词在索引 0 处派生出的地址是固定的，可以作为回归基准。
const anvilFirstAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestFromMnemonicDerivesDistinctIdentities(t *testing.T) {
	t.Parallel()

	ring, err := New()
	if err != nil {
		t.Fatalf("derive keyring: %v", err)
	}
	if ring.Len() != int(DefaultCount) {
		t.Fatalf("expected %d identities, got %d", DefaultCount, ring.Len())
	}

	seen := make(map[common.Address]struct{})
	for _, addr := range ring.Addresses() {
		if _, dup := seen[addr]; dup {
			t.Fatalf("duplicate derived address %s", addr.Hex())
		}
		seen[addr] = struct{}{}
	}
}

func TestDefaultIdentityIsIndexZero(t *testing.T) {
	t.Parallel()

	ring, err := New()
	if err != nil {
		t.Fatalf("derive keyring: %v", err)
	}
	def := ring.Default()
	if def == nil {
		t.Fatal("expected default identity")
	}
	if def.Address() != common.HexToAddress(anvilFirstAddress) {
		t.Fatalf("unexpected default address %s", def.Address().Hex())
	}
	if def.DerivationPath() != "m/44'/60'/0'/0/0" {
		t.Fatalf("unexpected derivation path %s", def.DerivationPath())
	}
}

func TestLookupKnownAndUnknown(t *testing.T) {
	t.Parallel()

	ring, err := FromMnemonic(DefaultMnemonic, 3)
	if err != nil {
		t.Fatalf("derive keyring: %v", err)
	}
	for _, addr := range ring.Addresses() {
		if _, ok := ring.Lookup(addr); !ok {
			t.Fatalf("expected identity for %s", addr.Hex())
		}
	}
	if _, ok := ring.Lookup(common.HexToAddress("0xdead")); ok {
		t.Fatal("did not expect identity for unknown address")
	}
}

func TestSignTxRecoversSender(t *testing.T) {
	t.Parallel()

	ring, err := FromMnemonic(DefaultMnemonic, 2)
	if err != nil {
		t.Fatalf("derive keyring: %v", err)
	}
	chainID := big.NewInt(31337)
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")

	for _, addr := range ring.Addresses() {
		identity, _ := ring.Lookup(addr)
		tx := coretypes.NewTx(&coretypes.LegacyTx{
			Nonce:    0,
			To:       &to,
			Value:    big.NewInt(1),
			Gas:      21_000,
			GasPrice: big.NewInt(1_000_000_000),
		})
		signed, err := identity.SignTx(tx, chainID)
		if err != nil {
			t.Fatalf("sign tx: %v", err)
		}
		sender, err := coretypes.Sender(coretypes.LatestSignerForChainID(chainID), signed)
		if err != nil {
			t.Fatalf("recover sender: %v", err)
		}
		if sender != addr {
			t.Fatalf("recovered sender %s, want %s", sender.Hex(), addr.Hex())
		}
	}
}

func TestFromMnemonicRejectsMalformedPhrase(t *testing.T) {
	t.Parallel()

	if _, err := FromMnemonic("definitely not a valid phrase", 5); err == nil {
		t.Fatal("expected error for malformed mnemonic")
	}
}
