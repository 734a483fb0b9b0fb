package keyring

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"
)

// DefaultMnemonic is Anvil's well-known development mnemonic. It is only a
// sensible default for local test networks.
const DefaultMnemonic = "test test test test test test test test test test test junk"

// DefaultCount is the number of identities derived when none is configured.
const DefaultCount uint32 = 10

// Identity pairs a derived address with its signing key.
type Identity struct {
	address common.Address
	path    string
	key     *ecdsa.PrivateKey
}

// Address returns the identity's Ethereum address.
func (id *Identity) Address() common.Address {
	return id.address
}

// DerivationPath returns the BIP-44 path the identity was derived at.
func (id *Identity) DerivationPath() string {
	return id.path
}

// SignTx signs the transaction for the given chain using EIP-155 replay
// protection.
func (id *Identity) SignTx(tx *coretypes.Transaction, chainID *big.Int) (*coretypes.Transaction, error) {
	if id == nil || id.key == nil {
		return nil, errors.New("签名身份未初始化")
	}
	if chainID == nil {
		return nil, errors.New("缺少链 ID，无法签名")
	}
	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(chainID), id.key)
	if err != nil {
		return nil, fmt.Errorf("交易签名失败: %w", err)
	}
	return signed, nil
}

// Keyring holds the identities derived from a single mnemonic.
type Keyring struct {
	identities map[common.Address]*Identity
	ordered    []*Identity
}

// New derives DefaultCount identities from the default development mnemonic.
func New() (*Keyring, error) {
	return FromMnemonic(DefaultMnemonic, DefaultCount)
}

// FromMnemonic derives count identities from the given mnemonic. A malformed
// phrase or a failed derivation step is fatal: without identities the daemon
// cannot sign transfers or swaps.
func FromMnemonic(mnemonic string, count uint32) (*Keyring, error) {
	if count == 0 {
		count = DefaultCount
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("助记词校验失败")
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("派生主密钥失败: %w", err)
	}
	// m/44'/60'/0'/0 is shared by every identity; only the final address
	// index varies.
	purpose, err := master.Derive(hdkeychain.HardenedKeyStart + 44)
	if err != nil {
		return nil, fmt.Errorf("派生 purpose 节点失败: %w", err)
	}
	coinType, err := purpose.Derive(hdkeychain.HardenedKeyStart + 60)
	if err != nil {
		return nil, fmt.Errorf("派生 coin type 节点失败: %w", err)
	}
	account, err := coinType.Derive(hdkeychain.HardenedKeyStart + 0)
	if err != nil {
		return nil, fmt.Errorf("派生 account 节点失败: %w", err)
	}
	change, err := account.Derive(0)
	if err != nil {
		return nil, fmt.Errorf("派生 change 节点失败: %w", err)
	}

	ring := &Keyring{
		identities: make(map[common.Address]*Identity, count),
		ordered:    make([]*Identity, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		child, err := change.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("派生地址索引 %d 失败: %w", i, err)
		}
		priv, err := child.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("导出地址索引 %d 的私钥失败: %w", i, err)
		}
		// Re-parse the key bytes through geth so the key carries geth's
		// secp256k1 curve value; geth's signer rejects btcec's by identity.
		key, err := gethcrypto.ToECDSA(priv.Serialize())
		if err != nil {
			return nil, fmt.Errorf("转换地址索引 %d 的私钥失败: %w", i, err)
		}
		identity := &Identity{
			address: gethcrypto.PubkeyToAddress(key.PublicKey),
			path:    fmt.Sprintf("m/44'/60'/0'/0/%d", i),
			key:     key,
		}
		ring.identities[identity.address] = identity
		ring.ordered = append(ring.ordered, identity)
	}
	return ring, nil
}

// Lookup returns the identity for the address, if the keyring holds it.
func (k *Keyring) Lookup(address common.Address) (*Identity, bool) {
	if k == nil {
		return nil, false
	}
	identity, ok := k.identities[address]
	return identity, ok
}

// Default returns the identity derived at index 0, or nil when the keyring
// is empty.
func (k *Keyring) Default() *Identity {
	if k == nil || len(k.ordered) == 0 {
		return nil
	}
	return k.ordered[0]
}

// Addresses returns the derived addresses in derivation order.
func (k *Keyring) Addresses() []common.Address {
	if k == nil {
		return nil
	}
	addrs := make([]common.Address, 0, len(k.ordered))
	for _, identity := range k.ordered {
		addrs = append(addrs, identity.address)
	}
	return addrs
}

// Len reports how many identities the keyring holds.
func (k *Keyring) Len() int {
	if k == nil {
		return 0
	}
	return len(k.ordered)
}
