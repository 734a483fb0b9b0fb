// Package keyring derives a fixed set of signing identities from a BIP-39
// mnemonic phrase using the standard Ethereum derivation path
// m/44'/60'/0'/0/{index}. Identities are immutable after derivation and are
// looked up by address; the identity at index 0 acts as the fallback signer
// when a request names a sender the keyring does not hold.
package keyring
