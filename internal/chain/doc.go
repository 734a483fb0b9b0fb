// Package chain houses blockchain connectivity for the swap and transfer
// core: a narrow node-client interface covering balance, code, gas price,
// submission and receipt queries, a concrete EVM implementation, and the
// YAML-backed registry of supported networks with their wrapped-native and
// router addresses.
package chain
