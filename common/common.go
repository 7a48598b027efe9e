// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package common holds small value types and helpers shared across every
// other package in this module: network/environment enums and the
// byte-reversal helper used at the two cross-curve scalar hand-off sites.
package common

import (
	"encoding/json"
	"fmt"
)

// Environment describes which network a swap daemon is configured against.
// It gates behavior that differs between a live network and a regtest-style
// development network (eg. minimum confirmation counts, timeouts).
type Environment byte

const (
	// Mainnet is bitcoincash/monero mainnet.
	Mainnet Environment = iota
	// Stagenet is the monero stagenet paired with bchtest.
	Stagenet
	// Development is a local regtest/testnet setup used in integration tests.
	Development
)

// String implements fmt.Stringer.
func (e Environment) String() string {
	switch e {
	case Mainnet:
		return "mainnet"
	case Stagenet:
		return "stagenet"
	case Development:
		return "development"
	default:
		return "unknown"
	}
}

// BchNetwork identifies which CashAddr prefix and WIF version byte to use.
type BchNetwork byte

const (
	// BchMainnet is the live BCH network.
	BchMainnet BchNetwork = iota
	// BchTestnet is chipnet/testnet4-style BCH test network.
	BchTestnet
	// BchRegtest is a local regtest network.
	BchRegtest
)

// CashAddrPrefix returns the human-readable CashAddr prefix for the network.
func (n BchNetwork) CashAddrPrefix() string {
	switch n {
	case BchMainnet:
		return "bitcoincash"
	case BchTestnet:
		return "bchtest"
	case BchRegtest:
		return "bchreg"
	default:
		panic(fmt.Sprintf("unknown bch network %d", n))
	}
}

// String implements fmt.Stringer.
func (n BchNetwork) String() string {
	switch n {
	case BchMainnet:
		return "Mainnet"
	case BchTestnet:
		return "Testnet"
	case BchRegtest:
		return "Regtest"
	default:
		return "Unknown"
	}
}

// ParseBchNetwork parses a network name as accepted by bchNetworkFromString,
// exported for the RPC and CLI layers which take network names as
// operator-supplied strings rather than already-typed values.
func ParseBchNetwork(s string) (BchNetwork, error) {
	return bchNetworkFromString(s)
}

func bchNetworkFromString(s string) (BchNetwork, error) {
	switch s {
	case "Mainnet":
		return BchMainnet, nil
	case "Testnet":
		return BchTestnet, nil
	case "Regtest":
		return BchRegtest, nil
	default:
		return 0, fmt.Errorf("common: unknown bch network %q", s)
	}
}

// MarshalJSON implements json.Marshaler, serialising as the network name
// per spec.md §6's Monero network wire convention, applied consistently
// to the BCH leg.
func (n BchNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *BchNetwork) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := bchNetworkFromString(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// XmrNetwork identifies the monero network a stealth address belongs to.
type XmrNetwork byte

const (
	// XmrMainnet is monero mainnet.
	XmrMainnet XmrNetwork = iota
	// XmrTestnet is monero testnet.
	XmrTestnet
	// XmrStagenet is monero stagenet.
	XmrStagenet
)

// String implements fmt.Stringer, matching the wire representation used in
// the JSON Transition payloads (spec.md §6: "Mainnet"|"Testnet"|"Stagenet").
func (n XmrNetwork) String() string {
	switch n {
	case XmrMainnet:
		return "Mainnet"
	case XmrTestnet:
		return "Testnet"
	case XmrStagenet:
		return "Stagenet"
	default:
		return "Unknown"
	}
}

// ParseXmrNetwork parses a network name as accepted by xmrNetworkFromString,
// exported for the RPC and CLI layers which take network names as
// operator-supplied strings rather than already-typed values.
func ParseXmrNetwork(s string) (XmrNetwork, error) {
	return xmrNetworkFromString(s)
}

func xmrNetworkFromString(s string) (XmrNetwork, error) {
	switch s {
	case "Mainnet":
		return XmrMainnet, nil
	case "Testnet":
		return XmrTestnet, nil
	case "Stagenet":
		return XmrStagenet, nil
	default:
		return 0, fmt.Errorf("common: unknown xmr network %q", s)
	}
}

// MarshalJSON implements json.Marshaler, serialising as one of
// "Mainnet"|"Testnet"|"Stagenet" per spec.md §6.
func (n XmrNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *XmrNetwork) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := xmrNetworkFromString(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Reverse returns a copy of b with byte order reversed. It is used at the
// cross-curve hand-off sites in this module (crypto/adaptor.DecryptSignature,
// crypto/adaptor.RecoverDecryptionKey, and protocol's spendBchPrivate) to
// translate a scalar between ed25519's little-endian and secp256k1's
// big-endian serialization, per spec.md §9 "Scalar endianness across curves".
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
