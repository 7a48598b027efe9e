// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package contract builds the two BCH covenants this swap relies on,
// SwapLock and Refund, along with the CashAddr derivation and transaction
// classifier spec.md §4.3 describes. Both covenants share one fixed
// 47-byte script tail; the construction here is a direct port of
// _examples/original_source/protocol/src/contract/mod.rs, which is also
// the source of the test vector both implementations must reproduce
// byte-for-byte.
package contract

import (
	"errors"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
)

// contractTail is the fixed 47-byte script suffix implementing the
// VES-signed-branch-or-timelock-branch logic shared by SwapLock and
// Refund. Both implementations must emit these exact bytes; see spec.md
// §4.3 and the CashAddr test vector in §6.
var contractTail = []byte{
	0xc3, 0x51, 0x9d, 0xc4, 0x51, 0x9d, 0x00, 0xc6, 0x00, 0xcc, 0x94, 0x9d, 0x00, 0xcb, 0x00, 0x9c,
	0x63, 0x00, 0xcd, 0x78, 0x88, 0x54, 0x79, 0x78, 0xa8, 0x53, 0x79, 0xbb, 0x67, 0x52, 0x79, 0xb2,
	0x75, 0x00, 0xcd, 0x54, 0x79, 0x88, 0x54, 0x79, 0x00, 0x88, 0x68, 0x6d, 0x6d, 0x75, 0x51,
}

// DefaultMiningFeeSats is the fixed mining-fee amount the swap protocol
// subtracts from the contract's success-path output, matching the test
// vector and the original implementation's `ContractPair::create(1000, ...)`
// call sites.
const DefaultMiningFeeSats = 1000

// MaxTimelock is BIP-68's SEQUENCE_LOCKTIME_MASK: a relative-timelock value
// that must fit in 16 bits.
const MaxTimelock = 0x0000FFFF

// ErrTimelockTooLarge is returned by Create when a requested timelock
// exceeds MaxTimelock.
var ErrTimelockTooLarge = errors.New("contract: timelock exceeds 0xFFFF")

// Contract is one covenant instance: SwapLock or Refund. Both are the same
// template parameterised differently per spec.md §3.
type Contract struct {
	MiningFee     int64
	SuccessOutput []byte
	FailedOutput  []byte
	PubkeyVES     *bch.PublicKey
	Timelock      int64
	Network       common.BchNetwork
}

// Script assembles the full redeem script:
// push(failed_output) push_int(timelock) push_key(ves_pk)
// push(success_output) push_int(mining_fee) <fixed 47-byte tail>.
func (c *Contract) Script() []byte {
	pubkeyBytes := c.PubkeyVES.Bytes()

	out := make([]byte, 0, 128)
	out = append(out, pushData(c.FailedOutput)...)
	out = append(out, pushInt(c.Timelock)...)
	out = append(out, pushData(pubkeyBytes[:])...)
	out = append(out, pushData(c.SuccessOutput)...)
	out = append(out, pushInt(c.MiningFee)...)
	out = append(out, contractTail...)
	return out
}

// LockingScript returns the P2SH locking script
// "OP_HASH160 <hash160(script)> OP_EQUAL" that pays into this contract.
func (c *Contract) LockingScript() []byte {
	hash := bch.Hash160(c.Script())
	out := make([]byte, 0, 23)
	out = append(out, opHash160, byte(len(hash)))
	out = append(out, hash[:]...)
	return append(out, opEqual)
}

// UnlockingScript returns "push(unlocker) push(script)", the scriptSig
// that spends this contract's locking script via its redeem script.
func (c *Contract) UnlockingScript(unlocker []byte) []byte {
	script := c.Script()
	out := make([]byte, 0, len(unlocker)+len(script)+6)
	out = append(out, pushData(unlocker)...)
	out = append(out, pushData(script)...)
	return out
}

// CashAddress returns the P2SH CashAddr string for this contract (version
// bit 8), per spec.md §4.3.
func (c *Contract) CashAddress() string {
	hash := bch.Hash160(c.Script())
	return cashaddr.Encode(hash[:], c.Network.CashAddrPrefix(), 8)
}

// CashTokenAddress returns the CashToken-capable P2SH CashAddr (version bit
// 24), matching the original implementation's `cash_token_address`.
func (c *Contract) CashTokenAddress() string {
	hash := bch.Hash160(c.Script())
	return cashaddr.Encode(hash[:], c.Network.CashAddrPrefix(), 24)
}
