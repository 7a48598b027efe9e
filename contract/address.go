// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
)

const (
	opDup         = 0x76
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// LockingScriptForAddress decodes a CashAddr string into the locking
// script it pays, for turning an operator-supplied recipient address into
// the Script bytes protocol.Swap's BchRecv field carries. Both P2PKH and
// P2SH CashAddrs are accepted, since either may legitimately be a party's
// payout address; CashToken-capable addresses decode the same as their
// non-token counterpart, since the version bit's token flag does not
// change the underlying script template.
func LockingScriptForAddress(address string) ([]byte, error) {
	_, versionBit, hash, err := cashaddr.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("contract: decoding address: %w", err)
	}

	switch versionBit &^ 0x10 {
	case 0:
		out := make([]byte, 0, 25)
		out = append(out, opDup, opHash160, byte(len(hash)))
		out = append(out, hash...)
		return append(out, opEqualVerify, opCheckSig), nil
	case 8:
		out := make([]byte, 0, 23)
		out = append(out, opHash160, byte(len(hash)))
		out = append(out, hash...)
		return append(out, opEqual), nil
	default:
		return nil, fmt.Errorf("contract: unsupported cashaddr version bit %#x", versionBit)
	}
}
