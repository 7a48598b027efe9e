// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// OutPoint identifies one output of a previously confirmed transaction.
type OutPoint struct {
	TxID [32]byte
	Vout uint32
}

type outPointWire struct {
	TxID string `json:"tx_id"`
	Vout uint32 `json:"vout"`
}

// MarshalJSON implements json.Marshaler, hex-encoding TxID the way every
// other fixed-size byte array on this module's wire does.
func (o OutPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(outPointWire{
		TxID: hex.EncodeToString(o.TxID[:]),
		Vout: o.Vout,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OutPoint) UnmarshalJSON(data []byte) error {
	var wire outPointWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	raw, err := hex.DecodeString(wire.TxID)
	if err != nil {
		return fmt.Errorf("contract: invalid outpoint tx id hex: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("contract: outpoint tx id must be 32 bytes, got %d", len(raw))
	}
	copy(o.TxID[:], raw)
	o.Vout = wire.Vout
	return nil
}

// TxIn is one input of an observed transaction: the outpoint it spends and
// the scriptSig that unlocks it.
type TxIn struct {
	PreviousOutpoint OutPoint
	ScriptSig        []byte
}

// TxOut is one output of an observed transaction.
type TxOut struct {
	Value  int64
	Script []byte
}

// Transaction is the chain observer's view of a confirmed BCH transaction:
// just enough structure for the classifier in classify.go to work with.
type Transaction struct {
	TxID    [32]byte
	Inputs  []TxIn
	Outputs []TxOut
}

// lastPush returns the data of the final push-data operation in a script,
// the way the original implementation's classifier treats a P2SH
// scriptSig's trailing push as the redeem-script preimage. It returns
// ok=false for any script that does not parse cleanly as a sequence of
// push operations — callers must treat that as "does not classify",
// never panic, per spec.md §4.3 / §9.
func lastPush(script []byte) (data []byte, ok bool) {
	i := 0
	var last []byte
	sawAny := false

	for i < len(script) {
		op := script[i]
		i++

		switch {
		case op == op0:
			last = nil
			sawAny = true
		case op >= 1 && op < opPushData1:
			n := int(op)
			if i+n > len(script) {
				return nil, false
			}
			last = script[i : i+n]
			i += n
			sawAny = true
		case op == opPushData1:
			if i+1 > len(script) {
				return nil, false
			}
			n := int(script[i])
			i++
			if i+n > len(script) {
				return nil, false
			}
			last = script[i : i+n]
			i += n
			sawAny = true
		case op == opPushData2:
			if i+2 > len(script) {
				return nil, false
			}
			n := int(script[i]) | int(script[i+1])<<8
			i += 2
			if i+n > len(script) {
				return nil, false
			}
			last = script[i : i+n]
			i += n
			sawAny = true
		default:
			// Not a data-push opcode (eg. an OP_1..OP_16 small-int push,
			// or an unrecognized opcode): this system's own unlocking
			// scripts never emit these, so a scriptSig containing one is
			// malformed for our purposes.
			return nil, false
		}
	}

	if !sawAny {
		return nil, false
	}
	return last, true
}

// allPushes parses script as a flat sequence of push-data operations,
// the same grammar lastPush accepts, returning every pushed item in
// order. It returns ok=false under the same conditions lastPush does
// (malformed or non-push-only script) — never panics.
func allPushes(script []byte) (items [][]byte, ok bool) {
	i := 0
	for i < len(script) {
		op := script[i]
		i++

		switch {
		case op == op0:
			items = append(items, nil)
		case op >= 1 && op < opPushData1:
			n := int(op)
			if i+n > len(script) {
				return nil, false
			}
			items = append(items, script[i:i+n])
			i += n
		case op == opPushData1:
			if i+1 > len(script) {
				return nil, false
			}
			n := int(script[i])
			i++
			if i+n > len(script) {
				return nil, false
			}
			items = append(items, script[i:i+n])
			i += n
		case op == opPushData2:
			if i+2 > len(script) {
				return nil, false
			}
			n := int(script[i]) | int(script[i+1])<<8
			i += 2
			if i+n > len(script) {
				return nil, false
			}
			items = append(items, script[i:i+n])
			i += n
		default:
			return nil, false
		}
	}

	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

// UnlockerPush extracts the VES-signed unlocking data from a SwapLock- or
// Refund-spending scriptSig, per spec.md §4.4's "extract the DER
// signature from the last-but-one push in the script_sig": a
// Contract.UnlockingScript is always `push(unlocker) push(redeem
// script)`, so the unlocker is the second-to-last item.
func UnlockerPush(scriptSig []byte) ([]byte, bool) {
	items, ok := allPushes(scriptSig)
	if !ok || len(items) < 2 {
		return nil, false
	}
	return items[len(items)-2], true
}
