// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"bytes"

	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
)

// Kind labels how an observed transaction relates to a Pair of covenants,
// per spec.md §4.3.
type Kind int

const (
	// KindNone means the transaction matches none of the classifier's arms.
	KindNone Kind = iota
	// KindToSwapLock is a deposit paying the SwapLock covenant address.
	KindToSwapLock
	// KindSwapLockToAlice is SwapLock's VES-signed happy path, paying Alice.
	KindSwapLockToAlice
	// KindToRefund is SwapLock's timelock path, forwarding to Refund.
	KindToRefund
	// KindToBob is Refund's VES-signed happy path, paying Bob.
	KindToBob
	// KindRefundToAlice is Refund's timelock path, paying Alice.
	KindRefundToAlice
)

// String implements fmt.Stringer for logging.
func (k Kind) String() string {
	switch k {
	case KindToSwapLock:
		return "ToSwapLock"
	case KindSwapLockToAlice:
		return "SwapLockToAlice"
	case KindToRefund:
		return "ToRefund"
	case KindToBob:
		return "ToBob"
	case KindRefundToAlice:
		return "RefundToAlice"
	default:
		return "None"
	}
}

// effectiveInputScript reconstructs the P2SH locking script an input
// spends from, per spec.md §9's resolved Open Question: the redeem script
// is the last item pushed in scriptSig.
func effectiveInputScript(in TxIn) ([]byte, bool) {
	redeem, ok := lastPush(in.ScriptSig)
	if !ok {
		return nil, false
	}
	hash := bch.Hash160(redeem)
	out := make([]byte, 0, 23)
	out = append(out, opHash160, byte(len(hash)))
	out = append(out, hash[:]...)
	return append(out, opEqual), true
}

// AnalyzeTx classifies an observed transaction against a Pair, per
// spec.md §4.3. swaplockInSats is the amount the SwapLock covenant was
// funded with (the trade's bch_amount); aliceRecv/bobRecv are each
// party's recipient locking scripts. It returns (outpoint, kind, true) on
// a match, or (zero, KindNone, false) otherwise — it never panics on
// malformed input.
func AnalyzeTx(tx *Transaction, pair *Pair, swaplockInSats int64, aliceRecv, bobRecv []byte) (OutPoint, Kind, bool) {
	swapLockScript := pair.SwapLock.LockingScript()
	refundScript := pair.Refund.LockingScript()
	fee := pair.SwapLock.MiningFee

	if len(tx.Inputs) == 1 && len(tx.Outputs) == 1 {
		inScript, ok := effectiveInputScript(tx.Inputs[0])
		if ok {
			out := tx.Outputs[0]

			switch {
			case bytes.Equal(inScript, swapLockScript):
				if out.Value == swaplockInSats-fee && bytes.Equal(out.Script, aliceRecv) {
					return OutPoint{TxID: tx.TxID, Vout: 0}, KindSwapLockToAlice, true
				}
				if bytes.Equal(out.Script, refundScript) {
					return OutPoint{TxID: tx.TxID, Vout: 0}, KindToRefund, true
				}
			case bytes.Equal(inScript, refundScript):
				if out.Value == swaplockInSats-2*fee && bytes.Equal(out.Script, bobRecv) {
					return OutPoint{TxID: tx.TxID, Vout: 0}, KindToBob, true
				}
				if bytes.Equal(out.Script, aliceRecv) {
					return OutPoint{TxID: tx.TxID, Vout: 0}, KindRefundToAlice, true
				}
			}
		}
	}

	for vout, out := range tx.Outputs {
		if out.Value == swaplockInSats && bytes.Equal(out.Script, swapLockScript) {
			return OutPoint{TxID: tx.TxID, Vout: uint32(vout)}, KindToSwapLock, true
		}
	}

	return OutPoint{}, KindNone, false
}
