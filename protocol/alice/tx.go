// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package alice

import (
	"errors"

	"github.com/PHCitizen/bch-xmr-swap/contract"
)

// UnlockTx is the transaction the runner broadcasts to claim Alice's BCH
// once ValidEncSig is reached: a version-2 transaction spending the
// SwapLock outpoint via its VES-signed branch, paying bch_amount minus
// the contract's mining fee to bch_recv, per spec.md §4.4
// "get_unlock_tx()".
type UnlockTx struct {
	Version  int32
	LockTime uint32
	Input    contract.TxIn
	Output   contract.TxOut
}

// GetUnlockTx builds the happy-path unlock transaction. It is only valid
// in ValidEncSig; any other state is a programmer error, not a protocol
// one (the runner only calls this on UnlockBchNormalAction, which Alice
// emits on entering ValidEncSig).
func (a *Alice) GetUnlockTx() (*UnlockTx, error) {
	if a.State.Kind != ValidEncSig {
		return nil, errors.New("alice: GetUnlockTx called outside ValidEncSig")
	}

	unlocker := a.State.ContractPair.SwapLock.UnlockingScript(a.State.DecSig.DER())

	return &UnlockTx{
		Version:  2,
		LockTime: 0,
		Input: contract.TxIn{
			PreviousOutpoint: *a.State.Outpoint,
			ScriptSig:        unlocker,
		},
		Output: contract.TxOut{
			Value:  int64(a.Swap.BchAmount.Sats()) - a.State.ContractPair.SwapLock.MiningFee,
			Script: a.Swap.BchRecv,
		},
	}, nil
}
