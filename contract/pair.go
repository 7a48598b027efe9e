// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
)

// Pair is the two covenants built per trade, per spec.md §3: Refund pays
// Bob when Alice's VES-signed path is taken, else Alice after timelock2;
// SwapLock pays Alice when Bob's VES-signed path is taken, else forwards
// to Refund after timelock1.
type Pair struct {
	Refund   *Contract
	SwapLock *Contract
}

// CreateParams bundles the per-trade values Create needs.
// BchRecvBob/BchRecvAlice are each party's recipient locking script
// bytes (spec.md's "recipient Script bch_recv"); VesBob/VesAlice are the
// corresponding VES public keys.
type CreateParams struct {
	MiningFee     int64
	BchRecvBob    []byte
	BchRecvAlice  []byte
	VesBob        *bch.PublicKey
	VesAlice      *bch.PublicKey
	Timelock1     int64
	Timelock2     int64
	Network       common.BchNetwork
}

// Create builds the Refund and SwapLock covenants per spec.md §3. Both
// peers must derive byte-identical contracts from the same CreateParams
// regardless of which party's keys are "self" vs "peer" when assembling
// the params — the constructor itself has no notion of role.
func Create(p CreateParams) (*Pair, error) {
	if p.Timelock1 > MaxTimelock || p.Timelock2 > MaxTimelock {
		return nil, ErrTimelockTooLarge
	}

	mining := p.MiningFee
	if mining == 0 {
		mining = DefaultMiningFeeSats
	}

	refund := &Contract{
		MiningFee:     mining,
		SuccessOutput: p.BchRecvBob,
		FailedOutput:  p.BchRecvAlice,
		PubkeyVES:     p.VesAlice,
		Timelock:      p.Timelock2,
		Network:       p.Network,
	}

	swapLock := &Contract{
		MiningFee:     mining,
		SuccessOutput: p.BchRecvAlice,
		FailedOutput:  refund.LockingScript(),
		PubkeyVES:     p.VesBob,
		Timelock:      p.Timelock1,
		Network:       p.Network,
	}

	return &Pair{Refund: refund, SwapLock: swapLock}, nil
}
