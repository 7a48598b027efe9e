// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package protocol

import (
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
)

// Transition is the alphabet of events that drive a role's state machine,
// per spec.md §4.4. Public transitions (Msg0Transition, ContractTransition,
// EncSigTransition) arrive from the counterparty via the relay; the
// remaining kinds are private, injected only by the runner from chain or
// wallet observations.
type Transition interface {
	isTransition()
	// Public reports whether the relay may accept this transition kind
	// from a peer (spec.md §4.6: the relay "MUST reject private
	// transition kinds at the edge").
	Public() bool
}

// Msg0Transition carries a party's public key bundle and recipient
// script.
type Msg0Transition struct {
	Keys      *KeyPublic
	Receiving []byte
}

func (Msg0Transition) isTransition() {}

// Public implements Transition.
func (Msg0Transition) Public() bool { return true }

// ContractTransition carries the expected BCH/XMR addresses a peer has
// independently derived.
type ContractTransition struct {
	BchAddress string
	XmrAddress string
}

func (ContractTransition) isTransition() {}

// Public implements Transition.
func (ContractTransition) Public() bool { return true }

// EncSigTransition carries an adaptor pre-signature.
type EncSigTransition struct {
	Sig *adaptor.EncryptedSignature
}

func (EncSigTransition) isTransition() {}

// Public implements Transition.
func (EncSigTransition) Public() bool { return true }

// DecSigTransition carries a completed signature observed in a broadcast
// unlocking script (or, in principle, sent directly by a peer).
type DecSigTransition struct {
	Sig *adaptor.Signature
}

func (DecSigTransition) isTransition() {}

// Public implements Transition.
func (DecSigTransition) Public() bool { return false }

// BchConfirmedTxTransition carries a chain-observed transaction paying one
// of the watched addresses at >= the minimum confirmation threshold.
// Never serialised over the wire (spec.md §6): runner-only.
type BchConfirmedTxTransition struct {
	Tx *contract.Transaction
}

func (BchConfirmedTxTransition) isTransition() {}

// Public implements Transition.
func (BchConfirmedTxTransition) Public() bool { return false }

// XmrLockVerifiedTransition carries the unlocked balance of the joint
// view-wallet.
type XmrLockVerifiedTransition struct {
	Amount coins.PiconeroAmount
}

func (XmrLockVerifiedTransition) isTransition() {}

// Public implements Transition.
func (XmrLockVerifiedTransition) Public() bool { return false }

// SetXmrRestoreHeightTransition records the Monero wallet restore block
// height; Bob-only, informational.
type SetXmrRestoreHeightTransition struct {
	Height uint64
}

func (SetXmrRestoreHeightTransition) isTransition() {}

// Public implements Transition.
func (SetXmrRestoreHeightTransition) Public() bool { return false }
