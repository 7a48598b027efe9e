// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package protocol

import (
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

// Action is the alphabet of side-effect descriptors a role's transition
// emits, per spec.md §4.4. The state machines are pure with respect to
// external effects; the runner (spec.md §4.5) interprets these.
type Action interface {
	isAction()
}

// SafeDeleteAction tells the runner to discard all persisted state for
// this trade: a terminal cryptographic check failed and no funds were
// ever locked on this side.
type SafeDeleteAction struct{}

func (SafeDeleteAction) isAction() {}

// TradeSuccessAction tells the runner the swap completed successfully on
// this side.
type TradeSuccessAction struct{}

func (TradeSuccessAction) isAction() {}

// RefundAction tells the runner to pursue the refund path: broadcast the
// Refund-spending transaction once its timelock matures.
type RefundAction struct{}

func (RefundAction) isAction() {}

// WatchBchAddressAction asks the runner to start watching the SwapLock
// and Refund covenant addresses for confirmed transactions.
type WatchBchAddressAction struct {
	SwapLockAddress string
	RefundAddress   string
}

func (WatchBchAddressAction) isAction() {}

// WatchXmrAction asks the runner to poll the joint view-wallet's unlocked
// balance at the given address.
type WatchXmrAction struct {
	Address string
}

func (WatchXmrAction) isAction() {}

// CreateXmrViewAction asks the runner to create a view-only wallet from
// the shared ViewPair.
type CreateXmrViewAction struct {
	ViewPair monero.ViewPair
}

func (CreateXmrViewAction) isAction() {}

// LockBchAction is an operator-visible instruction: pay amount sats to
// address to fund the SwapLock covenant.
type LockBchAction struct {
	Amount  coins.SatAmount
	Address string
}

func (LockBchAction) isAction() {}

// LockXmrAction is an operator-visible instruction: pay amount piconero
// to the joint stealth address.
type LockXmrAction struct {
	Amount  coins.PiconeroAmount
	Address string
}

func (LockXmrAction) isAction() {}

// UnlockBchNormalAction asks the runner to build and broadcast the
// happy-path transaction spending the locked BCH to its final recipient.
type UnlockBchNormalAction struct{}

func (UnlockBchNormalAction) isAction() {}

// UnlockBchFallbackAction asks the runner to build and broadcast the
// timelock-path transaction routing locked BCH through the Refund
// covenant (spec.md §9: specified here per SPEC_FULL.md §3).
type UnlockBchFallbackAction struct{}

func (UnlockBchFallbackAction) isAction() {}
