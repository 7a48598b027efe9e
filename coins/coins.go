// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package coins holds the two amount types this system moves: satoshis for
// the BCH leg and piconero for the Monero leg, along with decimal
// formatting for CLI/log display.
package coins

import (
	"github.com/cockroachdb/apd/v3"
)

// satsPerBCH is the number of satoshis in one BCH.
const satsPerBCH = 1_0000_0000

// piconeroPerXMR is the number of piconero in one XMR.
const piconeroPerXMR = 1_0000_0000_0000

// SatAmount is a quantity of BCH denominated in satoshis, the unit the wire
// protocol (spec.md §6) and the covenant scripts (spec.md §4.3) both use.
type SatAmount uint64

// NewSatAmount constructs a SatAmount from a raw satoshi count.
func NewSatAmount(sats uint64) SatAmount {
	return SatAmount(sats)
}

// Sats returns the raw satoshi count.
func (a SatAmount) Sats() uint64 {
	return uint64(a)
}

// AsBCHString formats the amount as a decimal BCH string for display.
func (a SatAmount) AsBCHString() string {
	// One BCH is satsPerBCH = 10^8 sats, so the exact decimal value is the
	// sat count with exponent -8.
	return apd.New(int64(a), -8).Text('f')
}

// PiconeroAmount is a quantity of Monero denominated in piconero (the atomic
// unit), the unit the wire protocol (spec.md §6) uses for xmr_amount.
type PiconeroAmount uint64

// NewPiconeroAmount constructs a PiconeroAmount from a raw piconero count.
func NewPiconeroAmount(piconero uint64) PiconeroAmount {
	return PiconeroAmount(piconero)
}

// Piconero returns the raw piconero count.
func (a PiconeroAmount) Piconero() uint64 {
	return uint64(a)
}

// AsMoneroString formats the amount as a decimal XMR string for display.
func (a PiconeroAmount) AsMoneroString() string {
	// One XMR is piconeroPerXMR = 10^12 piconero, so the exact decimal
	// value is the piconero count with exponent -12.
	return apd.New(int64(a), -12).Text('f')
}

// FmtPiconeroAsXMR formats a raw piconero count as a decimal XMR string.
func FmtPiconeroAsXMR(piconero uint64) string {
	return PiconeroAmount(piconero).AsMoneroString()
}

// FmtSatsAsBCH formats a raw satoshi count as a decimal BCH string.
func FmtSatsAsBCH(sats uint64) string {
	return SatAmount(sats).AsBCHString()
}
