// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package protocol

import "fmt"

// ErrorKind enumerates the domain-level error taxonomy from spec.md §7.
type ErrorKind int

const (
	// ErrInvalidProof is returned when a peer's KeyPublic DLEQ proof
	// fails verification. Terminal: the caller must emit SafeDelete.
	ErrInvalidProof ErrorKind = iota
	// ErrInvalidBchAddress is returned when a peer's claimed BCH address
	// does not match the independently-derived contract address.
	ErrInvalidBchAddress
	// ErrInvalidXmrAddress is returned when a peer's claimed XMR address
	// does not match the independently-derived stealth address.
	ErrInvalidXmrAddress
	// ErrInvalidTransaction is returned when an observed transaction
	// does not match any classifier arm.
	ErrInvalidTransaction
	// ErrInvalidSignature is returned when an adaptor-decrypted
	// signature fails verification or fails to encode as DER.
	ErrInvalidSignature
	// ErrInvalidXmrAmount is returned when the observed wallet balance
	// does not match the expected trade amount.
	ErrInvalidXmrAmount
	// ErrInvalidTimelock is returned at contract construction when a
	// timelock exceeds the BIP-68 16-bit mask.
	ErrInvalidTimelock
	// ErrInvalidStateTransition is returned when a transition is not
	// applicable in the role's current state. Idempotent: the role's
	// state does not change.
	ErrInvalidStateTransition
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidProof:
		return "InvalidProof"
	case ErrInvalidBchAddress:
		return "InvalidBchAddress"
	case ErrInvalidXmrAddress:
		return "InvalidXmrAddress"
	case ErrInvalidTransaction:
		return "InvalidTransaction"
	case ErrInvalidSignature:
		return "InvalidSignature"
	case ErrInvalidXmrAmount:
		return "InvalidXmrAmount"
	case ErrInvalidTimelock:
		return "InvalidTimelock"
	case ErrInvalidStateTransition:
		return "InvalidStateTransition"
	default:
		return "Unknown"
	}
}

// Error is the typed error a role's transition returns alongside its
// (possibly empty) actions, per spec.md §7: "transition() returns
// (new_state, actions, Option<Error>)". It is a value, never a panic —
// transitions are total functions.
type Error struct {
	Kind ErrorKind
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// NewError constructs a protocol.Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
