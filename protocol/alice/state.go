// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package alice implements the XMR-sender half of the swap: Alice holds
// XMR and wants BCH. Its state machine is the dual of protocol/bob's; see
// spec.md §4.4 for the authoritative transition table.
package alice

import (
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

// Kind tags which variant of State is populated.
type Kind int

const (
	// Init is the starting state: waiting for Bob's Msg0.
	Init Kind = iota
	// WithBobKeys has validated Bob's keys and built the contract pair;
	// waiting for Bob's claimed addresses.
	WithBobKeys
	// ContractMatch has confirmed both derived addresses agree; waiting
	// for the BCH deposit to confirm on-chain.
	ContractMatch
	// BchLocked has observed the SwapLock deposit; waiting for Bob's
	// SwapLock-leg adaptor signature.
	BchLocked
	// ValidEncSig is terminal: the decrypted signature verified and the
	// happy-path unlock transaction can be built.
	ValidEncSig
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Init:
		return "Init"
	case WithBobKeys:
		return "WithBobKeys"
	case ContractMatch:
		return "ContractMatch"
	case BchLocked:
		return "BchLocked"
	case ValidEncSig:
		return "ValidEncSig"
	default:
		return "Unknown"
	}
}

// State is Alice's tagged-union role state. Only the fields relevant to
// Kind are populated; the zero State is Init.
type State struct {
	Kind Kind

	BobKeys      *protocol.KeyPublic
	BobBchRecv   []byte
	ContractPair *contract.Pair
	SharedView   monero.ViewPair

	Outpoint *contract.OutPoint

	DecSig *adaptor.Signature
}

func kindFromString(s string) (Kind, error) {
	switch s {
	case "Init":
		return Init, nil
	case "WithBobKeys":
		return WithBobKeys, nil
	case "ContractMatch":
		return ContractMatch, nil
	case "BchLocked":
		return BchLocked, nil
	case "ValidEncSig":
		return ValidEncSig, nil
	default:
		return 0, fmt.Errorf("alice: unknown state kind %q", s)
	}
}

// stateWire is State's on-disk shape: Kind spelled out as a string so a
// trade file is readable without cross-referencing the Kind enum, per
// persist.Trade's recovery use case.
type stateWire struct {
	Kind         string               `json:"kind"`
	BobKeys      *protocol.KeyPublic  `json:"bob_keys,omitempty"`
	BobBchRecv   []byte               `json:"bob_bch_recv,omitempty"`
	ContractPair *contract.Pair       `json:"contract_pair,omitempty"`
	SharedView   monero.ViewPair      `json:"shared_view,omitempty"`
	Outpoint     *contract.OutPoint   `json:"outpoint,omitempty"`
	DecSig       *adaptor.Signature   `json:"dec_sig,omitempty"`
}

// MarshalJSON implements json.Marshaler, so a State value can be written
// straight into a persist.Trade file.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateWire{
		Kind:         s.Kind.String(),
		BobKeys:      s.BobKeys,
		BobBchRecv:   s.BobBchRecv,
		ContractPair: s.ContractPair,
		SharedView:   s.SharedView,
		Outpoint:     s.Outpoint,
		DecSig:       s.DecSig,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var wire stateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, err := kindFromString(wire.Kind)
	if err != nil {
		return err
	}
	s.Kind = kind
	s.BobKeys = wire.BobKeys
	s.BobBchRecv = wire.BobBchRecv
	s.ContractPair = wire.ContractPair
	s.SharedView = wire.SharedView
	s.Outpoint = wire.Outpoint
	s.DecSig = wire.DecSig
	return nil
}
