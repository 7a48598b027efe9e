// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package bob implements the BCH-sender half of the swap: Bob holds BCH
// and wants XMR. Its state machine is the dual of protocol/alice's; see
// spec.md §4.4 for the authoritative transition table.
package bob

import (
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

// Kind tags which variant of State is populated.
type Kind int

const (
	// Init is the starting state: waiting for Alice's Msg0.
	Init Kind = iota
	// WithAliceKey has validated Alice's keys, built the contract pair,
	// and asked the runner to create the joint view wallet; waiting for
	// Alice's claimed addresses.
	WithAliceKey
	// ContractMatch has confirmed both derived addresses agree; waiting
	// for Alice's refund-leg adaptor signature.
	ContractMatch
	// VerifiedEncSig has validated Alice's pre-signature; waiting for the
	// XMR deposit to confirm.
	VerifiedEncSig
	// MoneroLocked has observed the expected XMR balance; waiting for the
	// completed signature Alice reveals by spending the BCH leg.
	MoneroLocked
	// SwapSuccess is terminal: Bob has recovered Alice's spend scalar and
	// can assemble the full joint Monero spend key.
	SwapSuccess
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Init:
		return "Init"
	case WithAliceKey:
		return "WithAliceKey"
	case ContractMatch:
		return "ContractMatch"
	case VerifiedEncSig:
		return "VerifiedEncSig"
	case MoneroLocked:
		return "MoneroLocked"
	case SwapSuccess:
		return "SwapSuccess"
	default:
		return "Unknown"
	}
}

// State is Bob's tagged-union role state. Only the fields relevant to
// Kind are populated; the zero State is Init.
type State struct {
	Kind Kind

	AliceKeys    *protocol.KeyPublic
	AliceBchRecv []byte
	ContractPair *contract.Pair
	SharedView   monero.ViewPair

	RestoreHeight uint64

	KeyPair *monero.KeyPair
}

func kindFromString(s string) (Kind, error) {
	switch s {
	case "Init":
		return Init, nil
	case "WithAliceKey":
		return WithAliceKey, nil
	case "ContractMatch":
		return ContractMatch, nil
	case "VerifiedEncSig":
		return VerifiedEncSig, nil
	case "MoneroLocked":
		return MoneroLocked, nil
	case "SwapSuccess":
		return SwapSuccess, nil
	default:
		return 0, fmt.Errorf("bob: unknown state kind %q", s)
	}
}

// stateWire is State's on-disk shape; see alice.stateWire for why Kind is
// spelled out as a string.
type stateWire struct {
	Kind          string              `json:"kind"`
	AliceKeys     *protocol.KeyPublic `json:"alice_keys,omitempty"`
	AliceBchRecv  []byte              `json:"alice_bch_recv,omitempty"`
	ContractPair  *contract.Pair      `json:"contract_pair,omitempty"`
	SharedView    monero.ViewPair     `json:"shared_view,omitempty"`
	RestoreHeight uint64              `json:"restore_height,omitempty"`
	KeyPair       *monero.KeyPair     `json:"key_pair,omitempty"`
}

// MarshalJSON implements json.Marshaler, so a State value can be written
// straight into a persist.Trade file.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateWire{
		Kind:          s.Kind.String(),
		AliceKeys:     s.AliceKeys,
		AliceBchRecv:  s.AliceBchRecv,
		ContractPair:  s.ContractPair,
		SharedView:    s.SharedView,
		RestoreHeight: s.RestoreHeight,
		KeyPair:       s.KeyPair,
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
	s.AliceKeys = wire.AliceKeys
	s.AliceBchRecv = wire.AliceBchRecv
	s.ContractPair = wire.ContractPair
	s.SharedView = wire.SharedView
	s.RestoreHeight = wire.RestoreHeight
	s.KeyPair = wire.KeyPair
	return nil
}
