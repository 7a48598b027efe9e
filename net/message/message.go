// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package message implements the externally-tagged JSON wire encoding for
// protocol.Transition, per spec.md §6: each transition serializes as a
// single-key object, `{"Msg0": {...}}`, `{"Contract": {...}}`,
// `{"EncSig": "<hex>"}`, `{"DecSig": "<hex>"}`. Only the transition kinds
// marked Public (spec.md §4.6) are ever encoded or accepted from a peer;
// the relay rejects anything else at the edge.
package message

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

type msg0Wire struct {
	Keys      *protocol.KeyPublic `json:"keys"`
	Receiving string              `json:"receiving"`
}

type contractWire struct {
	BchAddress string `json:"bch_address"`
	XmrAddress string `json:"xmr_address"`
}

// envelope is the externally-tagged shape every wire message takes: at
// most one of the fields is set, mirroring the single-key JSON object on
// the wire.
type envelope struct {
	Msg0     *msg0Wire     `json:"Msg0,omitempty"`
	Contract *contractWire `json:"Contract,omitempty"`
	EncSig   *string       `json:"EncSig,omitempty"`
	DecSig   *string       `json:"DecSig,omitempty"`
}

// Encode serialises a public Transition into its wire form. It returns an
// error for any transition kind the wire protocol does not carry (the
// runner-only kinds BchConfirmedTx, XmrLockVerified,
// SetXmrRestoreHeight).
func Encode(t protocol.Transition) ([]byte, error) {
	if !t.Public() {
		return nil, fmt.Errorf("message: transition %T is not wire-visible", t)
	}

	var env envelope
	switch v := t.(type) {
	case protocol.Msg0Transition:
		env.Msg0 = &msg0Wire{Keys: v.Keys, Receiving: hex.EncodeToString(v.Receiving)}
	case protocol.ContractTransition:
		env.Contract = &contractWire{BchAddress: v.BchAddress, XmrAddress: v.XmrAddress}
	case protocol.EncSigTransition:
		b := v.Sig.Bytes()
		s := hex.EncodeToString(b[:])
		env.EncSig = &s
	default:
		return nil, fmt.Errorf("message: unsupported transition type %T", t)
	}

	return json.Marshal(env)
}

// Decode parses a wire message into the protocol.Transition it encodes.
// DecSig is accepted here even though it is a private transition kind on
// the runner side, because the relay's classifier in spec.md §4.6 also
// uses this decoder to recognize a decrypted signature broadcast as an
// on-chain event — callers that must reject private kinds do so by
// checking Public() on the result, not by refusing to decode.
func Decode(data []byte) (protocol.Transition, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("message: invalid envelope: %w", err)
	}

	switch {
	case env.Msg0 != nil:
		recv, err := hex.DecodeString(env.Msg0.Receiving)
		if err != nil {
			return nil, fmt.Errorf("message: invalid receiving hex: %w", err)
		}
		return protocol.Msg0Transition{Keys: env.Msg0.Keys, Receiving: recv}, nil

	case env.Contract != nil:
		return protocol.ContractTransition{
			BchAddress: env.Contract.BchAddress,
			XmrAddress: env.Contract.XmrAddress,
		}, nil

	case env.EncSig != nil:
		raw, err := hex.DecodeString(*env.EncSig)
		if err != nil {
			return nil, fmt.Errorf("message: invalid enc_sig hex: %w", err)
		}
		if len(raw) != 65 {
			return nil, fmt.Errorf("message: enc_sig must be 65 bytes, got %d", len(raw))
		}
		var arr [65]byte
		copy(arr[:], raw)
		sig, err := adaptor.EncryptedSignatureFromBytes(arr)
		if err != nil {
			return nil, fmt.Errorf("message: %w", err)
		}
		return protocol.EncSigTransition{Sig: sig}, nil

	case env.DecSig != nil:
		raw, err := hex.DecodeString(*env.DecSig)
		if err != nil {
			return nil, fmt.Errorf("message: invalid dec_sig hex: %w", err)
		}
		if len(raw) != 64 {
			return nil, fmt.Errorf("message: dec_sig must be 64 bytes, got %d", len(raw))
		}
		var arr [64]byte
		copy(arr[:], raw)
		sig, err := adaptor.SignatureFromBytes(arr)
		if err != nil {
			return nil, fmt.Errorf("message: %w", err)
		}
		return protocol.DecSigTransition{Sig: sig}, nil

	default:
		return nil, fmt.Errorf("message: envelope carries no known transition")
	}
}
