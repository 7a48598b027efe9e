// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package dleq

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// bitProofWire is the hex-encoded wire representation of one bitProof,
// used so a Proof can travel in a KeyPublic JSON payload (spec.md §9:
// "public keys serialise as hex strings... do not embed raw RNG state").
type bitProofWire struct {
	CommitSecp string `json:"commit_secp"`
	CommitEd   string `json:"commit_ed"`
	ASecp0     string `json:"a_secp0"`
	ASecp1     string `json:"a_secp1"`
	AEd0       string `json:"a_ed0"`
	AEd1       string `json:"a_ed1"`
	E0         string `json:"e0"`
	E1         string `json:"e1"`
	ZSecp0     string `json:"z_secp0"`
	ZSecp1     string `json:"z_secp1"`
	ZEd0       string `json:"z_ed0"`
	ZEd1       string `json:"z_ed1"`
}

// MarshalJSON implements json.Marshaler.
func (p *Proof) MarshalJSON() ([]byte, error) {
	wire := make([]bitProofWire, len(p.bits))
	for i, bp := range p.bits {
		zs0 := bp.zSecp0.Bytes()
		zs1 := bp.zSecp1.Bytes()
		wire[i] = bitProofWire{
			CommitSecp: hex.EncodeToString(bp.commitSecp.SerializeCompressed()),
			CommitEd:   hex.EncodeToString(bp.commitEd.Bytes()),
			ASecp0:     hex.EncodeToString(bp.aSecp0.SerializeCompressed()),
			ASecp1:     hex.EncodeToString(bp.aSecp1.SerializeCompressed()),
			AEd0:       hex.EncodeToString(bp.aEd0.Bytes()),
			AEd1:       hex.EncodeToString(bp.aEd1.Bytes()),
			E0:         bp.e0.Text(16),
			E1:         bp.e1.Text(16),
			ZSecp0:     hex.EncodeToString(zs0[:]),
			ZSecp1:     hex.EncodeToString(zs1[:]),
			ZEd0:       hex.EncodeToString(bp.zEd0.Bytes()),
			ZEd1:       hex.EncodeToString(bp.zEd1.Bytes()),
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var wire []bitProofWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if len(wire) != numBits {
		return fmt.Errorf("dleq: expected %d bit proofs, got %d", numBits, len(wire))
	}

	bits := make([]*bitProof, numBits)
	for i, w := range wire {
		bp, err := w.decode()
		if err != nil {
			return fmt.Errorf("dleq: bit %d: %w", i, err)
		}
		bits[i] = bp
	}

	p.bits = bits
	return nil
}

func hexSecpPoint(s string) (*secp256k1.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return secp256k1.ParsePubKey(b)
}

func hexSecpScalar(s string) (*secp256k1.ModNScalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var out secp256k1.ModNScalar
	if overflow := out.SetByteSlice(b); overflow {
		return nil, errors.New("dleq: scalar overflows group order")
	}
	return &out, nil
}

func hexEdPoint(s string) (*edwards25519.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var arr [32]byte
	if len(b) != 32 {
		return nil, errors.New("dleq: ed25519 point must be 32 bytes")
	}
	copy(arr[:], b)
	return new(edwards25519.Point).SetBytes(arr[:])
}

func hexEdScalar(s string) (*edwards25519.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var arr [32]byte
	if len(b) != 32 {
		return nil, errors.New("dleq: ed25519 scalar must be 32 bytes")
	}
	copy(arr[:], b)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(arr[:])
	if err != nil {
		return nil, fmt.Errorf("dleq: invalid ed25519 scalar: %w", err)
	}
	return s, nil
}

func bigFromHex(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 16)
}

func (w *bitProofWire) decode() (*bitProof, error) {
	commitSecp, err := hexSecpPoint(w.CommitSecp)
	if err != nil {
		return nil, err
	}
	commitEd, err := hexEdPoint(w.CommitEd)
	if err != nil {
		return nil, err
	}
	aSecp0, err := hexSecpPoint(w.ASecp0)
	if err != nil {
		return nil, err
	}
	aSecp1, err := hexSecpPoint(w.ASecp1)
	if err != nil {
		return nil, err
	}
	aEd0, err := hexEdPoint(w.AEd0)
	if err != nil {
		return nil, err
	}
	aEd1, err := hexEdPoint(w.AEd1)
	if err != nil {
		return nil, err
	}
	e0, ok := bigFromHex(w.E0)
	if !ok {
		return nil, errors.New("dleq: invalid e0")
	}
	e1, ok := bigFromHex(w.E1)
	if !ok {
		return nil, errors.New("dleq: invalid e1")
	}
	zSecp0, err := hexSecpScalar(w.ZSecp0)
	if err != nil {
		return nil, err
	}
	zSecp1, err := hexSecpScalar(w.ZSecp1)
	if err != nil {
		return nil, err
	}
	zEd0, err := hexEdScalar(w.ZEd0)
	if err != nil {
		return nil, err
	}
	zEd1, err := hexEdScalar(w.ZEd1)
	if err != nil {
		return nil, err
	}

	return &bitProof{
		commitSecp: commitSecp,
		commitEd:   commitEd,
		aSecp0:     aSecp0,
		aSecp1:     aSecp1,
		aEd0:       aEd0,
		aEd1:       aEd1,
		e0:         e0,
		e1:         e1,
		zSecp0:     zSecp0,
		zSecp1:     zSecp1,
		zEd0:       zEd0,
		zEd1:       zEd1,
	}, nil
}
