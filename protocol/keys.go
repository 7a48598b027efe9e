// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package protocol holds the data shared by both roles: the per-party key
// bundles (KeyPrivate/KeyPublic) and the per-trade Swap parameters
// (spec.md §3). The role state machines living in protocol/alice and
// protocol/bob build on top of these types.
package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/dleq"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

// KeyPrivate is the three independent secrets a party generates at trade
// start, per spec.md §3.
type KeyPrivate struct {
	MoneroSpend *monero.PrivateKey `json:"monero_spend"`
	MoneroView  *monero.PrivateKey `json:"monero_view"`
	Ves         *bch.PrivateKey    `json:"ves"`
}

// GenerateKeyPrivate produces a fresh, uniformly random KeyPrivate.
func GenerateKeyPrivate() (*KeyPrivate, error) {
	spend, err := monero.RandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("protocol: generating monero_spend: %w", err)
	}
	view, err := monero.RandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("protocol: generating monero_view: %w", err)
	}
	ves, err := bch.RandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("protocol: generating ves: %w", err)
	}
	return &KeyPrivate{MoneroSpend: spend, MoneroView: view, Ves: ves}, nil
}

// spendBchPrivate derives the secp256k1 reinterpretation of monero_spend:
// the same scalar, byte-reversed per spec.md §9's cross-curve endianness
// rule, used as the adaptor-signature encryption key this party's
// counterpart signs against.
func spendBchPrivate(moneroSpend *monero.PrivateKey) (*bch.PrivateKey, error) {
	edBytes := moneroSpend.Bytes()
	reversed := common.Reverse(edBytes[:])
	var beBytes [32]byte
	copy(beBytes[:], reversed)
	return bch.PrivateKeyFromScalar(beBytes)
}

// Public derives the peer-visible projection of k, including the
// cross-curve DLEQ proof binding spend_bch to monero_spend's point.
func (k *KeyPrivate) Public() (*KeyPublic, error) {
	spendBch, err := spendBchPrivate(k.MoneroSpend)
	if err != nil {
		return nil, fmt.Errorf("protocol: deriving spend_bch: %w", err)
	}

	proof, err := dleq.Prove(spendBch)
	if err != nil {
		return nil, fmt.Errorf("protocol: proving dleq: %w", err)
	}

	return &KeyPublic{
		MoneroSpend: k.MoneroSpend.PublicKey(),
		MoneroView:  k.MoneroView,
		Ves:         k.Ves.PublicKey(),
		SpendBch:    spendBch.PublicKey(),
		Proof:       proof,
	}, nil
}

// KeyPublic is the peer-visible projection of a KeyPrivate, per spec.md
// §3. MoneroView is deliberately the private scalar, not just its public
// point: sharing it lets each party independently watch the joint
// stealth address without needing the spend secret.
type KeyPublic struct {
	MoneroSpend *monero.PublicKey
	MoneroView  *monero.PrivateKey
	Ves         *bch.PublicKey
	SpendBch    *bch.PublicKey
	Proof       *dleq.Proof
}

// Verify checks the DLEQ proof binding SpendBch to MoneroSpend. Per
// spec.md §3, a party must refuse any peer message carrying a KeyPublic
// whose proof fails this check — the whole protocol's atomicity rests on
// this linkage.
func (p *KeyPublic) Verify() error {
	return dleq.Verify(p.Proof, p.SpendBch, p.MoneroSpend)
}

type keyPublicWire struct {
	MoneroSpend string      `json:"spend"`
	MoneroView  string      `json:"view"`
	Ves         string      `json:"ves"`
	SpendBch    string      `json:"spend_bch"`
	Proof       *dleq.Proof `json:"proof"`
}

// MarshalJSON implements json.Marshaler, serialising keys as hex strings
// per spec.md §9.
func (p *KeyPublic) MarshalJSON() ([]byte, error) {
	spend := p.MoneroSpend.Bytes()
	view := p.MoneroView.Bytes()
	ves := p.Ves.Bytes()
	spendBch := p.SpendBch.Bytes()

	return json.Marshal(keyPublicWire{
		MoneroSpend: hex.EncodeToString(spend[:]),
		MoneroView:  hex.EncodeToString(view[:]),
		Ves:         hex.EncodeToString(ves[:]),
		SpendBch:    hex.EncodeToString(spendBch[:]),
		Proof:       p.Proof,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *KeyPublic) UnmarshalJSON(data []byte) error {
	var wire keyPublicWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	spendBytes, err := hex.DecodeString(wire.MoneroSpend)
	if err != nil {
		return fmt.Errorf("protocol: invalid spend hex: %w", err)
	}
	var spendArr [32]byte
	if len(spendBytes) != 32 {
		return fmt.Errorf("protocol: spend must be 32 bytes")
	}
	copy(spendArr[:], spendBytes)
	spend, err := monero.PublicKeyFromBytes(spendArr)
	if err != nil {
		return fmt.Errorf("protocol: invalid spend point: %w", err)
	}

	viewBytes, err := hex.DecodeString(wire.MoneroView)
	if err != nil {
		return fmt.Errorf("protocol: invalid view hex: %w", err)
	}
	var viewArr [32]byte
	if len(viewBytes) != 32 {
		return fmt.Errorf("protocol: view must be 32 bytes")
	}
	copy(viewArr[:], viewBytes)
	view, err := monero.PrivateKeyFromLittleEndianBytes(viewArr)
	if err != nil {
		return fmt.Errorf("protocol: invalid view scalar: %w", err)
	}

	vesBytes, err := hex.DecodeString(wire.Ves)
	if err != nil {
		return fmt.Errorf("protocol: invalid ves hex: %w", err)
	}
	ves, err := bch.PublicKeyFromBytes(vesBytes)
	if err != nil {
		return fmt.Errorf("protocol: invalid ves point: %w", err)
	}

	spendBchBytes, err := hex.DecodeString(wire.SpendBch)
	if err != nil {
		return fmt.Errorf("protocol: invalid spend_bch hex: %w", err)
	}
	spendBch, err := bch.PublicKeyFromBytes(spendBchBytes)
	if err != nil {
		return fmt.Errorf("protocol: invalid spend_bch point: %w", err)
	}

	p.MoneroSpend = spend
	p.MoneroView = view
	p.Ves = ves
	p.SpendBch = spendBch
	p.Proof = wire.Proof
	return nil
}
