// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package monero

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/PHCitizen/bch-xmr-swap/common"
)

// Standard-address network prefix bytes, as used throughout the reference
// Monero wallet and rpc libraries.
const (
	mainnetAddressPrefix  = 18
	testnetAddressPrefix  = 53
	stagenetAddressPrefix = 24
)

func addressPrefix(network common.XmrNetwork) (byte, error) {
	switch network {
	case common.XmrMainnet:
		return mainnetAddressPrefix, nil
	case common.XmrTestnet:
		return testnetAddressPrefix, nil
	case common.XmrStagenet:
		return stagenetAddressPrefix, nil
	default:
		return 0, fmt.Errorf("monero: unknown network %v", network)
	}
}

// Address formats a standard Monero public address string from a
// ViewPair's spend and view public keys, per spec.md's address-agreement
// requirement: both parties must derive the identical address string from
// the identical ViewPair.
func Address(network common.XmrNetwork, vp ViewPair) (string, error) {
	prefix, err := addressPrefix(network)
	if err != nil {
		return "", err
	}

	spend := vp.Spend.Bytes()
	view := vp.View.PublicKey().Bytes()

	body := make([]byte, 0, 1+32+32)
	body = append(body, prefix)
	body = append(body, spend[:]...)
	body = append(body, view[:]...)

	checksum := keccak256(body)

	full := append(body, checksum[:4]...)
	return b58Encode(full), nil
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DecodeAddress parses a standard Monero public address string, verifying
// its checksum, and returns the spend/view public keys it encodes.
func DecodeAddress(address string) (spend, view *PublicKey, prefix byte, err error) {
	raw, err := b58Decode(address)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(raw) != 1+32+32+4 {
		return nil, nil, 0, fmt.Errorf("monero: address has wrong length %d", len(raw))
	}

	body, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	want := keccak256(body)
	for i := 0; i < 4; i++ {
		if checksum[i] != want[i] {
			return nil, nil, 0, fmt.Errorf("monero: address checksum mismatch")
		}
	}

	var spendBytes, viewBytes [32]byte
	copy(spendBytes[:], body[1:33])
	copy(viewBytes[:], body[33:65])

	spendKey, err := PublicKeyFromBytes(spendBytes)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("monero: invalid spend key: %w", err)
	}
	viewKey, err := PublicKeyFromBytes(viewBytes)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("monero: invalid view key: %w", err)
	}

	return spendKey, viewKey, body[0], nil
}

// SharedViewPair combines each party's spend public key and view private
// key into the 2-of-2 shared account ViewPair, per spec.md §3: the shared
// spend key is only ever a public point (neither party alone holds its
// private scalar), while the shared view key is a private scalar both
// parties can independently compute and use to scan the chain.
func SharedViewPair(selfSpend, peerSpend *PublicKey, selfView, peerView *PrivateKey) ViewPair {
	return ViewPair{
		Spend: selfSpend.Add(peerSpend),
		View:  selfView.Add(peerView),
	}
}
