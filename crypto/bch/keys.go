// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package bch provides the secp256k1 key material used on the BCH leg of a
// swap: the VES signing key and the secp256k1 half of the shared spend key
// (spend_bch). Keys are thin wrappers around decred's secp256k1 scalar/point
// types so the adaptor-signature and DLEQ packages can operate on the same
// underlying representation.
package bch

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 requires ripemd160
)

// PrivateKey is a secp256k1 scalar.
type PrivateKey struct {
	scalar secp256k1.ModNScalar
}

// RandomPrivateKey generates a uniformly random, non-zero secp256k1 scalar.
func RandomPrivateKey() (*PrivateKey, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, err
		}
		var s secp256k1.ModNScalar
		overflow := s.SetBytes(&buf)
		if overflow == 0 && !s.IsZero() {
			return &PrivateKey{scalar: s}, nil
		}
	}
}

// PrivateKeyFromScalar wraps a raw 32-byte big-endian scalar as a PrivateKey.
// It is used at the adaptor-signature cross-curve hand-off sites where a
// Monero scalar has already been byte-reversed into secp256k1's big-endian
// convention.
func PrivateKeyFromScalar(b [32]byte) (*PrivateKey, error) {
	var s secp256k1.ModNScalar
	overflow := s.SetBytes(&b)
	if overflow != 0 {
		return nil, errors.New("bch: scalar overflows group order")
	}
	if s.IsZero() {
		return nil, errors.New("bch: scalar is zero")
	}
	return &PrivateKey{scalar: s}, nil
}

// Bytes returns the 32-byte big-endian encoding of the scalar.
func (k *PrivateKey) Bytes() [32]byte {
	return k.scalar.Bytes()
}

// Scalar returns the underlying secp256k1 scalar.
func (k *PrivateKey) Scalar() *secp256k1.ModNScalar {
	return &k.scalar
}

// PublicKey returns the public key scalar*G.
func (k *PrivateKey) PublicKey() *PublicKey {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k.scalar, &p)
	p.ToAffine()
	pk := secp256k1.NewPublicKey(&p.X, &p.Y)
	return &PublicKey{point: pk}
}

// WIF returns the Wallet Import Format encoding of the key (always
// compressed-pubkey style, as the rest of this system only ever derives
// compressed public keys).
func (k *PrivateKey) WIF(network byte) string {
	raw := k.Bytes()
	payload := make([]byte, 0, 33)
	payload = append(payload, raw[:]...)
	payload = append(payload, 0x01) // compressed marker
	return base58.CheckEncode(payload, network)
}

// String implements fmt.Stringer, serialising as a hex string per spec.md
// §9.
func (k *PrivateKey) String() string {
	b := k.Bytes()
	return hex.EncodeToString(b[:])
}

// MarshalJSON implements json.Marshaler, serialising as a hex string. The
// scalar field is unexported, so without this the zero-value JSON
// encoding would silently produce "{}" and lose the key entirely.
func (k *PrivateKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *PrivateKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bch: invalid private key hex: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("bch: private key must be 32 bytes, got %d", len(raw))
	}
	var arr [32]byte
	copy(arr[:], raw)
	parsed, err := PrivateKeyFromScalar(arr)
	if err != nil {
		return err
	}
	k.scalar = parsed.scalar
	return nil
}

// PublicKey is a secp256k1 point.
type PublicKey struct {
	point *secp256k1.PublicKey
}

// NewPublicKeyFromPoint wraps an existing decred public key point.
func NewPublicKeyFromPoint(p *secp256k1.PublicKey) *PublicKey {
	return &PublicKey{point: p}
}

// PublicKeyFromBytes parses a 33-byte compressed secp256k1 public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	p, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("bch: invalid public key: %w", err)
	}
	return &PublicKey{point: p}, nil
}

// Point returns the underlying decred public key.
func (k *PublicKey) Point() *secp256k1.PublicKey {
	return k.point
}

// Bytes returns the 33-byte compressed serialization.
func (k *PublicKey) Bytes() [33]byte {
	return *(*[33]byte)(k.point.SerializeCompressed())
}

// String implements fmt.Stringer, serialising as a hex string per spec.md
// §9.
func (k *PublicKey) String() string {
	b := k.Bytes()
	return hex.EncodeToString(b[:])
}

// MarshalJSON implements json.Marshaler, serialising as a hex string.
func (k *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bch: invalid public key hex: %w", err)
	}
	parsed, err := PublicKeyFromBytes(raw)
	if err != nil {
		return err
	}
	k.point = parsed.point
	return nil
}

// Hash160 returns RIPEMD160(SHA256(pubkey)), the standard BCH public-key
// hash used both in P2PKH scripts and P2SH covenant addresses.
func (k *PublicKey) Hash160() [20]byte {
	b := k.Bytes()
	return Hash160(b[:])
}

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// DoubleSHA256 computes SHA256(SHA256(data)), the message-domain hashing
// discipline spec.md §4.1 mandates for adaptor-signed messages.
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}
