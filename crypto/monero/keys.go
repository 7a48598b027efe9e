// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package monero provides the ed25519 key material used on the Monero leg
// of a swap: the spend and view scalar halves each party contributes to a
// 2-of-2 shared account, their point projections, and stealth-address
// derivation via Monero's own base58 encoding.
package monero

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
)

// PrivateKey is an ed25519 scalar, serialized little-endian per spec.md §9.
type PrivateKey struct {
	scalar *edwards25519.Scalar
}

// RandomPrivateKey generates a uniformly random scalar.
func RandomPrivateKey() (*PrivateKey, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, err
	}
	return &PrivateKey{scalar: s}, nil
}

// PrivateKeyFromLittleEndianBytes parses a 32-byte little-endian scalar,
// reducing modulo the ed25519 group order the way Monero's
// `PrivateKey::from_slice`/`Scalar::from_bytes_mod_order` does.
func PrivateKeyFromLittleEndianBytes(b [32]byte) (*PrivateKey, error) {
	wide := make([]byte, 64)
	copy(wide, b[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide)
	if err != nil {
		return nil, fmt.Errorf("monero: invalid scalar: %w", err)
	}
	return &PrivateKey{scalar: s}, nil
}

// Scalar returns the underlying edwards25519 scalar.
func (k *PrivateKey) Scalar() *edwards25519.Scalar {
	return k.scalar
}

// Bytes returns the 32-byte little-endian encoding.
func (k *PrivateKey) Bytes() [32]byte {
	var out [32]byte
	copy(out[:], k.scalar.Bytes())
	return out
}

// Add returns a new PrivateKey whose scalar is k + other (mod L). This is
// the shared-view-key construction from spec.md §3: `view = self.view +
// peer.view`.
func (k *PrivateKey) Add(other *PrivateKey) *PrivateKey {
	sum := edwards25519.NewScalar().Add(k.scalar, other.scalar)
	return &PrivateKey{scalar: sum}
}

// PublicKey returns the point scalar*B (B the ed25519 basepoint).
func (k *PrivateKey) PublicKey() *PublicKey {
	p := new(edwards25519.Point).ScalarBaseMult(k.scalar)
	return &PublicKey{point: p}
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
		return fmt.Errorf("monero: invalid private key hex: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("monero: private key must be 32 bytes, got %d", len(raw))
	}
	var arr [32]byte
	copy(arr[:], raw)
	parsed, err := PrivateKeyFromLittleEndianBytes(arr)
	if err != nil {
		return err
	}
	k.scalar = parsed.scalar
	return nil
}

// PublicKey is an ed25519 point.
type PublicKey struct {
	point *edwards25519.Point
}

// PublicKeyFromBytes parses a 32-byte compressed ed25519 point.
func PublicKeyFromBytes(b [32]byte) (*PublicKey, error) {
	p, err := new(edwards25519.Point).SetBytes(b[:])
	if err != nil {
		return nil, fmt.Errorf("monero: invalid point: %w", err)
	}
	return &PublicKey{point: p}, nil
}

// Point returns the underlying edwards25519 point.
func (k *PublicKey) Point() *edwards25519.Point {
	return k.point
}

// Bytes returns the 32-byte compressed encoding.
func (k *PublicKey) Bytes() [32]byte {
	var out [32]byte
	copy(out[:], k.point.Bytes())
	return out
}

// Add returns a new PublicKey that is the curve sum of k and other. This
// implements the additive shared-key property from spec.md §8 invariant 2:
// PubFromPriv(a+b) = PubFromPriv(a) + PubFromPriv(b).
func (k *PublicKey) Add(other *PublicKey) *PublicKey {
	sum := new(edwards25519.Point).Add(k.point, other.point)
	return &PublicKey{point: sum}
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
		return fmt.Errorf("monero: invalid public key hex: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("monero: public key must be 32 bytes, got %d", len(raw))
	}
	var arr [32]byte
	copy(arr[:], raw)
	parsed, err := PublicKeyFromBytes(arr)
	if err != nil {
		return err
	}
	k.point = parsed.point
	return nil
}

// KeyPair is a private/public scalar/point pair for one half (spend or
// view) of a Monero account.
type KeyPair struct {
	Private *PrivateKey
	Public  *PublicKey
}

// NewKeyPairFromPrivate derives the public half of a private scalar.
func NewKeyPairFromPrivate(priv *PrivateKey) *KeyPair {
	return &KeyPair{Private: priv, Public: priv.PublicKey()}
}

// ViewPair is the (spend public, view private) pair needed to scan and
// recognize incoming outputs to a Monero account — enough to watch an
// address without being able to spend from it, per spec.md's "Shared
// Monero view pair".
type ViewPair struct {
	Spend *PublicKey
	View  *PrivateKey
}
