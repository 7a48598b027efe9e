// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bch

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// AddPoints returns a+b on the secp256k1 curve.
func AddPoints(a, b *secp256k1.PublicKey) *secp256k1.PublicKey {
	var ja, jb, jr secp256k1.JacobianPoint
	a.AsJacobian(&ja)
	b.AsJacobian(&jb)
	secp256k1.AddNonConst(&ja, &jb, &jr)
	jr.ToAffine()
	return secp256k1.NewPublicKey(&jr.X, &jr.Y)
}

// NegatePoint returns -a on the secp256k1 curve.
func NegatePoint(a *secp256k1.PublicKey) *secp256k1.PublicKey {
	var ja secp256k1.JacobianPoint
	a.AsJacobian(&ja)
	ja.Y.Negate(1)
	ja.Y.Normalize()
	ja.ToAffine()
	return secp256k1.NewPublicKey(&ja.X, &ja.Y)
}

// SubPoints returns a-b on the secp256k1 curve.
func SubPoints(a, b *secp256k1.PublicKey) *secp256k1.PublicKey {
	return AddPoints(a, NegatePoint(b))
}

// ScalarMultPoint returns k*p on the secp256k1 curve.
func ScalarMultPoint(k *secp256k1.ModNScalar, p *secp256k1.PublicKey) *secp256k1.PublicKey {
	var jp, jr secp256k1.JacobianPoint
	p.AsJacobian(&jp)
	secp256k1.ScalarMultNonConst(k, &jp, &jr)
	jr.ToAffine()
	return secp256k1.NewPublicKey(&jr.X, &jr.Y)
}

// ScalarBaseMult returns k*G on the secp256k1 curve.
func ScalarBaseMult(k *secp256k1.ModNScalar) *secp256k1.PublicKey {
	var jr secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &jr)
	jr.ToAffine()
	return secp256k1.NewPublicKey(&jr.X, &jr.Y)
}

// PointsEqual reports whether a and b are the same affine point.
func PointsEqual(a, b *secp256k1.PublicKey) bool {
	return a.X().Equals(b.X()) && a.Y().Equals(b.Y())
}

// HashToPoint derives a secp256k1 point with unknown discrete log relative
// to G via try-and-increment: it is used to build the second Pedersen
// generator the cross-curve DLEQ proof commits bits against.
func HashToPoint(label string) *secp256k1.PublicKey {
	for counter := uint32(0); ; counter++ {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", label, counter)))
		candidate := append([]byte{0x02}, h[:]...)
		if p, err := secp256k1.ParsePubKey(candidate); err == nil {
			return p
		}
	}
}
