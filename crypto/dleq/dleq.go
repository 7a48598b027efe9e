// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package dleq implements a cross-curve discrete-log-equality proof
// binding a secp256k1 public key to an ed25519 public key: it proves, for
// some scalar x, that the secp256k1 point equals x*G and the ed25519
// point equals x*B, without revealing x. The swap protocol uses this to
// bind a party's Monero spend scalar to the same scalar's secp256k1
// reinterpretation as their adaptor-signature encryption key — without it
// a peer could present unrelated keys on the two chains and break the
// revelation property the swap depends on.
//
// The construction decomposes x into bits and commits to each bit
// independently on both curves using a pair of fixed, discrete-log-unknown
// Pedersen generators (H_secp, H_ed); a Chaum-Pedersen OR proof per bit
// shows the bit is 0 or 1 and that both curves' commitments open to the
// same bit, and the blinding factors on each curve are chosen to sum to
// zero so the bit commitments telescope into the claimed public points.
package dleq

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

// numBits covers the full range of an ed25519 scalar (the group order L is
// just over 2^252), which is always the smaller of the two curve orders
// and therefore the binding constraint on x.
const numBits = 253

var (
	hSecp = bch.HashToPoint("bch-xmr-swap/dleq/secp256k1/H")
	hEd   = hashToEdwardsPoint("bch-xmr-swap/dleq/ed25519/H")
	gEd   = edwards25519.NewGeneratorPoint()
)

func hashToEdwardsPoint(label string) *edwards25519.Point {
	for counter := uint32(0); ; counter++ {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", label, counter)))
		if p, err := new(edwards25519.Point).SetBytes(h[:]); err == nil {
			return p
		}
	}
}

var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

func mod256(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, twoTo256)
}

// bigIntTo32Bytes renders v as a 32-byte big-endian integer, wrapping mod
// 2^256.
func bigIntTo32Bytes(v *big.Int) [32]byte {
	var out [32]byte
	mod256(v).FillBytes(out[:])
	return out
}

func secpScalarFromBigInt(v *big.Int) *secp256k1.ModNScalar {
	b := bigIntTo32Bytes(v)
	var s secp256k1.ModNScalar
	s.SetByteSlice(b[:])
	return &s
}

func edScalarFromBigInt(v *big.Int) *edwards25519.Scalar {
	b := bigIntTo32Bytes(v)
	le := make([]byte, 64)
	for i := 0; i < 32; i++ {
		le[i] = b[31-i]
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(le)
	if err != nil {
		panic(err)
	}
	return s
}

func randomBigInt256() *big.Int {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return new(big.Int).SetBytes(b[:])
}

func randomSecpScalar() *secp256k1.ModNScalar {
	priv, err := bch.RandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return priv.Scalar()
}

func randomEdScalar() *edwards25519.Scalar {
	priv, err := monero.RandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return priv.Scalar()
}

func secpScalarCopy(s *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := *s
	return &out
}

func secpGenerator() *secp256k1.PublicKey {
	one := new(secp256k1.ModNScalar).SetInt(1)
	return bch.ScalarBaseMult(one)
}

// bitProof is a Chaum-Pedersen OR proof over a single bit's commitments on
// both curves: it proves the committed bit is 0 or 1 with the same
// blinding structure underlying both curves' commitments.
type bitProof struct {
	commitSecp *secp256k1.PublicKey
	commitEd   *edwards25519.Point

	aSecp0, aSecp1 *secp256k1.PublicKey
	aEd0, aEd1     *edwards25519.Point

	e0, e1 *big.Int

	zSecp0, zSecp1 *secp256k1.ModNScalar
	zEd0, zEd1     *edwards25519.Scalar
}

// Proof is a non-interactive cross-curve DLEQ proof.
type Proof struct {
	bits []*bitProof
}

func transcriptChallenge(label []byte, points ...[]byte) *big.Int {
	h := sha256.New()
	h.Write(label)
	for _, p := range points {
		h.Write(p)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Prove builds a cross-curve DLEQ proof that secpPriv's integer value
// equals x*G on secp256k1 and x*B on ed25519. The caller is expected to
// have derived its ed25519 key from this same integer (the convention
// established at the one true generation site: the ed25519 key's
// little-endian bytes, reversed, equal secpPriv's big-endian bytes) —
// Verify is what actually checks the claimed ed25519 point agrees.
func Prove(secpPriv *bch.PrivateKey) (*Proof, error) {
	xBytes := secpPriv.Bytes()
	x := new(big.Int).SetBytes(xBytes[:])
	if x.BitLen() > numBits {
		return nil, errors.New("dleq: scalar out of provable range")
	}

	bits := make([]byte, numBits)
	for i := 0; i < numBits; i++ {
		bits[i] = byte(x.Bit(i))
	}

	secpBlinds := make([]*secp256k1.ModNScalar, numBits)
	edBlinds := make([]*edwards25519.Scalar, numBits)

	secpSum := new(secp256k1.ModNScalar)
	edSum := edwards25519.NewScalar()

	for i := 0; i < numBits-1; i++ {
		secpBlinds[i] = randomSecpScalar()
		edBlinds[i] = randomEdScalar()

		weight := new(big.Int).Lsh(big.NewInt(1), uint(i))
		secpW := secpScalarFromBigInt(weight)
		edW := edScalarFromBigInt(weight)

		secpSum.Add(secpScalarCopy(secpBlinds[i]).Mul(secpW))
		edSum.Add(edSum, edwards25519.NewScalar().Multiply(edBlinds[i], edW))
	}

	lastWeight := new(big.Int).Lsh(big.NewInt(1), uint(numBits-1))
	secpLastW := secpScalarFromBigInt(lastWeight)
	edLastW := edScalarFromBigInt(lastWeight)

	secpLastWInv := secpScalarCopy(secpLastW)
	secpLastWInv.InverseNonConst()
	negSecpSum := secpScalarCopy(secpSum)
	negSecpSum.Negate()
	secpBlinds[numBits-1] = secpScalarCopy(negSecpSum).Mul(secpLastWInv)

	edLastWInv := new(edwards25519.Scalar).Invert(edLastW)
	negEdSum := new(edwards25519.Scalar).Negate(edSum)
	edBlinds[numBits-1] = new(edwards25519.Scalar).Multiply(negEdSum, edLastWInv)

	bps := make([]*bitProof, numBits)
	for i := 0; i < numBits; i++ {
		bp, err := proveBit(bits[i], secpBlinds[i], edBlinds[i], i)
		if err != nil {
			return nil, err
		}
		bps[i] = bp
	}

	return &Proof{bits: bps}, nil
}

func proveBit(bit byte, rSecp *secp256k1.ModNScalar, rEd *edwards25519.Scalar, index int) (*bitProof, error) {
	commitSecp := bch.ScalarMultPoint(rSecp, hSecp)
	commitEd := new(edwards25519.Point).ScalarMult(rEd, hEd)
	if bit == 1 {
		commitSecp = bch.AddPoints(commitSecp, secpGenerator())
		commitEd = new(edwards25519.Point).Add(commitEd, gEd)
	}

	bp := &bitProof{commitSecp: commitSecp, commitEd: commitEd}

	// Real branch is `bit`; simulate the other branch.
	simBranch := byte(1) - bit

	simESecp := randomBigInt256()
	simZSecp := randomSecpScalar()
	simZEd := randomEdScalar()

	statementSecp := bp.commitSecp
	statementEd := bp.commitEd
	if simBranch == 1 {
		statementSecp = bch.SubPoints(bp.commitSecp, secpGenerator())
		statementEd = new(edwards25519.Point).Subtract(bp.commitEd, gEd)
	}

	simEScalarSecp := secpScalarFromBigInt(simESecp)
	simAaSecp := bch.SubPoints(bch.ScalarMultPoint(simZSecp, hSecp), bch.ScalarMultPoint(simEScalarSecp, statementSecp))

	simEScalarEd := edScalarFromBigInt(simESecp)
	simAaEd := new(edwards25519.Point).Subtract(
		new(edwards25519.Point).ScalarMult(simZEd, hEd),
		new(edwards25519.Point).ScalarMult(simEScalarEd, statementEd),
	)

	// Real branch commitment.
	kSecp := randomSecpScalar()
	kEd := randomEdScalar()
	realASecp := bch.ScalarMultPoint(kSecp, hSecp)
	realAEd := new(edwards25519.Point).ScalarMult(kEd, hEd)

	var a0Secp, a1Secp *secp256k1.PublicKey
	var a0Ed, a1Ed *edwards25519.Point
	if bit == 0 {
		a0Secp, a1Secp = realASecp, simAaSecp
		a0Ed, a1Ed = realAEd, simAaEd
	} else {
		a0Secp, a1Secp = simAaSecp, realASecp
		a0Ed, a1Ed = simAaEd, realAEd
	}

	e := transcriptChallenge(
		[]byte(fmt.Sprintf("bch-xmr-swap/dleq/bit/%d", index)),
		bp.commitSecp.SerializeCompressed(), bp.commitEd.Bytes(),
		a0Secp.SerializeCompressed(), a0Ed.Bytes(),
		a1Secp.SerializeCompressed(), a1Ed.Bytes(),
	)

	var e0, e1 *big.Int
	var zSecp0, zSecp1 *secp256k1.ModNScalar
	var zEd0, zEd1 *edwards25519.Scalar

	if bit == 0 {
		e1 = simESecp
		e0 = mod256(new(big.Int).Sub(e, e1))
		e0Secp := secpScalarFromBigInt(e0)
		e0Ed := edScalarFromBigInt(e0)

		zSecp0 = secpScalarCopy(kSecp)
		zSecp0.Add(secpScalarCopy(rSecp).Mul(e0Secp))
		zEd0 = edwards25519.NewScalar().Add(kEd, edwards25519.NewScalar().Multiply(rEd, e0Ed))

		e1, zSecp1, zEd1 = simESecp, simZSecp, simZEd
	} else {
		e0 = simESecp
		e1 = mod256(new(big.Int).Sub(e, e0))
		e1Secp := secpScalarFromBigInt(e1)
		e1Ed := edScalarFromBigInt(e1)

		zSecp1 = secpScalarCopy(kSecp)
		zSecp1.Add(secpScalarCopy(rSecp).Mul(e1Secp))
		zEd1 = edwards25519.NewScalar().Add(kEd, edwards25519.NewScalar().Multiply(rEd, e1Ed))

		e0, zSecp0, zEd0 = simESecp, simZSecp, simZEd
	}

	bp.aSecp0, bp.aSecp1 = a0Secp, a1Secp
	bp.aEd0, bp.aEd1 = a0Ed, a1Ed
	bp.e0, bp.e1 = e0, e1
	bp.zSecp0, bp.zSecp1 = zSecp0, zSecp1
	bp.zEd0, bp.zEd1 = zEd0, zEd1

	return bp, nil
}

// Verify checks proof against the claimed secp256k1 and ed25519 public
// points.
func Verify(proof *Proof, secpPub *bch.PublicKey, edPub *monero.PublicKey) error {
	if len(proof.bits) != numBits {
		return errors.New("dleq: wrong number of bit proofs")
	}

	var secpSum *secp256k1.PublicKey
	var edSum *edwards25519.Point

	for i, bp := range proof.bits {
		if err := verifyBit(bp, i); err != nil {
			return fmt.Errorf("dleq: bit %d: %w", i, err)
		}

		weight := new(big.Int).Lsh(big.NewInt(1), uint(i))
		wSecp := secpScalarFromBigInt(weight)
		wEd := edScalarFromBigInt(weight)

		termSecp := bch.ScalarMultPoint(wSecp, bp.commitSecp)
		termEd := new(edwards25519.Point).ScalarMult(wEd, bp.commitEd)

		if secpSum == nil {
			secpSum, edSum = termSecp, termEd
		} else {
			secpSum = bch.AddPoints(secpSum, termSecp)
			edSum = new(edwards25519.Point).Add(edSum, termEd)
		}
	}

	if !bch.PointsEqual(secpSum, secpPub.Point()) {
		return errors.New("dleq: secp256k1 commitment sum mismatch")
	}

	edPubBytes := edPub.Bytes()
	if string(edSum.Bytes()) != string(edPubBytes[:]) {
		return errors.New("dleq: ed25519 commitment sum mismatch")
	}

	return nil
}

func verifyBit(bp *bitProof, index int) error {
	e := transcriptChallenge(
		[]byte(fmt.Sprintf("bch-xmr-swap/dleq/bit/%d", index)),
		bp.commitSecp.SerializeCompressed(), bp.commitEd.Bytes(),
		bp.aSecp0.SerializeCompressed(), bp.aEd0.Bytes(),
		bp.aSecp1.SerializeCompressed(), bp.aEd1.Bytes(),
	)

	sumE := mod256(new(big.Int).Add(bp.e0, bp.e1))
	if sumE.Cmp(mod256(e)) != 0 {
		return errors.New("challenge split does not reconstruct transcript hash")
	}

	e0Secp := secpScalarFromBigInt(bp.e0)
	e0Ed := edScalarFromBigInt(bp.e0)
	e1Secp := secpScalarFromBigInt(bp.e1)
	e1Ed := edScalarFromBigInt(bp.e1)

	lhsSecp0 := bch.ScalarMultPoint(bp.zSecp0, hSecp)
	rhsSecp0 := bch.AddPoints(bp.aSecp0, bch.ScalarMultPoint(e0Secp, bp.commitSecp))
	if !bch.PointsEqual(lhsSecp0, rhsSecp0) {
		return errors.New("branch 0 secp256k1 equation failed")
	}

	lhsEd0 := new(edwards25519.Point).ScalarMult(bp.zEd0, hEd)
	rhsEd0 := new(edwards25519.Point).Add(bp.aEd0, new(edwards25519.Point).ScalarMult(e0Ed, bp.commitEd))
	if string(lhsEd0.Bytes()) != string(rhsEd0.Bytes()) {
		return errors.New("branch 0 ed25519 equation failed")
	}

	commitSecpMinusG := bch.SubPoints(bp.commitSecp, secpGenerator())
	commitEdMinusG := new(edwards25519.Point).Subtract(bp.commitEd, gEd)

	lhsSecp1 := bch.ScalarMultPoint(bp.zSecp1, hSecp)
	rhsSecp1 := bch.AddPoints(bp.aSecp1, bch.ScalarMultPoint(e1Secp, commitSecpMinusG))
	if !bch.PointsEqual(lhsSecp1, rhsSecp1) {
		return errors.New("branch 1 secp256k1 equation failed")
	}

	lhsEd1 := new(edwards25519.Point).ScalarMult(bp.zEd1, hEd)
	rhsEd1 := new(edwards25519.Point).Add(bp.aEd1, new(edwards25519.Point).ScalarMult(e1Ed, commitEdMinusG))
	if string(lhsEd1.Bytes()) != string(rhsEd1.Bytes()) {
		return errors.New("branch 1 ed25519 equation failed")
	}

	return nil
}
