// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package adaptor implements the ECDSA adaptor-signature primitive this
// system uses to bind revealing a valid BCH signature to revealing a
// Monero spend scalar: encrypted_sign produces a "pre-signature" bound to
// an encryption public key; decrypt_signature turns it into an ordinary
// signature using that key's discrete log; recover_decryption_key runs the
// process in reverse, extracting the discrete log from the pair of
// pre-signature and completed signature.
package adaptor

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

// halfOrder is (secp256k1 group order - 1) / 2, used to enforce the
// low-S signature form BCH scripts require.
var halfOrder = mustScalarFromHex("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF5D576E7357A4501DDFE92F46681B20A0")

func mustScalarFromHex(s string) *secp256k1.ModNScalar {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	var out secp256k1.ModNScalar
	out.SetByteSlice(b)
	return &out
}

// Signature is a plain ECDSA signature, low-S normalized.
type Signature struct {
	R *secp256k1.ModNScalar
	S *secp256k1.ModNScalar
}

// DER encodes the signature using DER, the form BCH unlocking scripts push.
func (s *Signature) DER() []byte {
	rBytes := s.R.Bytes()
	sBytes := s.S.Bytes()
	rDer := encodeDERInt(rBytes[:])
	sDer := encodeDERInt(sBytes[:])
	body := make([]byte, 0, len(rDer)+len(sDer))
	body = append(body, rDer...)
	body = append(body, sDer...)
	out := make([]byte, 0, len(body)+2)
	out = append(out, 0x30, byte(len(body)))
	return append(out, body...)
}

func encodeDERInt(v []byte) []byte {
	for len(v) > 1 && v[0] == 0 {
		v = v[1:]
	}
	if len(v) > 0 && v[0]&0x80 != 0 {
		v = append([]byte{0x00}, v...)
	}
	out := []byte{0x02, byte(len(v))}
	return append(out, v...)
}

// Bytes returns the 64-byte big-endian R||S encoding used on the wire
// (spec.md §9 hex-encodes everything, but a DER signature already carries
// its own length prefixes, so the raw scalar pair is used instead here).
func (s *Signature) Bytes() [64]byte {
	var out [64]byte
	r := s.R.Bytes()
	sv := s.S.Bytes()
	copy(out[:32], r[:])
	copy(out[32:], sv[:])
	return out
}

// SignatureFromBytes parses a 64-byte R||S encoding.
func SignatureFromBytes(b [64]byte) (*Signature, error) {
	var r, s secp256k1.ModNScalar
	var rb, sb [32]byte
	copy(rb[:], b[:32])
	copy(sb[:], b[32:])
	if overflow := r.SetBytes(&rb); overflow != 0 {
		return nil, errors.New("adaptor: r overflows group order")
	}
	if overflow := s.SetBytes(&sb); overflow != 0 {
		return nil, errors.New("adaptor: s overflows group order")
	}
	return &Signature{R: &r, S: &s}, nil
}

// SignatureFromDER parses the DER encoding DER produces: a SEQUENCE of two
// INTEGERs, big-endian, per spec.md §4.4's runner obligation to extract a
// completed signature from an observed unlocking script.
func SignatureFromDER(der []byte) (*Signature, error) {
	if len(der) < 2 || der[0] != 0x30 {
		return nil, errors.New("adaptor: not a DER sequence")
	}
	body := der[2:]
	if int(der[1]) != len(body) {
		return nil, errors.New("adaptor: DER sequence length mismatch")
	}

	rBytes, rest, err := decodeDERInt(body)
	if err != nil {
		return nil, err
	}
	sBytes, rest, err := decodeDERInt(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("adaptor: trailing bytes after DER signature")
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(rBytes); overflow {
		return nil, errors.New("adaptor: r overflows group order")
	}
	if overflow := s.SetByteSlice(sBytes); overflow {
		return nil, errors.New("adaptor: s overflows group order")
	}
	return &Signature{R: &r, S: &s}, nil
}

func decodeDERInt(b []byte) (value []byte, rest []byte, err error) {
	if len(b) < 2 || b[0] != 0x02 {
		return nil, nil, errors.New("adaptor: expected DER integer")
	}
	n := int(b[1])
	if len(b) < 2+n {
		return nil, nil, errors.New("adaptor: truncated DER integer")
	}
	v := b[2 : 2+n]
	for len(v) > 1 && v[0] == 0 {
		v = v[1:]
	}
	return v, b[2+n:], nil
}

// MarshalJSON implements json.Marshaler, serialising as a hex string the
// same way the rest of this module's crypto types do.
func (s *Signature) MarshalJSON() ([]byte, error) {
	b := s.Bytes()
	return json.Marshal(hex.EncodeToString(b[:]))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	raw, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("adaptor: invalid signature hex: %w", err)
	}
	if len(raw) != 64 {
		return fmt.Errorf("adaptor: signature must be 64 bytes, got %d", len(raw))
	}
	var arr [64]byte
	copy(arr[:], raw)
	parsed, err := SignatureFromBytes(arr)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// EncryptedSignature is the "pre-signature" produced by EncryptedSign: it
// verifies only once decrypted with the encryption key's discrete log.
type EncryptedSignature struct {
	// RHat is k*Y, the nonce point scaled by the encryption public key.
	RHat *secp256k1.PublicKey
	// SHat is the encrypted s-component.
	SHat *secp256k1.ModNScalar
}

// Bytes returns the 65-byte wire encoding: RHat's compressed point
// (33 bytes) followed by SHat's big-endian scalar (32 bytes).
func (e *EncryptedSignature) Bytes() [65]byte {
	var out [65]byte
	copy(out[:33], e.RHat.SerializeCompressed())
	s := e.SHat.Bytes()
	copy(out[33:], s[:])
	return out
}

// EncryptedSignatureFromBytes parses the 65-byte wire encoding produced
// by Bytes.
func EncryptedSignatureFromBytes(b [65]byte) (*EncryptedSignature, error) {
	rHat, err := secp256k1.ParsePubKey(b[:33])
	if err != nil {
		return nil, fmt.Errorf("adaptor: invalid RHat: %w", err)
	}
	var sb [32]byte
	copy(sb[:], b[33:])
	var sHat secp256k1.ModNScalar
	if overflow := sHat.SetBytes(&sb); overflow != 0 {
		return nil, errors.New("adaptor: SHat overflows group order")
	}
	return &EncryptedSignature{RHat: rHat, SHat: &sHat}, nil
}

func scalarCopy(s *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := *s
	return &out
}

func scalarAdd(a, b *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := scalarCopy(a)
	out.Add(b)
	return out
}

func scalarMul(a, b *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := scalarCopy(a)
	out.Mul(b)
	return out
}

func scalarInverse(a *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := scalarCopy(a)
	out.InverseNonConst()
	return out
}

func scalarNegate(a *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	out := scalarCopy(a)
	out.Negate()
	return out
}

func scalarsEqual(a, b *secp256k1.ModNScalar) bool {
	return a.Equals(b)
}

func hashToScalar(message [32]byte) *secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(message[:])
	return &s
}

// xCoordMod reduces a point's affine x-coordinate modulo the group order,
// the "r" component of an ECDSA signature.
func xCoordMod(p *secp256k1.PublicKey) *secp256k1.ModNScalar {
	xb := p.X().Bytes()
	var s secp256k1.ModNScalar
	s.SetByteSlice(xb[:])
	return &s
}

// deterministicNonce derives the per-signature nonce from the signer's
// scalar, the encryption point, and the message, so encrypted_sign is
// reproducible for the same inputs without ever reusing a nonce across
// distinct (signer, encryption key, message) triples.
func deterministicNonce(signer *secp256k1.ModNScalar, encryptionKey *secp256k1.PublicKey, message [32]byte) *secp256k1.ModNScalar {
	signerBytes := signer.Bytes()
	encBytes := encryptionKey.SerializeCompressed()

	for counter := byte(0); ; counter++ {
		mac := hmac.New(sha256.New, signerBytes[:])
		mac.Write(encBytes)
		mac.Write(message[:])
		mac.Write([]byte{counter})
		sum := mac.Sum(nil)

		var k secp256k1.ModNScalar
		overflow := k.SetByteSlice(sum)
		if !overflow && !k.IsZero() {
			return &k
		}
	}
}

// EncryptedSign produces a pre-signature over message, encrypted under
// encryptionKey, using signer's private key. This is Bob or Alice's VES
// key signing the counterparty's refund/swaplock spend, with the signature
// withheld until the counterparty reveals the discrete log of
// encryptionKey (their Monero spend scalar).
func EncryptedSign(signer *bch.PrivateKey, encryptionKey *bch.PublicKey, message [32]byte) (*EncryptedSignature, error) {
	k := deterministicNonce(signer.Scalar(), encryptionKey.Point(), message)

	rHat := bch.ScalarMultPoint(k, encryptionKey.Point())
	r := xCoordMod(rHat)
	if r.IsZero() {
		return nil, errors.New("adaptor: nonce produced zero r, message must change")
	}

	kInv := scalarInverse(k)
	e := hashToScalar(message)
	rx := scalarMul(r, signer.Scalar())
	sHat := scalarMul(kInv, scalarAdd(e, rx))
	if sHat.IsZero() {
		return nil, errors.New("adaptor: degenerate signature, s is zero")
	}

	return &EncryptedSignature{RHat: rHat, SHat: sHat}, nil
}

// DecryptSignature completes a pre-signature using decryptionKey, the
// Monero scalar whose secp256k1 reinterpretation is encryptionKey's
// discrete log. Per spec, decryptionKey's little-endian bytes are reversed
// into secp256k1's big-endian convention before use.
func DecryptSignature(decryptionKey *monero.PrivateKey, enc *EncryptedSignature) (*Signature, error) {
	edBytes := decryptionKey.Bytes()
	reversed := common.Reverse(edBytes[:])
	var beBytes [32]byte
	copy(beBytes[:], reversed)

	y, err := bch.PrivateKeyFromScalar(beBytes)
	if err != nil {
		return nil, err
	}

	r := xCoordMod(enc.RHat)
	yInv := scalarInverse(y.Scalar())
	s := scalarMul(enc.SHat, yInv)

	sBytes := s.Bytes()
	halfBytes := halfOrder.Bytes()
	if bytes.Compare(sBytes[:], halfBytes[:]) > 0 {
		s = scalarNegate(s)
	}

	return &Signature{R: r, S: s}, nil
}

// Verify checks an ordinary ECDSA signature against signer's public key
// and message.
func Verify(signer *bch.PublicKey, message [32]byte, sig *Signature) bool {
	if sig.R.IsZero() || sig.S.IsZero() {
		return false
	}

	sInv := scalarInverse(sig.S)
	e := hashToScalar(message)
	u1 := scalarMul(e, sInv)
	u2 := scalarMul(sig.R, sInv)

	p1 := bch.ScalarBaseMult(u1)
	p2 := bch.ScalarMultPoint(u2, signer.Point())
	rPrime := bch.AddPoints(p1, p2)

	return scalarsEqual(xCoordMod(rPrime), sig.R)
}

// RecoverDecryptionKey inverts EncryptedSign: given the completed
// signature that resulted from decrypting enc with some scalar, and
// pubkey (the claimed encryption public key Y), recovers that scalar as a
// Monero private key. Returned bytes are produced by reversing the
// recovered big-endian secp256k1 scalar into ed25519's little-endian
// convention.
func RecoverDecryptionKey(pubkey *bch.PublicKey, sig *Signature, enc *EncryptedSignature) (*monero.PrivateKey, error) {
	sInv := scalarInverse(sig.S)
	y := scalarMul(enc.SHat, sInv)

	// ECDSA's low-S normalization during DecryptSignature may have
	// flipped the sign of s relative to the original sHat/y relation;
	// disambiguate by checking which of y, -y reproduces pubkey.
	candidate := bch.ScalarBaseMult(y)
	if !bch.PointsEqual(candidate, pubkey.Point()) {
		y = scalarNegate(y)
		candidate = bch.ScalarBaseMult(y)
		if !bch.PointsEqual(candidate, pubkey.Point()) {
			return nil, errors.New("adaptor: recovered scalar does not match claimed encryption key")
		}
	}

	beBytes := y.Bytes()
	reversed := common.Reverse(beBytes[:])
	var leBytes [32]byte
	copy(leBytes[:], reversed)

	return monero.PrivateKeyFromLittleEndianBytes(leBytes)
}
