// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package cashaddr implements the CashAddr encoding used for BCH addresses:
// a version byte, a 20-byte hash160 payload, bit-repacked to base32 with a
// BCH-style polymod checksum. The algorithm and constants here are a direct
// translation of the original implementation's
// protocol/src/keys/bitcoin/address.rs, which is also this format's source
// of the test vector in spec.md §6.
package cashaddr

import (
	"errors"
	"strings"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// checksumPolyConstants are the five generator constants for the BCH
// polymod checksum, as specified in spec.md §4.3.
var checksumPolyConstants = [5]uint64{
	0x98f2bc8e61,
	0x79b76d99e2,
	0xf33e5fb3c4,
	0xae2eabe2a8,
	0x1e4f43e470,
}

// ErrInvalidChecksum is returned by Decode when the trailing checksum does
// not verify.
var ErrInvalidChecksum = errors.New("cashaddr: invalid checksum")

// ErrInvalidCharacter is returned by Decode when a character outside the
// base32 charset is encountered.
var ErrInvalidCharacter = errors.New("cashaddr: invalid character")

// ErrMalformed is returned by Decode when the address does not contain a
// "prefix:payload" separator or decodes to too few bytes.
var ErrMalformed = errors.New("cashaddr: malformed address")

func polymod(v []byte) uint64 {
	var c uint64 = 1
	for _, d := range v {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)

		if c0&0x01 != 0 {
			c ^= checksumPolyConstants[0]
		}
		if c0&0x02 != 0 {
			c ^= checksumPolyConstants[1]
		}
		if c0&0x04 != 0 {
			c ^= checksumPolyConstants[2]
		}
		if c0&0x08 != 0 {
			c ^= checksumPolyConstants[3]
		}
		if c0&0x10 != 0 {
			c ^= checksumPolyConstants[4]
		}
	}
	return c ^ 1
}

func prefixExpand(prefix string) []byte {
	expanded := make([]byte, 0, len(prefix)+1)
	for _, b := range []byte(prefix) {
		expanded = append(expanded, b&0x1F)
	}
	return append(expanded, 0)
}

func calculateChecksum(prefix string, payload []byte) []byte {
	combined := prefixExpand(prefix)
	combined = append(combined, payload...)
	combined = append(combined, 0, 0, 0, 0, 0, 0, 0, 0)

	poly := polymod(combined)

	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte((poly >> (5 * (7 - i))) & 0x1F)
	}
	return out
}

// convertBits repacks a byte slice from fromBits-per-element to
// toBits-per-element, padding the final group with zero bits when pad is
// true.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1<<toBits) - 1
	var out []byte

	for _, value := range data {
		acc = (acc << fromBits) | uint32(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || ((acc<<(toBits-bits))&maxv) != 0 {
		return nil, errors.New("cashaddr: invalid padding")
	}

	return out, nil
}

func b32encode(input []byte) string {
	var sb strings.Builder
	for _, c := range input {
		sb.WriteByte(charset[c])
	}
	return sb.String()
}

func b32decode(input string) ([]byte, error) {
	out := make([]byte, len(input))
	for i, r := range input {
		idx := strings.IndexRune(charset, r)
		if idx < 0 {
			return nil, ErrInvalidCharacter
		}
		out[i] = byte(idx)
	}
	return out, nil
}

// Encode returns the CashAddr string for a given hash (typically a 20-byte
// hash160) under the given prefix and version bit, per spec.md §4.3.
func Encode(hash []byte, prefix string, versionBit byte) string {
	payload := make([]byte, 0, len(hash)+1)
	payload = append(payload, versionBit)
	payload = append(payload, hash...)

	packed, err := convertBits(payload, 8, 5, true)
	if err != nil {
		// convertBits with pad=true never errors.
		panic(err)
	}

	checksum := calculateChecksum(prefix, packed)
	packed = append(packed, checksum...)

	return prefix + ":" + b32encode(packed)
}

// Decode parses a CashAddr string of the form "prefix:payload", verifying
// its checksum, and returns the prefix, version bit, and hash payload.
func Decode(address string) (prefix string, versionBit byte, hash []byte, err error) {
	parts := strings.SplitN(address, ":", 2)
	if len(parts) != 2 {
		return "", 0, nil, ErrMalformed
	}
	prefix, body := parts[0], parts[1]

	decoded, err := b32decode(body)
	if err != nil {
		return "", 0, nil, err
	}
	if len(decoded) < 9 {
		return "", 0, nil, ErrMalformed
	}

	payload, checksum := decoded[:len(decoded)-8], decoded[len(decoded)-8:]

	combined := prefixExpand(prefix)
	combined = append(combined, payload...)
	combined = append(combined, checksum...)
	if polymod(combined) != 0 {
		return "", 0, nil, ErrInvalidChecksum
	}

	unpacked, err := convertBits(payload, 5, 8, false)
	if err != nil || len(unpacked) < 1 {
		return "", 0, nil, ErrMalformed
	}

	return prefix, unpacked[0], unpacked[1:], nil
}
