// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"encoding/binary"
	"errors"

	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
)

// ErrMalformedTx is returned by DecodeTransaction for any input that does
// not parse as a well-formed legacy Bitcoin Cash transaction. The chain
// observer treats this the same as "transaction does not classify" —
// never a panic, per spec.md §9.
var ErrMalformedTx = errors.New("contract: malformed transaction")

type byteReader struct {
	b []byte
	i int
}

func (r *byteReader) readBytes(n int) ([]byte, bool) {
	if n < 0 || r.i+n > len(r.b) {
		return nil, false
	}
	out := r.b[r.i : r.i+n]
	r.i += n
	return out, true
}

func (r *byteReader) readUint32() (uint32, bool) {
	b, ok := r.readBytes(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (r *byteReader) readUint64() (uint64, bool) {
	b, ok := r.readBytes(8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// readVarInt decodes Bitcoin's CompactSize varint encoding.
func (r *byteReader) readVarInt() (uint64, bool) {
	b, ok := r.readBytes(1)
	if !ok {
		return 0, false
	}
	switch b[0] {
	case 0xfd:
		v, ok := r.readBytes(2)
		if !ok {
			return 0, false
		}
		return uint64(binary.LittleEndian.Uint16(v)), true
	case 0xfe:
		v, ok := r.readUint32()
		return uint64(v), ok
	case 0xff:
		return r.readUint64()
	default:
		return uint64(b[0]), true
	}
}

// DecodeTransaction parses a legacy (non-SegWit; BCH has no SegWit)
// serialized transaction into the minimal structure AnalyzeTx needs.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	r := &byteReader{b: raw}

	if _, ok := r.readUint32(); !ok { // version
		return nil, ErrMalformedTx
	}

	inCount, ok := r.readVarInt()
	if !ok {
		return nil, ErrMalformedTx
	}

	inputs := make([]TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		txidLE, ok := r.readBytes(32)
		if !ok {
			return nil, ErrMalformedTx
		}
		var txid [32]byte
		// Bitcoin serializes txids internally byte-reversed from their
		// conventional display order; OutPoint.TxID stores the same
		// internal (little-endian) order AnalyzeTx compares against.
		copy(txid[:], txidLE)

		vout, ok := r.readUint32()
		if !ok {
			return nil, ErrMalformedTx
		}

		scriptLen, ok := r.readVarInt()
		if !ok {
			return nil, ErrMalformedTx
		}
		script, ok := r.readBytes(int(scriptLen))
		if !ok {
			return nil, ErrMalformedTx
		}

		if _, ok := r.readUint32(); !ok { // sequence
			return nil, ErrMalformedTx
		}

		inputs = append(inputs, TxIn{
			PreviousOutpoint: OutPoint{TxID: txid, Vout: vout},
			ScriptSig:        append([]byte(nil), script...),
		})
	}

	outCount, ok := r.readVarInt()
	if !ok {
		return nil, ErrMalformedTx
	}

	outputs := make([]TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		value, ok := r.readUint64()
		if !ok {
			return nil, ErrMalformedTx
		}

		scriptLen, ok := r.readVarInt()
		if !ok {
			return nil, ErrMalformedTx
		}
		script, ok := r.readBytes(int(scriptLen))
		if !ok {
			return nil, ErrMalformedTx
		}

		outputs = append(outputs, TxOut{
			Value:  int64(value),
			Script: append([]byte(nil), script...),
		})
	}

	if _, ok := r.readUint32(); !ok { // locktime
		return nil, ErrMalformedTx
	}

	txid := bch.DoubleSHA256(raw)
	return &Transaction{TxID: txid, Inputs: inputs, Outputs: outputs}, nil
}
