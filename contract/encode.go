// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import "encoding/binary"

// SpendingInput is one input of a transaction the runner is about to
// broadcast: the outpoint it spends, the scriptSig that unlocks it, and
// its nSequence (BIP-68 relative-locktime units on the timelock-path
// spend, 0 on the VES-signed happy path per spec.md §4.4's
// "get_unlock_tx()").
type SpendingInput struct {
	PreviousOutpoint OutPoint
	ScriptSig        []byte
	Sequence         uint32
}

func putVarInt(out []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(out, byte(n))
	case n <= 0xffff:
		out = append(out, 0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		return append(out, b[:]...)
	case n <= 0xffffffff:
		out = append(out, 0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		return append(out, b[:]...)
	default:
		out = append(out, 0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		return append(out, b[:]...)
	}
}

// EncodeTransaction serialises a legacy (pre-SegWit; BCH has none)
// transaction the way DecodeTransaction expects to parse it back, for
// the runner to broadcast the happy-path and timelock-path unlock
// transactions spec.md §4.4/§9 describes.
func EncodeTransaction(version int32, lockTime uint32, inputs []SpendingInput, outputs []TxOut) []byte {
	out := make([]byte, 0, 128)

	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], uint32(version))
	out = append(out, versionBuf[:]...)

	out = putVarInt(out, uint64(len(inputs)))
	for _, in := range inputs {
		out = append(out, in.PreviousOutpoint.TxID[:]...)

		var voutBuf [4]byte
		binary.LittleEndian.PutUint32(voutBuf[:], in.PreviousOutpoint.Vout)
		out = append(out, voutBuf[:]...)

		out = putVarInt(out, uint64(len(in.ScriptSig)))
		out = append(out, in.ScriptSig...)

		var seqBuf [4]byte
		binary.LittleEndian.PutUint32(seqBuf[:], in.Sequence)
		out = append(out, seqBuf[:]...)
	}

	out = putVarInt(out, uint64(len(outputs)))
	for _, o := range outputs {
		var valueBuf [8]byte
		binary.LittleEndian.PutUint64(valueBuf[:], uint64(o.Value))
		out = append(out, valueBuf[:]...)

		out = putVarInt(out, uint64(len(o.Script)))
		out = append(out, o.Script...)
	}

	var lockTimeBuf [4]byte
	binary.LittleEndian.PutUint32(lockTimeBuf[:], lockTime)
	out = append(out, lockTimeBuf[:]...)

	return out
}
