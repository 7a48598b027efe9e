// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package adaptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

// TestRoundTrip mirrors the property in spec.md §8: for any (signer,
// encryption scalar, message), decrypting an encrypted signature with the
// encryption scalar yields a signature that verifies, and recovering the
// decryption key from the completed signature reproduces the original
// encryption scalar (up to the big-endian/little-endian reversal).
func TestRoundTrip(t *testing.T) {
	signer, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	moneroScalar, err := monero.RandomPrivateKey()
	require.NoError(t, err)

	edBytes := moneroScalar.Bytes()
	beBytes := common.Reverse(edBytes[:])
	var beArr [32]byte
	copy(beArr[:], beBytes)
	encryptionPriv, err := bch.PrivateKeyFromScalar(beArr)
	require.NoError(t, err)
	encryptionPub := encryptionPriv.PublicKey()

	var message [32]byte
	for i := range message {
		message[i] = byte(i + 1)
	}

	encSig, err := EncryptedSign(signer, encryptionPub, message)
	require.NoError(t, err)

	sig, err := DecryptSignature(moneroScalar, encSig)
	require.NoError(t, err)

	require.True(t, Verify(signer.PublicKey(), message, sig))

	recovered, err := RecoverDecryptionKey(encryptionPub, sig, encSig)
	require.NoError(t, err)
	require.Equal(t, moneroScalar.Bytes(), recovered.Bytes())
}

func TestVerify_RejectsWrongMessage(t *testing.T) {
	signer, err := bch.RandomPrivateKey()
	require.NoError(t, err)
	encryptionPriv, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	var message, other [32]byte
	message[0] = 1
	other[0] = 2

	encSig, err := EncryptedSign(signer, encryptionPriv.PublicKey(), message)
	require.NoError(t, err)

	moneroScalar, err := monero.PrivateKeyFromLittleEndianBytes(func() [32]byte {
		b := common.Reverse(encryptionPriv.Bytes()[:])
		var out [32]byte
		copy(out[:], b)
		return out
	}())
	require.NoError(t, err)

	sig, err := DecryptSignature(moneroScalar, encSig)
	require.NoError(t, err)

	require.False(t, Verify(signer.PublicKey(), other, sig))
}
