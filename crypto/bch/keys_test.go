// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bch

import (
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"
)

func TestPrivateKey_PublicKeyRoundTrip(t *testing.T) {
	priv, err := RandomPrivateKey()
	require.NoError(t, err)

	pub := priv.PublicKey()
	reparsed, err := PublicKeyFromBytes(pub.Bytes()[:])
	require.NoError(t, err)
	require.Equal(t, pub.Bytes(), reparsed.Bytes())
}

func TestPrivateKeyFromScalar_RejectsZero(t *testing.T) {
	var zero [32]byte
	_, err := PrivateKeyFromScalar(zero)
	require.Error(t, err)
}

func TestPublicKey_Hash160IsTwentyBytes(t *testing.T) {
	priv, err := RandomPrivateKey()
	require.NoError(t, err)

	h := priv.PublicKey().Hash160()
	require.Len(t, h, 20)
}

func TestDoubleSHA256_Deterministic(t *testing.T) {
	data := []byte("swap-message")
	a := DoubleSHA256(data)
	b := DoubleSHA256(data)
	require.Equal(t, a, b)
	require.NotEqual(t, a, [32]byte{})
}

func TestWIF_HasExpectedPrefixByte(t *testing.T) {
	priv, err := RandomPrivateKey()
	require.NoError(t, err)

	wif := priv.WIF(0x80)
	require.NotEmpty(t, wif)

	payload, version, err := base58.CheckDecode(wif)
	require.NoError(t, err)
	require.Equal(t, byte(0x80), version)
	require.Len(t, payload, 33)
}
