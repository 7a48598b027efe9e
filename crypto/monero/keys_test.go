// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package monero

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrivateKey_PublicKeyRoundTrip(t *testing.T) {
	priv, err := RandomPrivateKey()
	require.NoError(t, err)

	pub := priv.PublicKey()
	reparsed, err := PublicKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	require.Equal(t, pub.Bytes(), reparsed.Bytes())
}

func TestPrivateKey_AddMatchesPublicKeyAdd(t *testing.T) {
	a, err := RandomPrivateKey()
	require.NoError(t, err)
	b, err := RandomPrivateKey()
	require.NoError(t, err)

	sumPriv := a.Add(b)
	sumPub := a.PublicKey().Add(b.PublicKey())

	require.Equal(t, sumPub.Bytes(), sumPriv.PublicKey().Bytes())
}

func TestPrivateKeyFromLittleEndianBytes(t *testing.T) {
	priv, err := RandomPrivateKey()
	require.NoError(t, err)

	reparsed, err := PrivateKeyFromLittleEndianBytes(priv.Bytes())
	require.NoError(t, err)
	require.Equal(t, priv.Bytes(), reparsed.Bytes())
}
