// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package monero

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/common"
)

func TestAddress_RoundTrip(t *testing.T) {
	spend, err := RandomPrivateKey()
	require.NoError(t, err)
	view, err := RandomPrivateKey()
	require.NoError(t, err)

	vp := ViewPair{Spend: spend.PublicKey(), View: view}

	for _, net := range []common.XmrNetwork{common.XmrMainnet, common.XmrTestnet, common.XmrStagenet} {
		addr, err := Address(net, vp)
		require.NoError(t, err)

		gotSpend, gotView, prefix, err := DecodeAddress(addr)
		require.NoError(t, err)
		require.Equal(t, vp.Spend.Bytes(), gotSpend.Bytes())
		require.Equal(t, vp.View.PublicKey().Bytes(), gotView.Bytes())

		wantPrefix, err := addressPrefix(net)
		require.NoError(t, err)
		require.Equal(t, wantPrefix, prefix)
	}
}

func TestDecodeAddress_RejectsBadChecksum(t *testing.T) {
	spend, err := RandomPrivateKey()
	require.NoError(t, err)
	view, err := RandomPrivateKey()
	require.NoError(t, err)

	addr, err := Address(common.XmrMainnet, ViewPair{Spend: spend.PublicKey(), View: view})
	require.NoError(t, err)

	corrupted := []byte(addr)
	corrupted[0], corrupted[1] = corrupted[1], corrupted[0]

	_, _, _, err = DecodeAddress(string(corrupted))
	require.Error(t, err)
}

func TestSharedViewPair_AgreesBothWays(t *testing.T) {
	aliceSpend, err := RandomPrivateKey()
	require.NoError(t, err)
	aliceView, err := RandomPrivateKey()
	require.NoError(t, err)
	bobSpend, err := RandomPrivateKey()
	require.NoError(t, err)
	bobView, err := RandomPrivateKey()
	require.NoError(t, err)

	fromAlice := SharedViewPair(aliceSpend.PublicKey(), bobSpend.PublicKey(), aliceView, bobView)
	fromBob := SharedViewPair(bobSpend.PublicKey(), aliceSpend.PublicKey(), bobView, aliceView)

	require.Equal(t, fromAlice.Spend.Bytes(), fromBob.Spend.Bytes())
	require.Equal(t, fromAlice.View.Bytes(), fromBob.View.Bytes())

	addrAlice, err := Address(common.XmrMainnet, fromAlice)
	require.NoError(t, err)
	addrBob, err := Address(common.XmrMainnet, fromBob)
	require.NoError(t, err)
	require.Equal(t, addrAlice, addrBob)
}
