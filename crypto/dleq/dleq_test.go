// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package dleq

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
)

func sameScalarKeys(t *testing.T) (*bch.PrivateKey, *monero.PrivateKey) {
	t.Helper()

	edPriv, err := monero.RandomPrivateKey()
	require.NoError(t, err)

	edBytes := edPriv.Bytes()
	beBytes := common.Reverse(edBytes[:])
	var beArr [32]byte
	copy(beArr[:], beBytes)

	secpPriv, err := bch.PrivateKeyFromScalar(beArr)
	require.NoError(t, err)

	return secpPriv, edPriv
}

func TestProveVerify_MatchingKeys(t *testing.T) {
	secpPriv, edPriv := sameScalarKeys(t)

	proof, err := Prove(secpPriv)
	require.NoError(t, err)

	err = Verify(proof, secpPriv.PublicKey(), edPriv.PublicKey())
	require.NoError(t, err)
}

func TestVerify_RejectsUnrelatedKeys(t *testing.T) {
	secpPriv, _ := sameScalarKeys(t)
	_, otherEd := sameScalarKeys(t)

	proof, err := Prove(secpPriv)
	require.NoError(t, err)

	err = Verify(proof, secpPriv.PublicKey(), otherEd.PublicKey())
	require.Error(t, err)
}
