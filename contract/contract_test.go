// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
)

// TestCashAddressVector reproduces the fixed test vector from spec.md §6,
// which is itself taken directly from the original implementation's
// contract/mod.rs test.
func TestCashAddressVector(t *testing.T) {
	pubkeyBytes, err := hex.DecodeString("02ee2cbe75e3d2a9b5049ac73122c229627a49bd289f71e05075b2c60090766128")
	require.NoError(t, err)
	pubkey, err := bch.PublicKeyFromBytes(pubkeyBytes)
	require.NoError(t, err)

	output, err := hex.DecodeString("76a91447fe8a0ca161ebc0090c9d46f81582c579c594a788ac")
	require.NoError(t, err)

	c := &Contract{
		MiningFee:     1000,
		SuccessOutput: output,
		FailedOutput:  output,
		PubkeyVES:     pubkey,
		Timelock:      1000,
		Network:       common.BchMainnet,
	}

	require.Equal(t, "bitcoincash:prmnwxmmaq58h22jt7qrjmutnkrmrfm4j57zy4cf45", c.CashAddress())
	require.Equal(t, "bitcoincash:rrmnwxmmaq58h22jt7qrjmutnkrmrfm4j5eghtk028", c.CashTokenAddress())
}

func TestCreateRejectsOversizedTimelock(t *testing.T) {
	pubkeyBytes, err := hex.DecodeString("02ee2cbe75e3d2a9b5049ac73122c229627a49bd289f71e05075b2c60090766128")
	require.NoError(t, err)
	pubkey, err := bch.PublicKeyFromBytes(pubkeyBytes)
	require.NoError(t, err)

	_, err = Create(CreateParams{
		BchRecvBob:   []byte{0x01},
		BchRecvAlice: []byte{0x01},
		VesBob:       pubkey,
		VesAlice:     pubkey,
		Timelock1:    65536,
		Timelock2:    20,
		Network:      common.BchTestnet,
	})
	require.ErrorIs(t, err, ErrTimelockTooLarge)
}
