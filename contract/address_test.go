// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package contract

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
)

func TestLockingScriptForAddress_P2PKH(t *testing.T) {
	script, err := hex.DecodeString("76a91447fe8a0ca161ebc0090c9d46f81582c579c594a788ac")
	require.NoError(t, err)

	address := cashaddr.Encode(script[3:23], "bitcoincash", 0)

	got, err := LockingScriptForAddress(address)
	require.NoError(t, err)
	require.Equal(t, script, got)
}

func TestLockingScriptForAddress_P2SH(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	address := cashaddr.Encode(hash, "bitcoincash", 8)

	got, err := LockingScriptForAddress(address)
	require.NoError(t, err)

	want := append([]byte{opHash160, byte(len(hash))}, hash...)
	want = append(want, opEqual)
	require.Equal(t, want, got)
}

func TestLockingScriptForAddress_RejectsBadAddress(t *testing.T) {
	_, err := LockingScriptForAddress("not-a-cashaddr")
	require.Error(t, err)
}
