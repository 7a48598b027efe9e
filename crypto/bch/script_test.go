// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestP2PKHLockingScript_Shape(t *testing.T) {
	var hash [20]byte
	for i := range hash {
		hash[i] = byte(i)
	}

	script := P2PKHLockingScript(hash)
	require.Len(t, script, 25)
	require.Equal(t, byte(OpDup), script[0])
	require.Equal(t, byte(OpHash160), script[1])
	require.Equal(t, byte(20), script[2])
	require.Equal(t, hash[:], script[3:23])
	require.Equal(t, byte(OpEqualVerify), script[23])
	require.Equal(t, byte(OpCheckSig), script[24])
}
