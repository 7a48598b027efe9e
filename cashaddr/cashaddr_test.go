// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package cashaddr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, prefix := range []string{"bitcoincash", "bchtest", "bchreg"} {
		hash := make([]byte, 20)
		for i := range hash {
			hash[i] = byte(i * 7)
		}

		addr := Encode(hash, prefix, 8)

		gotPrefix, gotVersion, gotHash, err := Decode(addr)
		require.NoError(t, err)
		require.Equal(t, prefix, gotPrefix)
		require.Equal(t, byte(8), gotVersion)
		require.Equal(t, hash, gotHash)
	}
}

func TestDecode_RejectsBadChecksum(t *testing.T) {
	hash := make([]byte, 20)
	addr := Encode(hash, "bitcoincash", 8)
	corrupted := addr[:len(addr)-1] + "x"
	if corrupted == addr {
		corrupted = addr[:len(addr)-1] + "y"
	}

	_, _, _, err := Decode(corrupted)
	require.Error(t, err)
}
