// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDaemonService_Version(t *testing.T) {
	svc := NewDaemonService("v1.2.3", func() {})

	var resp VersionResponse
	require.NoError(t, svc.Version(nil, &VersionRequest{}, &resp))
	require.Equal(t, "v1.2.3", resp.SwapdVersion)
}

func TestDaemonService_Shutdown(t *testing.T) {
	called := false
	svc := NewDaemonService("v1.2.3", func() { called = true })

	var resp ShutdownResponse
	require.NoError(t, svc.Shutdown(nil, &ShutdownRequest{}, &resp))
	require.True(t, called)
}
