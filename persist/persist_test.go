// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
	"github.com/PHCitizen/bch-xmr-swap/protocol/role"
)

func testRecvScript(t *testing.T) []byte {
	t.Helper()
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	addr := cashaddr.Encode(hash, "bitcoincash", 0)
	script, err := contract.LockingScriptForAddress(addr)
	require.NoError(t, err)
	return script
}

func testSwap(t *testing.T) *protocol.Swap {
	t.Helper()
	swap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	return swap
}

func TestCreate_RoundTripsThroughOpen(t *testing.T) {
	dir := t.TempDir()
	swap := testSwap(t)
	refundKey, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(dir, swap.ID+".json")
	created, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)
	require.NoError(t, created.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, swap.ID, reopened.ID())
	require.Equal(t, refundKey.String(), reopened.Config.RefundPrivateKey)
	require.Equal(t, "bob", reopened.Config.RoleKind)

	r, err := reopened.Role()
	require.NoError(t, err)
	require.Equal(t, role.KindBob, r.Kind)
	require.Equal(t, "Init", r.StateKind())
}

func TestCreate_RejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	swap := testSwap(t)
	refundKey, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(dir, swap.ID+".json")
	trade, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)
	defer trade.Close()

	_, err = Create(path, swap, refundKey, role.NewBob(swap))
	require.Error(t, err)
}

// TestOpen_RejectsAlreadyLockedFile locks in the single-process-owner
// invariant: a second Open against a trade file already held by this
// process (or another) must fail rather than silently sharing the
// handle, since two drivers racing the same role machine would corrupt
// its state.
func TestOpen_RejectsAlreadyLockedFile(t *testing.T) {
	dir := t.TempDir()
	swap := testSwap(t)
	refundKey, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(dir, swap.ID+".json")
	trade, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)
	defer trade.Close()

	_, err = Open(path)
	require.Error(t, err)
}

func TestOpen_MissingFileReturnsErrNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetRole_SaveThenOpen_ResumesAdvancedState(t *testing.T) {
	dir := t.TempDir()
	swap := testSwap(t)
	refundKey, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(dir, swap.ID+".json")
	trade, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)

	aliceSwap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	alicePublic, err := aliceSwap.Keys.Public()
	require.NoError(t, err)

	current, err := trade.Role()
	require.NoError(t, err)
	next, _, protoErr := current.Transition(protocol.Msg0Transition{Keys: alicePublic, Receiving: aliceSwap.BchRecv})
	require.Nil(t, protoErr)
	require.Equal(t, "WithAliceKey", next.StateKind())

	require.NoError(t, trade.SetRole(next))
	require.NoError(t, trade.Save())
	require.NoError(t, trade.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	resumed, err := reopened.Role()
	require.NoError(t, err)
	require.Equal(t, "WithAliceKey", resumed.StateKind())
	require.NotNil(t, resumed.Bob.State.ContractPair)
}

func TestDelete_RemovesFileAndReleasesLock(t *testing.T) {
	dir := t.TempDir()
	swap := testSwap(t)
	refundKey, err := bch.RandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(dir, swap.ID+".json")
	trade, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)
	require.NoError(t, trade.Delete())

	_, err = Open(path)
	require.ErrorIs(t, err, ErrNotFound)

	// The lock must have been released, not just the file removed: a
	// fresh Create at the same path must succeed.
	trade2, err := Create(path, swap, refundKey, role.NewBob(swap))
	require.NoError(t, err)
	require.NoError(t, trade2.Close())
}
