// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bob

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

func testRecvScript(t *testing.T, seed byte) []byte {
	t.Helper()
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = seed + byte(i)
	}
	addr := cashaddr.Encode(hash, "bitcoincash", 0)
	script, err := contract.LockingScriptForAddress(addr)
	require.NoError(t, err)
	return script
}

// negotiatedSwaps returns a Bob swap and a matching Alice swap, as if
// both had been minted from the same negotiated terms: same network,
// amounts, and timelocks, distinct recipients and key material.
func negotiatedSwaps(t *testing.T) (bobSwap, aliceSwap *protocol.Swap) {
	t.Helper()
	bobSwap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 1), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	aliceSwap, err = protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 50), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	return bobSwap, aliceSwap
}

func aliceMsg0(t *testing.T, aliceSwap *protocol.Swap) protocol.Msg0Transition {
	t.Helper()
	public, err := aliceSwap.Keys.Public()
	require.NoError(t, err)
	return protocol.Msg0Transition{Keys: public, Receiving: aliceSwap.BchRecv}
}

func TestBob_OnMsg0_HappyPath(t *testing.T) {
	bobSwap, aliceSwap := negotiatedSwaps(t)
	b := New(bobSwap)

	next, actions, protoErr := b.Transition(aliceMsg0(t, aliceSwap))
	require.Nil(t, protoErr)
	require.Equal(t, WithAliceKey, next.State.Kind)
	require.NotNil(t, next.State.ContractPair)
	require.Len(t, actions, 1)
	_, ok := actions[0].(protocol.CreateXmrViewAction)
	require.True(t, ok)
}

// TestBob_OnMsg0_RejectsInvalidDleqProof locks in the DLEQ-abuse rejection
// Bob must perform before ever deriving a contract from a peer's keys: a
// KeyPublic whose spend_bch point does not correspond to the proof's
// monero_spend point must be refused, and the trade safe-deleted since no
// funds can have moved yet.
func TestBob_OnMsg0_RejectsInvalidDleqProof(t *testing.T) {
	bobSwap, aliceSwap := negotiatedSwaps(t)
	b := New(bobSwap)

	msg := aliceMsg0(t, aliceSwap)
	otherSwap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 90), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	otherPublic, err := otherSwap.Keys.Public()
	require.NoError(t, err)
	msg.Keys.SpendBch = otherPublic.SpendBch

	next, actions, protoErr := b.Transition(msg)
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidProof, protoErr.Kind)
	require.Equal(t, Init, next.State.Kind, "a rejected Msg0 must not advance Bob's state")
	require.Len(t, actions, 1)
	_, ok := actions[0].(protocol.SafeDeleteAction)
	require.True(t, ok)
}

func TestBob_OnMsg0_RejectsOversizedTimelock(t *testing.T) {
	bobSwap, aliceSwap := negotiatedSwaps(t)
	bobSwap.Timelock1 = contract.MaxTimelock + 1
	b := New(bobSwap)

	_, _, protoErr := b.Transition(aliceMsg0(t, aliceSwap))
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidTimelock, protoErr.Kind)
}

func TestBob_Transition_RejectsOutOfOrderMessage(t *testing.T) {
	bobSwap, _ := negotiatedSwaps(t)
	b := New(bobSwap)

	_, _, protoErr := b.Transition(protocol.ContractTransition{BchAddress: "x", XmrAddress: "y"})
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidStateTransition, protoErr.Kind)
}

func TestBob_OnContract_RejectsAddressMismatch(t *testing.T) {
	bobSwap, aliceSwap := negotiatedSwaps(t)
	b := New(bobSwap)

	withAliceKey, _, protoErr := b.Transition(aliceMsg0(t, aliceSwap))
	require.Nil(t, protoErr)

	_, _, protoErr = withAliceKey.Transition(protocol.ContractTransition{
		BchAddress: "bitcoincash:wrongaddress",
		XmrAddress: "unused",
	})
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidBchAddress, protoErr.Kind)
}

func TestBob_SetXmrRestoreHeight_AcceptedFromAnyNonTerminalState(t *testing.T) {
	bobSwap, _ := negotiatedSwaps(t)
	b := New(bobSwap)

	next, actions, protoErr := b.Transition(protocol.SetXmrRestoreHeightTransition{Height: 12345})
	require.Nil(t, protoErr)
	require.Nil(t, actions)
	require.Equal(t, uint64(12345), next.State.RestoreHeight)
	require.Equal(t, Init, next.State.Kind, "restore height bookkeeping must not itself advance the state")
}

func TestBob_GetTransition_InitEmitsMsg0(t *testing.T) {
	bobSwap, _ := negotiatedSwaps(t)
	b := New(bobSwap)

	transition := b.GetTransition()
	msg0, ok := transition.(protocol.Msg0Transition)
	require.True(t, ok)
	require.NoError(t, msg0.Keys.Verify())
}
