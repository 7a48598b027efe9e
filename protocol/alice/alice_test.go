// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package alice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PHCitizen/bch-xmr-swap/cashaddr"
	"github.com/PHCitizen/bch-xmr-swap/coins"
	"github.com/PHCitizen/bch-xmr-swap/common"
	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
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

func negotiatedSwaps(t *testing.T) (aliceSwap, bobSwap *protocol.Swap) {
	t.Helper()
	aliceSwap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 1), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	bobSwap, err = protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 50), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	return aliceSwap, bobSwap
}

func bobMsg0(t *testing.T, bobSwap *protocol.Swap) protocol.Msg0Transition {
	t.Helper()
	public, err := bobSwap.Keys.Public()
	require.NoError(t, err)
	return protocol.Msg0Transition{Keys: public, Receiving: bobSwap.BchRecv}
}

func toWithBobKeys(t *testing.T, aliceSwap, bobSwap *protocol.Swap) *Alice {
	t.Helper()
	a := New(aliceSwap)
	next, _, protoErr := a.Transition(bobMsg0(t, bobSwap))
	require.Nil(t, protoErr)
	require.Equal(t, WithBobKeys, next.State.Kind)
	return next
}

func TestAlice_OnMsg0_HappyPath(t *testing.T) {
	aliceSwap, bobSwap := negotiatedSwaps(t)
	next := toWithBobKeys(t, aliceSwap, bobSwap)
	require.NotNil(t, next.State.ContractPair)
}

// TestAlice_OnMsg0_RejectsInvalidDleqProof mirrors the Bob-side DLEQ
// rejection test: a spend_bch point not matching the accompanying proof's
// monero_spend point must be refused and the trade safe-deleted.
func TestAlice_OnMsg0_RejectsInvalidDleqProof(t *testing.T) {
	aliceSwap, bobSwap := negotiatedSwaps(t)
	a := New(aliceSwap)

	msg := bobMsg0(t, bobSwap)
	otherSwap, err := protocol.New(common.XmrMainnet, common.BchMainnet, testRecvScript(t, 90), coins.NewPiconeroAmount(1_000_000), coins.NewSatAmount(50_000), 144, 144)
	require.NoError(t, err)
	otherPublic, err := otherSwap.Keys.Public()
	require.NoError(t, err)
	msg.Keys.SpendBch = otherPublic.SpendBch

	next, actions, protoErr := a.Transition(msg)
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidProof, protoErr.Kind)
	require.Equal(t, Init, next.State.Kind)
	require.Len(t, actions, 1)
	_, ok := actions[0].(protocol.SafeDeleteAction)
	require.True(t, ok)
}

func TestAlice_OnContract_RejectsXmrAddressMismatch(t *testing.T) {
	aliceSwap, bobSwap := negotiatedSwaps(t)
	withBobKeys := toWithBobKeys(t, aliceSwap, bobSwap)

	wantBch := withBobKeys.State.ContractPair.SwapLock.CashAddress()
	_, _, protoErr := withBobKeys.Transition(protocol.ContractTransition{
		BchAddress: wantBch,
		XmrAddress: "wrong-xmr-address",
	})
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidXmrAddress, protoErr.Kind)
}

// TestAlice_OnBchConfirmedTx_RejectsAmountMismatch exercises spec.md §8's
// amount-mismatch boundary: a deposit to the correct SwapLock address but
// for the wrong value must not be accepted as funding the contract.
func TestAlice_OnBchConfirmedTx_RejectsAmountMismatch(t *testing.T) {
	aliceSwap, bobSwap := negotiatedSwaps(t)
	withBobKeys := toWithBobKeys(t, aliceSwap, bobSwap)

	wantXmr, err := aliceXmrAddress(t, aliceSwap, withBobKeys)
	require.NoError(t, err)

	matched, _, protoErr := withBobKeys.Transition(protocol.ContractTransition{
		BchAddress: withBobKeys.State.ContractPair.SwapLock.CashAddress(),
		XmrAddress: wantXmr,
	})
	require.Nil(t, protoErr)
	require.Equal(t, ContractMatch, matched.State.Kind)

	pair := matched.State.ContractPair
	wrongValueTx := &contract.Transaction{
		TxID: [32]byte{1},
		Outputs: []contract.TxOut{{
			Value:  int64(aliceSwap.BchAmount.Sats()) - 1,
			Script: pair.SwapLock.LockingScript(),
		}},
	}

	_, _, protoErr = matched.Transition(protocol.BchConfirmedTxTransition{Tx: wrongValueTx})
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidTransaction, protoErr.Kind)
}

func TestAlice_OnBchConfirmedTx_AcceptsMatchingDeposit(t *testing.T) {
	aliceSwap, bobSwap := negotiatedSwaps(t)
	withBobKeys := toWithBobKeys(t, aliceSwap, bobSwap)

	wantXmr, err := aliceXmrAddress(t, aliceSwap, withBobKeys)
	require.NoError(t, err)

	matched, _, protoErr := withBobKeys.Transition(protocol.ContractTransition{
		BchAddress: withBobKeys.State.ContractPair.SwapLock.CashAddress(),
		XmrAddress: wantXmr,
	})
	require.Nil(t, protoErr)

	pair := matched.State.ContractPair
	tx := &contract.Transaction{
		TxID: [32]byte{2},
		Outputs: []contract.TxOut{{
			Value:  int64(aliceSwap.BchAmount.Sats()),
			Script: pair.SwapLock.LockingScript(),
		}},
	}

	next, actions, protoErr := matched.Transition(protocol.BchConfirmedTxTransition{Tx: tx})
	require.Nil(t, protoErr)
	require.Equal(t, BchLocked, next.State.Kind)
	require.Len(t, actions, 1)
	_, ok := actions[0].(protocol.LockXmrAction)
	require.True(t, ok)
}

func TestAlice_ValidEncSig_RejectsRetriedEncSig(t *testing.T) {
	a := &Alice{Swap: &protocol.Swap{}, State: State{Kind: ValidEncSig}}

	_, _, protoErr := a.Transition(protocol.EncSigTransition{})
	require.NotNil(t, protoErr)
	require.Equal(t, protocol.ErrInvalidStateTransition, protoErr.Kind)
}

func aliceXmrAddress(t *testing.T, aliceSwap *protocol.Swap, a *Alice) (string, error) {
	t.Helper()
	return monero.Address(aliceSwap.XmrNetwork, a.State.SharedView)
}
