// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package alice

import (
	logging "github.com/ipfs/go-log"

	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

var log = logging.Logger("protocol/alice")

// Alice owns the XMR-sender role state for one trade.
type Alice struct {
	Swap  *protocol.Swap
	State State
}

// New returns a fresh Alice in State{Kind: Init}.
func New(swap *protocol.Swap) *Alice {
	return &Alice{Swap: swap, State: State{Kind: Init}}
}

// clone returns a shallow copy of a so Transition can return a new value
// without mutating the receiver, matching spec.md §4.4's pure
// `transition(self, event) -> (self', actions[], error?)` contract.
func (a *Alice) clone() *Alice {
	next := *a
	return &next
}

func invalidTransition(a *Alice) (*Alice, []protocol.Action, *protocol.Error) {
	return a, nil, protocol.NewError(protocol.ErrInvalidStateTransition, "transition not applicable in state "+a.State.Kind.String())
}

// Transition is the total function spec.md §4.4 describes: unknown
// (state, event) pairs return ErrInvalidStateTransition without
// advancing.
func (a *Alice) Transition(t protocol.Transition) (*Alice, []protocol.Action, *protocol.Error) {
	switch a.State.Kind {
	case Init:
		if m, ok := t.(protocol.Msg0Transition); ok {
			return a.onMsg0(m)
		}
	case WithBobKeys:
		if c, ok := t.(protocol.ContractTransition); ok {
			return a.onContract(c)
		}
	case ContractMatch:
		if bc, ok := t.(protocol.BchConfirmedTxTransition); ok {
			return a.onBchConfirmedTx(bc)
		}
	case BchLocked:
		if e, ok := t.(protocol.EncSigTransition); ok {
			return a.onEncSig(e)
		}
	case ValidEncSig:
		// A duplicate EncSig is explicitly a no-op per spec.md §4.4; it
		// still reports ErrInvalidStateTransition so retries from an
		// at-least-once relay are idempotent (spec.md §8 invariant 4).
		return invalidTransition(a)
	}

	return invalidTransition(a)
}

func (a *Alice) onMsg0(m protocol.Msg0Transition) (*Alice, []protocol.Action, *protocol.Error) {
	if err := m.Keys.Verify(); err != nil {
		log.Warnf("swap %s: rejecting Bob's keys: %s", a.Swap.ID, err)
		return a, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidProof, err.Error())
	}

	selfPublic, err := a.Swap.Keys.Public()
	if err != nil {
		return a, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidProof, err.Error())
	}

	pair, err := contract.Create(contract.CreateParams{
		BchRecvBob:   m.Receiving,
		BchRecvAlice: a.Swap.BchRecv,
		VesBob:       m.Keys.Ves,
		VesAlice:     selfPublic.Ves,
		Timelock1:    a.Swap.Timelock1,
		Timelock2:    a.Swap.Timelock2,
		Network:      a.Swap.BchNetwork,
	})
	if err != nil {
		return a, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidTimelock, err.Error())
	}

	shared := monero.SharedViewPair(selfPublic.MoneroSpend, m.Keys.MoneroSpend, a.Swap.Keys.MoneroView, m.Keys.MoneroView)

	next := a.clone()
	next.State = State{
		Kind:         WithBobKeys,
		BobKeys:      m.Keys,
		BobBchRecv:   m.Receiving,
		ContractPair: pair,
		SharedView:   shared,
	}
	return next, nil, nil
}

func (a *Alice) onContract(c protocol.ContractTransition) (*Alice, []protocol.Action, *protocol.Error) {
	props := a.State

	wantBch := props.ContractPair.SwapLock.CashAddress()
	if c.BchAddress != wantBch {
		return a, nil, protocol.NewError(protocol.ErrInvalidBchAddress, "expected "+wantBch)
	}

	wantXmr, err := monero.Address(a.Swap.XmrNetwork, props.SharedView)
	if err != nil {
		return a, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, err.Error())
	}
	if c.XmrAddress != wantXmr {
		return a, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, "expected "+wantXmr)
	}

	next := a.clone()
	next.State.Kind = ContractMatch
	return next, []protocol.Action{
		protocol.WatchBchAddressAction{
			SwapLockAddress: props.ContractPair.SwapLock.CashAddress(),
			RefundAddress:   props.ContractPair.Refund.CashAddress(),
		},
	}, nil
}

func (a *Alice) onBchConfirmedTx(bc protocol.BchConfirmedTxTransition) (*Alice, []protocol.Action, *protocol.Error) {
	props := a.State

	outpoint, kind, found := contract.AnalyzeTx(
		bc.Tx, props.ContractPair, int64(a.Swap.BchAmount.Sats()), a.Swap.BchRecv, props.BobBchRecv,
	)
	if !found || kind != contract.KindToSwapLock {
		return a, nil, protocol.NewError(protocol.ErrInvalidTransaction, "transaction does not fund SwapLock")
	}

	xmrAddress, err := monero.Address(a.Swap.XmrNetwork, props.SharedView)
	if err != nil {
		return a, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, err.Error())
	}

	next := a.clone()
	next.State.Kind = BchLocked
	next.State.Outpoint = &outpoint
	return next, []protocol.Action{
		protocol.LockXmrAction{Amount: a.Swap.XmrAmount, Address: xmrAddress},
	}, nil
}

func (a *Alice) onEncSig(e protocol.EncSigTransition) (*Alice, []protocol.Action, *protocol.Error) {
	props := a.State

	decSig, err := adaptor.DecryptSignature(a.Swap.Keys.MoneroSpend, e.Sig)
	if err != nil {
		return a, []protocol.Action{protocol.RefundAction{}}, protocol.NewError(protocol.ErrInvalidSignature, err.Error())
	}

	msgHash := bch.DoubleSHA256(a.Swap.BchRecv)
	if !adaptor.Verify(props.BobKeys.Ves, msgHash, decSig) {
		return a, []protocol.Action{protocol.RefundAction{}}, protocol.NewError(protocol.ErrInvalidSignature, "bob's decrypted signature does not verify")
	}

	next := a.clone()
	next.State.Kind = ValidEncSig
	next.State.DecSig = decSig
	return next, []protocol.Action{protocol.UnlockBchNormalAction{}}, nil
}

// GetTransition returns the next outbound message the peer needs to see,
// or nil if Alice is waiting on a chain event.
func (a *Alice) GetTransition() protocol.Transition {
	switch a.State.Kind {
	case Init:
		public, err := a.Swap.Keys.Public()
		if err != nil {
			log.Errorf("swap %s: deriving public keys: %s", a.Swap.ID, err)
			return nil
		}
		return protocol.Msg0Transition{Keys: public, Receiving: a.Swap.BchRecv}
	case WithBobKeys:
		xmrAddress, err := monero.Address(a.Swap.XmrNetwork, a.State.SharedView)
		if err != nil {
			log.Errorf("swap %s: deriving xmr address: %s", a.Swap.ID, err)
			return nil
		}
		return protocol.ContractTransition{
			BchAddress: a.State.ContractPair.SwapLock.CashAddress(),
			XmrAddress: xmrAddress,
		}
	case ContractMatch:
		enc, err := a.refundEncSig()
		if err != nil {
			log.Errorf("swap %s: signing refund-leg encsig: %s", a.Swap.ID, err)
			return nil
		}
		return protocol.EncSigTransition{Sig: enc}
	default:
		return nil
	}
}

// refundEncSig produces the refund-leg pre-signature Alice owes Bob as
// soon as the contract addresses agree: encrypted_sign(self.ves,
// peer.spend_bch, SHA256^2(peer.bch_recv)).
func (a *Alice) refundEncSig() (*adaptor.EncryptedSignature, error) {
	msgHash := bch.DoubleSHA256(a.State.BobBchRecv)
	return adaptor.EncryptedSign(a.Swap.Keys.Ves, a.State.BobKeys.SpendBch, msgHash)
}
