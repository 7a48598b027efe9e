// Copyright 2024 The bch-xmr-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bob

import (
	logging "github.com/ipfs/go-log"

	"github.com/PHCitizen/bch-xmr-swap/contract"
	"github.com/PHCitizen/bch-xmr-swap/crypto/adaptor"
	"github.com/PHCitizen/bch-xmr-swap/crypto/bch"
	"github.com/PHCitizen/bch-xmr-swap/crypto/monero"
	"github.com/PHCitizen/bch-xmr-swap/protocol"
)

var log = logging.Logger("protocol/bob")

// Bob owns the BCH-sender role state for one trade.
type Bob struct {
	Swap  *protocol.Swap
	State State
}

// New returns a fresh Bob in State{Kind: Init}.
func New(swap *protocol.Swap) *Bob {
	return &Bob{Swap: swap, State: State{Kind: Init}}
}

// clone returns a shallow copy of b so Transition can return a new value
// without mutating the receiver, matching spec.md §4.4's pure
// `transition(self, event) -> (self', actions[], error?)` contract.
func (b *Bob) clone() *Bob {
	next := *b
	return &next
}

func invalidTransition(b *Bob) (*Bob, []protocol.Action, *protocol.Error) {
	return b, nil, protocol.NewError(protocol.ErrInvalidStateTransition, "transition not applicable in state "+b.State.Kind.String())
}

// Transition is the total function spec.md §4.4 describes: unknown
// (state, event) pairs return ErrInvalidStateTransition without
// advancing. SetXmrRestoreHeight is accepted from any non-terminal
// state, since it is purely informational bookkeeping.
func (b *Bob) Transition(t protocol.Transition) (*Bob, []protocol.Action, *protocol.Error) {
	if h, ok := t.(protocol.SetXmrRestoreHeightTransition); ok && b.State.Kind != SwapSuccess {
		next := b.clone()
		next.State.RestoreHeight = h.Height
		return next, nil, nil
	}

	switch b.State.Kind {
	case Init:
		if m, ok := t.(protocol.Msg0Transition); ok {
			return b.onMsg0(m)
		}
	case WithAliceKey:
		if c, ok := t.(protocol.ContractTransition); ok {
			return b.onContract(c)
		}
	case ContractMatch:
		if e, ok := t.(protocol.EncSigTransition); ok {
			return b.onEncSig(e)
		}
	case VerifiedEncSig:
		if x, ok := t.(protocol.XmrLockVerifiedTransition); ok {
			return b.onXmrLockVerified(x)
		}
	case MoneroLocked:
		if d, ok := t.(protocol.DecSigTransition); ok {
			return b.onDecSig(d)
		}
	}

	return invalidTransition(b)
}

func (b *Bob) onMsg0(m protocol.Msg0Transition) (*Bob, []protocol.Action, *protocol.Error) {
	if err := m.Keys.Verify(); err != nil {
		log.Warnf("swap %s: rejecting Alice's keys: %s", b.Swap.ID, err)
		return b, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidProof, err.Error())
	}

	selfPublic, err := b.Swap.Keys.Public()
	if err != nil {
		return b, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidProof, err.Error())
	}

	pair, err := contract.Create(contract.CreateParams{
		BchRecvBob:   b.Swap.BchRecv,
		BchRecvAlice: m.Receiving,
		VesBob:       selfPublic.Ves,
		VesAlice:     m.Keys.Ves,
		Timelock1:    b.Swap.Timelock1,
		Timelock2:    b.Swap.Timelock2,
		Network:      b.Swap.BchNetwork,
	})
	if err != nil {
		return b, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidTimelock, err.Error())
	}

	shared := monero.SharedViewPair(selfPublic.MoneroSpend, m.Keys.MoneroSpend, b.Swap.Keys.MoneroView, m.Keys.MoneroView)

	next := b.clone()
	next.State = State{
		Kind:         WithAliceKey,
		AliceKeys:    m.Keys,
		AliceBchRecv: m.Receiving,
		ContractPair: pair,
		SharedView:   shared,
	}
	return next, []protocol.Action{
		protocol.CreateXmrViewAction{ViewPair: shared},
	}, nil
}

func (b *Bob) onContract(c protocol.ContractTransition) (*Bob, []protocol.Action, *protocol.Error) {
	props := b.State

	wantBch := props.ContractPair.SwapLock.CashAddress()
	if c.BchAddress != wantBch {
		return b, nil, protocol.NewError(protocol.ErrInvalidBchAddress, "expected "+wantBch)
	}

	wantXmr, err := monero.Address(b.Swap.XmrNetwork, props.SharedView)
	if err != nil {
		return b, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, err.Error())
	}
	if c.XmrAddress != wantXmr {
		return b, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, "expected "+wantXmr)
	}

	next := b.clone()
	next.State.Kind = ContractMatch
	return next, nil, nil
}

func (b *Bob) onEncSig(e protocol.EncSigTransition) (*Bob, []protocol.Action, *protocol.Error) {
	props := b.State

	decSig, err := adaptor.DecryptSignature(b.Swap.Keys.MoneroSpend, e.Sig)
	if err != nil {
		return b, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidSignature, err.Error())
	}

	msgHash := bch.DoubleSHA256(b.Swap.BchRecv)
	if !adaptor.Verify(props.AliceKeys.Ves, msgHash, decSig) {
		return b, []protocol.Action{protocol.SafeDeleteAction{}}, protocol.NewError(protocol.ErrInvalidSignature, "alice's decrypted signature does not verify")
	}

	xmrAddress, err := monero.Address(b.Swap.XmrNetwork, props.SharedView)
	if err != nil {
		return b, nil, protocol.NewError(protocol.ErrInvalidXmrAddress, err.Error())
	}

	next := b.clone()
	next.State.Kind = VerifiedEncSig
	return next, []protocol.Action{
		protocol.LockBchAction{Amount: b.Swap.BchAmount, Address: props.ContractPair.SwapLock.CashAddress()},
		protocol.WatchXmrAction{Address: xmrAddress},
	}, nil
}

func (b *Bob) onXmrLockVerified(x protocol.XmrLockVerifiedTransition) (*Bob, []protocol.Action, *protocol.Error) {
	if x.Amount != b.Swap.XmrAmount {
		return b, nil, protocol.NewError(protocol.ErrInvalidXmrAmount, "observed balance does not match trade amount")
	}

	props := b.State

	next := b.clone()
	next.State.Kind = MoneroLocked
	return next, []protocol.Action{
		protocol.WatchBchAddressAction{
			SwapLockAddress: props.ContractPair.SwapLock.CashAddress(),
			RefundAddress:   props.ContractPair.Refund.CashAddress(),
		},
	}, nil
}

func (b *Bob) onDecSig(d protocol.DecSigTransition) (*Bob, []protocol.Action, *protocol.Error) {
	props := b.State

	encSig, err := b.swaplockEncSig()
	if err != nil {
		return b, nil, protocol.NewError(protocol.ErrInvalidStateTransition, err.Error())
	}

	aliceSpend, err := adaptor.RecoverDecryptionKey(props.AliceKeys.SpendBch, d.Sig, encSig)
	if err != nil {
		return b, nil, protocol.NewError(protocol.ErrInvalidSignature, err.Error())
	}

	fullSpend := b.Swap.Keys.MoneroSpend.Add(aliceSpend)
	keyPair := monero.NewKeyPairFromPrivate(fullSpend)

	next := b.clone()
	next.State.Kind = SwapSuccess
	next.State.KeyPair = keyPair
	return next, []protocol.Action{protocol.TradeSuccessAction{}}, nil
}

// GetTransition returns the next outbound message the peer needs to see,
// or nil if Bob is waiting on a chain or wallet event.
func (b *Bob) GetTransition() protocol.Transition {
	switch b.State.Kind {
	case Init:
		public, err := b.Swap.Keys.Public()
		if err != nil {
			log.Errorf("swap %s: deriving public keys: %s", b.Swap.ID, err)
			return nil
		}
		return protocol.Msg0Transition{Keys: public, Receiving: b.Swap.BchRecv}
	case WithAliceKey:
		xmrAddress, err := monero.Address(b.Swap.XmrNetwork, b.State.SharedView)
		if err != nil {
			log.Errorf("swap %s: deriving xmr address: %s", b.Swap.ID, err)
			return nil
		}
		return protocol.ContractTransition{
			BchAddress: b.State.ContractPair.SwapLock.CashAddress(),
			XmrAddress: xmrAddress,
		}
	case MoneroLocked:
		enc, err := b.swaplockEncSig()
		if err != nil {
			log.Errorf("swap %s: signing swaplock-leg encsig: %s", b.Swap.ID, err)
			return nil
		}
		return protocol.EncSigTransition{Sig: enc}
	default:
		return nil
	}
}

// swaplockEncSig produces the SwapLock-leg pre-signature Bob owes Alice
// once the Monero deposit is confirmed: encrypted_sign(self.ves,
// peer.spend_bch, SHA256^2(peer.bch_recv)). EncryptedSign's nonce is
// derived deterministically from its inputs, so recomputing this in
// onDecSig reproduces byte-for-byte the pre-signature Alice decrypted,
// without needing to persist it in State.
func (b *Bob) swaplockEncSig() (*adaptor.EncryptedSignature, error) {
	msgHash := bch.DoubleSHA256(b.State.AliceBchRecv)
	return adaptor.EncryptedSign(b.Swap.Keys.Ves, b.State.AliceKeys.SpendBch, msgHash)
}
